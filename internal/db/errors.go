package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nekogravitycat/booking-sync/internal/remote"
)

// Translate maps a pgx error into the remote error vocabulary so callers above
// the repositories never see driver types. op names the failed statement.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, remote.ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// A malformed uuid can never match a row.
		case pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%s: %w", op, remote.ErrNotFound)
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation:
			return fmt.Errorf("%s: %w: %s", op, remote.ErrConflict, pgErr.Message)
		case pgerrcode.InsufficientPrivilege:
			return fmt.Errorf("%s: %w", op, remote.ErrUnauthorized)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, remote.ErrUnavailable, err)
}
