package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/booking-sync/internal/remote"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"No rows", pgx.ErrNoRows, remote.ErrNotFound},
		{"Malformed uuid", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, remote.ErrNotFound},
		{"Unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, remote.ErrConflict},
		{"Foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, remote.ErrConflict},
		{"Privilege", &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege}, remote.ErrUnauthorized},
		{"Cancelled", context.Canceled, context.Canceled},
		{"Anything else", errors.New("connection refused"), remote.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "op")
		})
	}

	assert.NoError(t, Translate("op", nil))
}
