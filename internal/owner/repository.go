package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing owner accounts.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Owner, error)
	GetByID(ctx context.Context, id string) (*Owner, error)
	Create(ctx context.Context, o *Owner) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
}

var columns = []string{
	"id", "email", "password_hash", "display_name", "created_at", "last_login_at", "is_active",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Owner, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).From("public.owners").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owner query failed: %w", err)
	}

	var o Owner
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID,
		&o.Email,
		&o.PasswordHash,
		&o.DisplayName,
		&o.CreatedAt,
		&o.LastLoginAt,
		&o.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.InvalidTextRepresentation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("owner query failed: %w", err)
	}
	return &o, nil
}

func (r *pgxRepository) GetByEmail(ctx context.Context, email string) (*Owner, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Owner, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) Create(ctx context.Context, o *Owner) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.owners").
		Columns("email", "password_hash", "display_name", "is_active").
		Values(o.Email, o.PasswordHash, o.DisplayName, o.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create owner query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create owner failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.owners").
		Set("last_login_at", t).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last login query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update last login failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
