package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/booking-sync/internal/db"
)

// Repository is the remote event table, scoped by owner.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]*Event, error)
	Insert(ctx context.Context, ownerID string, in CreateInput) (*Event, error)
	Patch(ctx context.Context, ownerID, id string, p Patch) (*Event, error)
	Delete(ctx context.Context, ownerID, id string) error
}

var columns = []string{
	"id", "owner_id", "title", "description", "duration", "is_active", "created_at", "updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	if err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Duration, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *pgxRepository) List(ctx context.Context, ownerID string) ([]*Event, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.event_types").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list events query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate("list events", err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, db.Translate("scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate("list events", err)
	}
	return events, nil
}

func (r *pgxRepository) Insert(ctx context.Context, ownerID string, in CreateInput) (*Event, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.event_types").
		Columns("owner_id", "title", "description", "duration", "is_active").
		Values(ownerID, strings.TrimSpace(in.Title), in.Description, in.Duration, in.Active()).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert event query failed: %w", err)
	}

	e, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.Translate("insert event", err)
	}
	return e, nil
}

func (r *pgxRepository) Patch(ctx context.Context, ownerID, id string, p Patch) (*Event, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	update := psql.Update("public.event_types")

	if p.Title != nil {
		update = update.Set("title", strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		update = update.Set("description", *p.Description)
	}
	if p.Duration != nil {
		update = update.Set("duration", *p.Duration)
	}
	if p.IsActive != nil {
		update = update.Set("is_active", *p.IsActive)
	}

	query, args, err := update.
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build patch event query failed: %w", err)
	}

	e, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.Translate("patch event", err)
	}
	return e, nil
}

func (r *pgxRepository) Delete(ctx context.Context, ownerID, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.event_types").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete event query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return db.Translate("delete event", err)
	}
	if ct.RowsAffected() == 0 {
		return db.Translate("delete event", pgx.ErrNoRows)
	}
	return nil
}
