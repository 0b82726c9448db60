package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/booking-sync/internal/db"
)

// Repository is the remote booking table. Every call is scoped to the bookings
// of events owned by ownerID.
type Repository interface {
	ListFiltered(ctx context.Context, ownerID string, eventIDs []string) ([]*Booking, error)
	Patch(ctx context.Context, ownerID, id string, p Patch) (*Booking, error)
}

var columns = []string{
	"b.id", "b.event_type_id", "b.client_name", "b.client_email", "b.scheduled_at",
	"b.status", "b.notes", "b.created_at", "b.updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.EventID, &b.ClientName, &b.ClientEmail, &b.ScheduledAt,
		&b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) ListFiltered(ctx context.Context, ownerID string, eventIDs []string) ([]*Booking, error) {
	if len(eventIDs) == 0 {
		return []*Booking{}, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.bookings b").
		Join("public.event_types e ON b.event_type_id = e.id").
		Where(squirrel.Eq{"b.event_type_id": eventIDs}).
		Where(squirrel.Eq{"e.owner_id": ownerID}).
		OrderBy("b.scheduled_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, db.Translate("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate("list bookings", err)
	}
	return bookings, nil
}

func (r *pgxRepository) Patch(ctx context.Context, ownerID, id string, p Patch) (*Booking, error) {
	if p.Status == nil {
		return nil, ErrInvalidStatus
	}

	// RETURNING cannot use the "b." alias of the select list.
	returning := make([]string, len(columns))
	for i, c := range columns {
		returning[i] = strings.TrimPrefix(c, "b.")
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", *p.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("event_type_id IN (SELECT id FROM public.event_types WHERE owner_id = ?)", ownerID)).
		Suffix("RETURNING " + strings.Join(returning, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build patch booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.Translate("patch booking", err)
	}
	return b, nil
}
