package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CalendarRepository stores calendar events.
type CalendarRepository interface {
	Create(ctx context.Context, event *domain.CalendarEvent) error
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarRepository builds repository.
func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

func (r *calendarRepository) Create(ctx context.Context, event *domain.CalendarEvent) error {
	const query = `
        INSERT INTO calendar_events (ticket_id, title, description, event_at, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		event.TicketID,
		event.Title,
		event.Description,
		event.EventAt,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
	return mapErr(err)
}

func (r *calendarRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	const query = `
        SELECT id, ticket_id, title, description, event_at, created_by, created_at
        FROM calendar_events WHERE event_at >= $1 AND event_at < $2 ORDER BY event_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CalendarEvent
	for rows.Next() {
		var event domain.CalendarEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.Title,
			&event.Description,
			&event.EventAt,
			&event.CreatedBy,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
