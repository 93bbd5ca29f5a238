package domain

import "time"

// CalendarEvent is a dated entry, optionally tied to a ticket.
type CalendarEvent struct {
	ID          int64
	TicketID    *int64
	Title       string
	Description string
	EventAt     time.Time
	CreatedBy   int64
	CreatedAt   time.Time
}
