package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateCalendarEventRequest payload.
type CreateCalendarEventRequest struct {
	TicketID    *int64    `json:"ticket_id" validate:"omitempty,gt=0"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	EventAt     time.Time `json:"event_at" validate:"required"`
}

// CalendarEventResponse is one event.
type CalendarEventResponse struct {
	ID          int64     `json:"id"`
	TicketID    *int64    `json:"ticket_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventAt     time.Time `json:"event_at"`
	CreatedBy   int64     `json:"created_by"`
}

// CalendarDayResponse groups the events of one date.
type CalendarDayResponse struct {
	Date   string                  `json:"date"`
	Events []CalendarEventResponse `json:"events"`
}

// NewCalendarEventResponse maps an event.
func NewCalendarEventResponse(e *domain.CalendarEvent) CalendarEventResponse {
	return CalendarEventResponse{
		ID:          e.ID,
		TicketID:    e.TicketID,
		Title:       e.Title,
		Description: e.Description,
		EventAt:     e.EventAt,
		CreatedBy:   e.CreatedBy,
	}
}
