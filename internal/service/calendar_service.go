package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const maxCalendarRange = 366 * 24 * time.Hour

// CalendarService manages dated events.
type CalendarService struct {
	events  repository.CalendarRepository
	tickets repository.TicketRepository
	now     func() time.Time
}

// CalendarEventInput describes a new event.
type CalendarEventInput struct {
	TicketID    *int64
	Title       string
	Description string
	EventAt     time.Time
}

// CalendarDay is the events of one calendar day.
type CalendarDay struct {
	Date   string
	Events []domain.CalendarEvent
}

// NewCalendarService constructs the service.
func NewCalendarService(events repository.CalendarRepository, tickets repository.TicketRepository) *CalendarService {
	return &CalendarService{events: events, tickets: tickets, now: time.Now}
}

// Create stores an event. A ticket reference is optional but must exist when given.
func (s *CalendarService) Create(ctx context.Context, actor *domain.User, input CalendarEventInput) (*domain.CalendarEvent, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.EventAt.IsZero() {
		return nil, apperrors.NewValidationError("event_at is required", nil)
	}
	if input.TicketID != nil {
		if _, err := s.tickets.GetByID(ctx, *input.TicketID); err != nil {
			return nil, mapRepoErr(err, "ticket", map[string]any{"ticket_id": *input.TicketID})
		}
	}

	event := &domain.CalendarEvent{
		TicketID:    input.TicketID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		EventAt:     input.EventAt.UTC(),
		CreatedBy:   actor.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}
	return event, nil
}

// ListByDay returns events in [from, to) grouped by UTC day in date order.
func (s *CalendarService) ListByDay(ctx context.Context, from, to time.Time) ([]CalendarDay, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidationError("to must be after from", nil)
	}
	if to.Sub(from) > maxCalendarRange {
		return nil, apperrors.NewValidationError("range may span at most one year", nil)
	}

	list, err := s.events.ListBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return GroupByDay(list), nil
}

// GroupByDay buckets events by their UTC date. Input order is kept within a
// day and days appear in first-seen order, so sorted input gives sorted days.
func GroupByDay(list []domain.CalendarEvent) []CalendarDay {
	days := []CalendarDay{}
	index := map[string]int{}
	for _, event := range list {
		key := event.EventAt.UTC().Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, CalendarDay{Date: key})
		}
		days[i].Events = append(days[i].Events, event)
	}
	return days
}
