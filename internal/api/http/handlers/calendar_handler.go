package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// CalendarHandler serves calendar events.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: calendarService}
}

// Create POST /calendar/events.
func (h *CalendarHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCalendarEventRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	event, err := h.service.Create(c.UserContext(), principal.User, service.CalendarEventInput{
		TicketID:    req.TicketID,
		Title:       req.Title,
		Description: req.Description,
		EventAt:     req.EventAt,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCalendarEventResponse(event)})
}

// List GET /calendar/events?from=&to=. Defaults to the next 30 days.
func (h *CalendarHandler) List(c *fiber.Ctx) error {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid from date", map[string]any{"from": raw})
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 30)
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid to date", map[string]any{"to": raw})
		}
		to = parsed
	}

	days, err := h.service.ListByDay(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	resp := make([]dto.CalendarDayResponse, 0, len(days))
	for _, day := range days {
		events := make([]dto.CalendarEventResponse, 0, len(day.Events))
		for i := range day.Events {
			events = append(events, dto.NewCalendarEventResponse(&day.Events[i]))
		}
		resp = append(resp, dto.CalendarDayResponse{Date: day.Date, Events: events})
	}
	return c.JSON(fiber.Map{"data": resp})
}
