package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventAttachmentIngested  EventType = "attachment_ingested"
	EventResearchSaved       EventType = "research_saved"
	EventTicketOverdue       EventType = "ticket_overdue"
)

// Actor identifies who caused an event. A zero UserID means the system.
type Actor struct {
	UserID int64           `json:"user_id,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// System reports whether the event was raised by a background job.
func (a Actor) System() bool {
	return a.UserID == 0
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code     string                `json:"code"`
	Title    string                `json:"title"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	DueAt    time.Time             `json:"due_at"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	Resolution string              `json:"resolution,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID       int64  `json:"assignee_id"`
	PreviousAssignee *int64 `json:"previous_assignee,omitempty"`
	FirstClaim       bool   `json:"first_claim"`
}

// AttachmentIngestedPayload payload.
type AttachmentIngestedPayload struct {
	AttachmentID int64                   `json:"attachment_id"`
	FileName     string                  `json:"file_name"`
	Status       domain.ExtractionStatus `json:"status"`
	TextLength   int                     `json:"text_length"`
}

// ResearchSavedPayload payload.
type ResearchSavedPayload struct {
	Query string `json:"query"`
	Count int    `json:"count"`
	Stubs int    `json:"stubs"`
}

// TicketOverduePayload payload.
type TicketOverduePayload struct {
	Code       string    `json:"code"`
	DueAt      time.Time `json:"due_at"`
	AssigneeID *int64    `json:"assignee_id,omitempty"`
}
