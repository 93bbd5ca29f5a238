package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,max=80"`
	Priority    string `json:"priority" validate:"max=40"`
	DueInDays   int    `json:"due_in_days" validate:"omitempty,min=1,max=90"`
}

// StatusChangeRequest payload.
type StatusChangeRequest struct {
	Status     domain.TicketStatus `json:"status" validate:"required"`
	Resolution string              `json:"resolution"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         int64                 `json:"id"`
	Code       string                `json:"code"`
	Title      string                `json:"title"`
	Category   string                `json:"category"`
	Priority   domain.TicketPriority `json:"priority"`
	Status     domain.TicketStatus   `json:"status"`
	CreatedBy  int64                 `json:"created_by"`
	AssigneeID *int64                `json:"assignee_id"`
	CreatedAt  time.Time             `json:"created_at"`
	DueAt      time.Time             `json:"due_at"`
	Overdue    bool                  `json:"overdue"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                `json:"description"`
	Resolution  *string               `json:"resolution"`
	ResolvedAt  *time.Time            `json:"resolved_at"`
	Attachments []AttachmentResponse  `json:"attachments"`
	Assignments []AssignmentResponse  `json:"assignments"`
	Research    []ResearchResultEntry `json:"research"`
}

// AttachmentResponse is attachment metadata; the blob is downloaded separately.
type AttachmentResponse struct {
	ID                int64                   `json:"id"`
	FileName          string                  `json:"file_name"`
	MediaType         string                  `json:"media_type"`
	SizeBytes         int64                   `json:"size_bytes"`
	UploadedBy        int64                   `json:"uploaded_by"`
	UploadedAt        time.Time               `json:"uploaded_at"`
	ExtractionStatus  domain.ExtractionStatus `json:"extraction_status"`
	ExtractionMessage string                  `json:"extraction_message,omitempty"`
	ExtractedText     string                  `json:"extracted_text,omitempty"`
}

// AssignmentResponse is one audit row.
type AssignmentResponse struct {
	UserID     int64               `json:"user_id"`
	AssignedAt time.Time           `json:"assigned_at"`
	Status     domain.TicketStatus `json:"status"`
}

// NewTicketSummary maps a ticket for list views.
func NewTicketSummary(t *domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:         t.ID,
		Code:       t.Code,
		Title:      t.Title,
		Category:   t.Category,
		Priority:   t.Priority,
		Status:     t.Status,
		CreatedBy:  t.CreatedBy,
		AssigneeID: t.AssigneeID,
		CreatedAt:  t.CreatedAt,
		DueAt:      t.DueAt,
		Overdue:    t.Overdue(now),
	}
}

// NewTicketSummaries maps a list.
func NewTicketSummaries(tickets []domain.Ticket, now time.Time) []TicketSummary {
	items := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketSummary(&tickets[i], now))
	}
	return items
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:                a.ID,
		FileName:          a.FileName,
		MediaType:         a.MediaType,
		SizeBytes:         a.SizeBytes,
		UploadedBy:        a.UploadedBy,
		UploadedAt:        a.UploadedAt,
		ExtractionStatus:  a.ExtractionStatus,
		ExtractionMessage: a.ExtractionMessage,
		ExtractedText:     a.ExtractedText,
	}
}

// NewTicketDetail flattens a ticket with its attachments, claims and research.
func NewTicketDetail(t *domain.Ticket, attachments []domain.Attachment, assignments []domain.Assignment, research []domain.ResearchResult, now time.Time) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketSummary: NewTicketSummary(t, now),
		Description:   t.Description,
		Resolution:    t.Resolution,
		ResolvedAt:    t.ResolvedAt,
		Attachments:   make([]AttachmentResponse, 0, len(attachments)),
		Assignments:   make([]AssignmentResponse, 0, len(assignments)),
		Research:      NewResearchEntries(research),
	}
	for i := range attachments {
		resp.Attachments = append(resp.Attachments, NewAttachmentResponse(&attachments[i]))
	}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, AssignmentResponse{UserID: a.UserID, AssignedAt: a.AssignedAt, Status: a.Status})
	}
	return resp
}
