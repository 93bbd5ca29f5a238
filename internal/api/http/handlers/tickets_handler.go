package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketService is the ticket behavior the handler relies on; *service.TicketService implements it.
type TicketService interface {
	CreateTicket(ctx context.Context, creator *domain.User, input service.TicketCreateInput) (*domain.Ticket, error)
	ListMine(ctx context.Context, userID int64) ([]domain.Ticket, error)
	AvailableFor(ctx context.Context, actorID int64) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64) (*service.TicketDetail, error)
	Assign(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, actor *domain.User, ticketID int64, input service.StatusChangeInput) (*domain.Ticket, error)
	AddAttachment(ctx context.Context, actor *domain.User, ticketID int64, input service.AttachmentInput) (*domain.Attachment, error)
	GetAttachment(ctx context.Context, ticketID, attachmentID int64) (*domain.Attachment, error)
}

// TicketsHandler serves ticket lifecycle endpoints.
type TicketsHandler struct {
	service   TicketService
	maxUpload int64
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketService, maxUploadBytes int) *TicketsHandler {
	return &TicketsHandler{service: ticketService, maxUpload: int64(maxUploadBytes)}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		DueInDays:   req.DueInDays,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket, time.Now())})
}

// ListMine GET /tickets/mine.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListMine(c.UserContext(), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets, time.Now())})
}

// Queue GET /tickets/queue: active tickets the caller does not hold, most urgent first.
func (h *TicketsHandler) Queue(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.AvailableFor(c.UserContext(), principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets, time.Now())})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(detail.Ticket, detail.Attachments, detail.Assignments, detail.Research, time.Now())})
}

// Assign POST /tickets/:id/assign claims the ticket for the caller.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket, time.Now())})
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), principal.User, id, service.StatusChangeInput{
		Status:     req.Status,
		Resolution: req.Resolution,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, nil, nil, nil, time.Now())})
}

// UploadAttachment POST /tickets/:id/attachments (multipart field "file").
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" is required", nil)
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return apperrors.NewValidationError("attachment too large", map[string]any{"max_bytes": h.maxUpload})
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	attachment, err := h.service.AddAttachment(c.UserContext(), principal.User, id, service.AttachmentInput{
		FileName:  header.Filename,
		MediaType: header.Header.Get(fiber.HeaderContentType),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentID.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	attachmentID, err := paramID(c, "attachmentID")
	if err != nil {
		return err
	}
	attachment, err := h.service.GetAttachment(c.UserContext(), ticketID, attachmentID)
	if err != nil {
		return err
	}

	mediaType := attachment.MediaType
	if mediaType == "" {
		mediaType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, mediaType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	return c.Send(attachment.Data)
}
