package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/research"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// ResearchService is implemented by *service.ResearchService.
type ResearchService interface {
	Search(ctx context.Context, query string, max int) research.Outcome
	Summarize(ctx context.Context, rawURL string) research.Summary
	ListForTicket(ctx context.Context, ticketID int64) ([]domain.ResearchResult, error)
	SaveResults(ctx context.Context, actor *domain.User, ticketID int64, query string, hits []research.Result) ([]domain.ResearchResult, error)
	SaveSummary(ctx context.Context, actor *domain.User, ticketID int64, summary research.Summary) (*domain.ResearchResult, error)
}

// ResearchHandler exposes retrieval and research persistence.
type ResearchHandler struct {
	service ResearchService
}

// NewResearchHandler constructs handler.
func NewResearchHandler(researchService ResearchService) *ResearchHandler {
	return &ResearchHandler{service: researchService}
}

// Search GET /research/search?q=&max=. Upstream failures show up as notices,
// never as an error status.
func (h *ResearchHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return apperrors.NewValidationError("query parameter q is required", nil)
	}
	outcome := h.service.Search(c.UserContext(), query, parseInt(c.Query("max"), 0))
	return c.JSON(fiber.Map{"data": dto.NewSearchResponse(outcome)})
}

// Summarize POST /research/summarize. A failed fetch is still a 200 with the
// error carried in the body.
func (h *ResearchHandler) Summarize(c *fiber.Ctx) error {
	var req dto.SummarizeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	summary := h.service.Summarize(c.UserContext(), req.URL)
	return c.JSON(fiber.Map{"data": summary})
}

// ListForTicket GET /tickets/:id/research.
func (h *ResearchHandler) ListForTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.service.ListForTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewResearchEntries(rows)})
}

// SaveResults POST /tickets/:id/research.
func (h *ResearchHandler) SaveResults(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SaveResearchRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	rows, err := h.service.SaveResults(c.UserContext(), principal.User, id, req.Query, req.Hits())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewResearchEntries(rows)})
}

// SaveSummary POST /tickets/:id/research/summary.
func (h *ResearchHandler) SaveSummary(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SaveSummaryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	row, err := h.service.SaveSummary(c.UserContext(), principal.User, id, research.Summary{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewResearchEntries([]domain.ResearchResult{*row})[0]})
}
