package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/research"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// ProviderPageSummary marks research rows that hold a page summary.
const ProviderPageSummary = "page_summary"

// Searcher runs the retrieval tier ladder.
type Searcher interface {
	Search(ctx context.Context, query string, max int) research.Outcome
}

// PageSummarizer condenses a single web page.
type PageSummarizer interface {
	Summarize(ctx context.Context, rawURL string) research.Summary
}

// ResearchService exposes retrieval as pure queries and persistence as a
// separate, explicit step.
type ResearchService struct {
	searcher   Searcher
	summarizer PageSummarizer
	tickets    repository.TicketRepository
	results    repository.ResearchRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	defaultMax int
	now        func() time.Time
}

// ResearchDependencies bundles collaborators for the research service.
type ResearchDependencies struct {
	Searcher          Searcher
	Summarizer        PageSummarizer
	TicketRepo        repository.TicketRepository
	ResearchRepo      repository.ResearchRepository
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	DefaultMaxResults int
}

// NewResearchService constructs the service.
func NewResearchService(deps ResearchDependencies) *ResearchService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultMax := deps.DefaultMaxResults
	if defaultMax <= 0 {
		defaultMax = 5
	}
	return &ResearchService{
		searcher:   deps.Searcher,
		summarizer: deps.Summarizer,
		tickets:    deps.TicketRepo,
		results:    deps.ResearchRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		defaultMax: defaultMax,
		now:        time.Now,
	}
}

// Search runs the pipeline. A zero max uses the configured default.
func (s *ResearchService) Search(ctx context.Context, query string, max int) research.Outcome {
	if max == 0 {
		max = s.defaultMax
	}
	return s.searcher.Search(ctx, query, max)
}

// Summarize fetches and condenses a page without storing anything.
func (s *ResearchService) Summarize(ctx context.Context, rawURL string) research.Summary {
	return s.summarizer.Summarize(ctx, rawURL)
}

// SaveResults persists the chosen hits against a ticket, all or nothing.
func (s *ResearchService) SaveResults(ctx context.Context, actor *domain.User, ticketID int64, query string, hits []research.Result) ([]domain.ResearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required", nil)
	}
	if len(hits) == 0 {
		return nil, apperrors.NewValidationError("select at least one result", nil)
	}
	for i, hit := range hits {
		if strings.TrimSpace(hit.Title) == "" {
			return nil, apperrors.NewValidationError("result title is required", map[string]any{"index": i})
		}
	}
	if err := s.ensureTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rows := make([]domain.ResearchResult, 0, len(hits))
	stubs := 0
	for _, hit := range hits {
		if hit.Stub {
			stubs++
		}
		rows = append(rows, domain.ResearchResult{
			TicketID:    ticketID,
			Query:       query,
			Title:       strings.TrimSpace(hit.Title),
			URL:         strings.TrimSpace(hit.URL),
			Snippet:     hit.Snippet,
			Provider:    hit.Provider,
			Stub:        hit.Stub,
			SavedBy:     actor.ID,
			RetrievedAt: now,
		})
	}
	if err := s.results.CreateBatch(ctx, rows); err != nil {
		return nil, mapRepoErr(err, "research result", map[string]any{"ticket_id": ticketID})
	}
	if stubs > 0 {
		s.logger.Info("placeholder research saved", zap.Int64("ticket_id", ticketID), zap.Int("stubs", stubs))
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventResearchSaved,
		TicketID: ticketID,
		Actor:    actorOf(actor),
		Payload:  events.ResearchSavedPayload{Query: query, Count: len(rows), Stubs: stubs},
	})
	return rows, nil
}

// SaveSummary stores a successful page summary as a research row.
func (s *ResearchService) SaveSummary(ctx context.Context, actor *domain.User, ticketID int64, summary research.Summary) (*domain.ResearchResult, error) {
	if summary.Failed() {
		return nil, apperrors.NewValidationError("cannot save a failed summary", map[string]any{"error": summary.Error})
	}
	if strings.TrimSpace(summary.URL) == "" || strings.TrimSpace(summary.Content) == "" {
		return nil, apperrors.NewValidationError("summary url and content are required", nil)
	}

	saved, err := s.SaveResults(ctx, actor, ticketID, summary.URL, []research.Result{{
		Title:    summary.Title,
		URL:      summary.URL,
		Snippet:  summary.Content,
		Provider: ProviderPageSummary,
	}})
	if err != nil {
		return nil, err
	}
	return &saved[0], nil
}

// ListForTicket returns saved research for a ticket, oldest first.
func (s *ResearchService) ListForTicket(ctx context.Context, ticketID int64) ([]domain.ResearchResult, error) {
	if err := s.ensureTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	rows, err := s.results.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

func (s *ResearchService) ensureTicket(ctx context.Context, ticketID int64) error {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return mapRepoErr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}
