package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/research"
)

// SummarizeRequest asks for a page summary.
type SummarizeRequest struct {
	URL string `json:"url" validate:"required"`
}

// SearchHit is a retrieval result as sent by clients when saving.
type SearchHit struct {
	Title    string `json:"title" validate:"required"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Provider string `json:"provider"`
	Stub     bool   `json:"stub"`
}

// SaveResearchRequest persists a selection of hits.
type SaveResearchRequest struct {
	Query   string      `json:"query" validate:"required"`
	Results []SearchHit `json:"results" validate:"required,min=1,dive"`
}

// SaveSummaryRequest persists a page summary.
type SaveSummaryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
	URL     string `json:"url" validate:"required"`
}

// SearchResponse mirrors a pipeline outcome.
type SearchResponse struct {
	Query    string            `json:"query"`
	Tier     string            `json:"tier"`
	Degraded bool              `json:"degraded"`
	Cached   bool              `json:"cached"`
	Results  []research.Result `json:"results"`
	Notices  []research.Notice `json:"notices"`
}

// ResearchResultEntry is a saved research row.
type ResearchResultEntry struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet"`
	Provider    string    `json:"provider"`
	Stub        bool      `json:"stub"`
	SavedBy     int64     `json:"saved_by"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Hits converts the request into pipeline results.
func (r SaveResearchRequest) Hits() []research.Result {
	hits := make([]research.Result, 0, len(r.Results))
	for _, h := range r.Results {
		hits = append(hits, research.Result{Title: h.Title, URL: h.URL, Snippet: h.Snippet, Provider: h.Provider, Stub: h.Stub})
	}
	return hits
}

// NewSearchResponse maps an outcome; nil slices become empty arrays.
func NewSearchResponse(o research.Outcome) SearchResponse {
	resp := SearchResponse{
		Query:    o.Query,
		Tier:     o.Tier,
		Degraded: o.Degraded(),
		Cached:   o.Cached,
		Results:  o.Results,
		Notices:  o.Notices,
	}
	if resp.Results == nil {
		resp.Results = []research.Result{}
	}
	if resp.Notices == nil {
		resp.Notices = []research.Notice{}
	}
	return resp
}

// NewResearchEntries maps saved rows.
func NewResearchEntries(rows []domain.ResearchResult) []ResearchResultEntry {
	items := make([]ResearchResultEntry, 0, len(rows))
	for _, r := range rows {
		items = append(items, ResearchResultEntry{
			ID:          r.ID,
			Query:       r.Query,
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Snippet,
			Provider:    r.Provider,
			Stub:        r.Stub,
			SavedBy:     r.SavedBy,
			RetrievedAt: r.RetrievedAt,
		})
	}
	return items
}
