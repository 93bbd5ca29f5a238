// Package research retrieves and condenses external knowledge for tickets.
package research

import (
	"context"
	"errors"
)

// Result is one ranked retrieval hit.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Provider string `json:"provider"`
	Stub     bool   `json:"stub"`
}

// Notice records a tier that was skipped and why.
type Notice struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

// Outcome is what Pipeline.Search hands back to callers.
type Outcome struct {
	Query   string   `json:"query"`
	Tier    string   `json:"tier"`
	Results []Result `json:"results"`
	Notices []Notice `json:"notices,omitempty"`
	Cached  bool     `json:"cached"`
}

// Degraded reports whether the outcome came from the synthetic tier or is empty.
func (o Outcome) Degraded() bool {
	return len(o.Results) == 0 || o.Tier == TierStub
}

// Source is a single rung of the tier ladder.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, query string, limit int) ([]Result, error)

// Search calls f.
func (f SourceFunc) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return f(ctx, query, limit)
}

const (
	TierProvider = "provider"
	TierScrape   = "scrape"
	TierStub     = "stub"
)

var (
	// ErrNotConfigured is returned by a source that has no endpoint.
	ErrNotConfigured = errors.New("source not configured")
	// ErrRateLimited is returned when an upstream answers 429.
	ErrRateLimited = errors.New("rate limited by upstream")
)
