package research

import (
	"context"
	"fmt"
	"net/url"
)

// StubSource synthesizes placeholder results that quote the query. It never
// fails, so it is always the last rung of the ladder.
type StubSource struct{}

// Search returns exactly limit placeholders.
func (StubSource) Search(_ context.Context, query string, limit int) ([]Result, error) {
	results := make([]Result, 0, limit)
	link := "https://duckduckgo.com/?q=" + url.QueryEscape(query)
	for i := 1; i <= limit; i++ {
		results = append(results, Result{
			Title:    fmt.Sprintf("Offline suggestion %d for \"%s\"", i, query),
			URL:      link,
			Snippet:  fmt.Sprintf("Live search is unavailable right now. Try searching for \"%s\" manually or retry later.", query),
			Provider: TierStub,
			Stub:     true,
		})
	}
	return results, nil
}
