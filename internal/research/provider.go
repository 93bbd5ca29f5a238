package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

const (
	// overFetch is how many extra raw candidates are considered so the title
	// filter can still fill the requested count.
	overFetch      = 3
	minTitleLength = 10
)

// APIProvider queries a SearXNG-compatible JSON search endpoint.
type APIProvider struct {
	client       *resty.Client
	baseURL      string
	snippetLimit int
}

type apiResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewAPIProvider builds the primary provider. An empty baseURL leaves the
// provider unconfigured; every Search then fails with ErrNotConfigured.
func NewAPIProvider(client *resty.Client, baseURL string, snippetLimit int) *APIProvider {
	return &APIProvider{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		snippetLimit: snippetLimit,
	}
}

// Search fetches raw candidates and keeps up to limit that pass the title filter.
func (p *APIProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("search provider: %w", ErrNotConfigured)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
		}).
		Get(p.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("search provider request: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("search provider: %w", ErrRateLimited)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("search provider returned HTTP %d", resp.StatusCode())
	}

	var payload apiResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode search provider response: %w", err)
	}

	candidates := make([]Result, 0, len(payload.Results))
	for _, raw := range payload.Results {
		candidates = append(candidates, Result{
			Title:   raw.Title,
			URL:     raw.URL,
			Snippet: raw.Content,
		})
	}
	return selectCandidates(candidates, limit, p.snippetLimit, "searx"), nil
}

// selectCandidates looks at no more than limit+overFetch candidates, drops
// those with short titles and truncates snippets.
func selectCandidates(candidates []Result, limit, snippetLimit int, provider string) []Result {
	if limit <= 0 {
		return nil
	}
	window := limit + overFetch
	if len(candidates) < window {
		window = len(candidates)
	}

	selected := make([]Result, 0, limit)
	for _, c := range candidates[:window] {
		title := oneLine(c.Title)
		if utf8.RuneCountInString(title) < minTitleLength {
			continue
		}
		selected = append(selected, Result{
			Title:    title,
			URL:      strings.TrimSpace(c.URL),
			Snippet:  truncate(oneLine(c.Snippet), snippetLimit),
			Provider: provider,
		})
		if len(selected) == limit {
			break
		}
	}
	return selected
}
