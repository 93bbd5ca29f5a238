package research

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HTMLScraper parses the result list of a DuckDuckGo-style HTML search page.
type HTMLScraper struct {
	client       *resty.Client
	baseURL      string
	snippetLimit int
}

// NewHTMLScraper builds the fallback tier.
func NewHTMLScraper(client *resty.Client, baseURL string, snippetLimit int) *HTMLScraper {
	return &HTMLScraper{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		snippetLimit: snippetLimit,
	}
}

// SearchURL is the provider-agnostic URL the scraper fetches for query.
func (s *HTMLScraper) SearchURL(query string) string {
	return s.baseURL + "/html/?q=" + url.QueryEscape(query)
}

// Search fetches the HTML result page and extracts up to limit hits.
func (s *HTMLScraper) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("html scrape: %w", ErrNotConfigured)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(s.SearchURL(query))
	if err != nil {
		return nil, fmt.Errorf("html scrape request: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("html scrape: %w", ErrRateLimited)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("html scrape returned HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return parseResultList(doc, limit, s.snippetLimit), nil
}

func parseResultList(doc *goquery.Document, limit, snippetLimit int) []Result {
	var results []Result
	if limit <= 0 {
		return results
	}
	doc.Find(".result:not(.result--ad)").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := oneLine(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:    title,
			URL:      unwrapRedirect(href),
			Snippet:  truncate(oneLine(sel.Find(".result__snippet").First().Text()), snippetLimit),
			Provider: "duckduckgo-html",
		})
		return len(results) < limit
	})
	return results
}

// unwrapRedirect resolves the search engine's click-tracking link to the
// destination carried in its uddg parameter.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
