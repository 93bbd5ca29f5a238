package research

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	noTitle            = "no title"
	minMainContentRune = 100
)

// contentSelectors are tried in order; the first match with enough text wins.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".content",
	".post-content",
	".entry-content",
	".article-body",
}

const boilerplateSelector = "script, style, nav, header, footer, aside, noscript"

// Summary is the condensed form of a single web page.
type Summary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the page could not be summarized.
func (s Summary) Failed() bool {
	return s.Error != ""
}

// Summarizer fetches a page and reduces it to a title and a short body.
type Summarizer struct {
	client  *resty.Client
	timeout time.Duration
	limit   int
	logger  *zap.Logger
}

// NewSummarizer builds a Summarizer that truncates content at limit runes.
func NewSummarizer(client *resty.Client, timeout time.Duration, limit int, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: client, timeout: timeout, limit: limit, logger: logger}
}

// Summarize never returns an error; failures are reported in Summary.Error.
func (s *Summarizer) Summarize(ctx context.Context, rawURL string) Summary {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return Summary{URL: strings.TrimSpace(rawURL), Error: err.Error()}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(target)
	if err != nil {
		s.logger.Warn("page fetch failed", zap.String("url", target), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return Summary{URL: target, Error: "timed out fetching page"}
		}
		return Summary{URL: target, Error: fmt.Sprintf("could not fetch page: %v", err)}
	}
	if !resp.IsSuccess() {
		return Summary{URL: target, Error: fmt.Sprintf("page returned HTTP %d", resp.StatusCode())}
	}

	title, content, err := condense(resp.Body(), s.limit)
	if err != nil {
		return Summary{URL: target, Error: fmt.Sprintf("could not parse page: %v", err)}
	}
	return Summary{Title: title, Content: content, URL: target}
}

// NormalizeURL trims raw and prefixes https:// when no scheme is given.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("url has no host")
	}
	return parsed.String(), nil
}

func condense(body []byte, limit int) (string, string, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	doc := goquery.NewDocumentFromNode(root)

	title := oneLine(doc.Find("title").First().Text())
	if title == "" {
		title = noTitle
	}

	return title, truncate(mainContent(doc), limit), nil
}

func mainContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := collapse(blockText(sel)); utf8.RuneCountInString(text) > minMainContentRune {
			return text
		}
	}

	doc.Find(boilerplateSelector).Remove()
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return collapse(blockText(doc.Selection))
	}
	return collapse(blockText(body))
}

// blockText renders the text of sel with a line break after every block
// element so adjacent paragraphs do not run together.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Br:
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteByte('\n')
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Li, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Tr, atom.Table,
		atom.Pre, atom.Blockquote, atom.Header, atom.Footer, atom.Dd, atom.Dt:
		return true
	}
	return false
}
