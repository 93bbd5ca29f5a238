package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSelectCandidatesFiltersShortTitles(t *testing.T) {
	candidates := []Result{
		{Title: "short", URL: "https://1.example"},
		{Title: "A sufficiently long title", URL: "https://2.example", Snippet: strings.Repeat("a", 400)},
		{Title: "tiny", URL: "https://3.example"},
		{Title: "Another sufficiently long one", URL: "https://4.example"},
		{Title: "Third result with a long title", URL: "https://5.example"},
		{Title: "Beyond the over-fetch window", URL: "https://6.example"},
	}

	got := selectCandidates(candidates, 2, 300, "searx")

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].URL != "https://2.example" || got[1].URL != "https://4.example" {
		t.Errorf("unexpected selection: %+v", got)
	}
	if n := len([]rune(got[0].Snippet)); n != 303 || !strings.HasSuffix(got[0].Snippet, "...") {
		t.Errorf("snippet not truncated to 300 + ellipsis, len=%d", n)
	}
}

func TestSelectCandidatesRespectsWindow(t *testing.T) {
	candidates := []Result{
		{Title: "no"}, {Title: "no"}, {Title: "no"}, {Title: "no"},
		{Title: "Outside the window of four"},
	}
	if got := selectCandidates(candidates, 1, 300, "searx"); len(got) != 0 {
		t.Errorf("only limit+3 candidates may be considered, got %+v", got)
	}
}

func TestAPIProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.URL.Query().Get("q") != "outlook crash" {
			t.Errorf("query = %q", r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Fix Outlook crashing on start","url":"https://support.example/a","content":"Run in safe mode."},
			{"title":"Bad","url":"https://support.example/b","content":"dropped"}
		]}`))
	}))
	defer srv.Close()

	p := NewAPIProvider(NewHTTPClient("test-agent"), srv.URL+"/", 300)
	got, err := p.Search(context.Background(), "outlook crash", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Provider != "searx" || got[0].Snippet != "Run in safe mode." {
		t.Errorf("unexpected result %+v", got[0])
	}
}

func TestAPIProviderErrors(t *testing.T) {
	p := NewAPIProvider(NewHTTPClient("test-agent"), "", 300)
	if _, err := p.Search(context.Background(), "q", 1); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}

	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()

	p = NewAPIProvider(NewHTTPClient("test-agent"), limited.URL, 300)
	if _, err := p.Search(context.Background(), "q", 1); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

const resultPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fdocs.example%2Fvpn&amp;rut=abc">VPN   client
  keeps disconnecting</a>
  <a class="result__snippet">Check the MTU setting on the adapter.</a>
</div>
<div class="result"><a class="result__a" href="">missing link</a></div>
<div class="result">
  <a class="result__a" href="https://kb.example/vpn">Direct link result</a>
</div>
<div class="result">
  <a class="result__a" href="https://kb.example/third">Third</a>
</div>
</body></html>`

func TestHTMLScraperParsesResultList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" || r.URL.Query().Get("q") != "vpn drops" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("user agent = %q", ua)
		}
		_, _ = w.Write([]byte(resultPage))
	}))
	defer srv.Close()

	s := NewHTMLScraper(NewHTTPClient("test-agent"), srv.URL, 300)
	got, err := s.Search(context.Background(), "vpn drops", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].URL != "https://docs.example/vpn" {
		t.Errorf("redirect not unwrapped: %q", got[0].URL)
	}
	if got[0].Title != "VPN client keeps disconnecting" {
		t.Errorf("title = %q", got[0].Title)
	}
	if got[0].Snippet != "Check the MTU setting on the adapter." {
		t.Errorf("snippet = %q", got[0].Snippet)
	}
	if got[1].URL != "https://kb.example/vpn" {
		t.Errorf("second url = %q", got[1].URL)
	}
}

const adPage = `<html><body>
<div class="result result--ad">
  <a class="result__a" href="https://ads.example/vpn">Fast VPN, 50% off</a>
  <a class="result__snippet">Sponsored</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://kb.example/vpn-mtu">Lowering the VPN MTU</a>
</div>
</body></html>`

func TestHTMLScraperSkipsAdBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(adPage))
	}))
	defer srv.Close()

	s := NewHTMLScraper(NewHTTPClient("test-agent"), srv.URL, 300)
	got, err := s.Search(context.Background(), "vpn", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://kb.example/vpn-mtu" {
		t.Fatalf("got %+v, want only the organic result", got)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	cases := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx": "https://a.example/x",
		"https://b.example/page":                               "https://b.example/page",
		"//c.example/path":                                     "https://c.example/path",
	}
	for in, want := range cases {
		if got := unwrapRedirect(in); got != want {
			t.Errorf("unwrapRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
