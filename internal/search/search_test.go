package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/worker"
)

func TestSearXNGProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("Expected format=json, got %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("q") != "companies based in France" {
			t.Errorf("Unexpected query %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("User-Agent") != "sieve-test" {
			t.Errorf("Unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"query": "x", "results": [
			{"title": "Acme SA", "content": "<b>Acme</b> SA is based in Paris &amp; Lyon", "url": "https://en.wikipedia.org/wiki/Acme"},
			{"title": "empty", "content": "", "url": ""},
			{"title": "Globex", "content": "Globex Inc", "url": "https://globex.example"},
			{"title": "Initech", "content": "Initech", "url": "https://initech.example"}
		]}`))
	}))
	defer server.Close()

	p, err := NewSearXNGProvider(HTTPConfig{
		Endpoint:   server.URL + "/",
		MaxResults: 2,
		UserAgent:  "sieve-test",
	}, worker.NewLimiter(100, 10))
	if err != nil {
		t.Fatalf("NewSearXNGProvider: %v", err)
	}

	results, err := p.Search(context.Background(), "companies based in France")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results (capped, empty skipped), got %d", len(results))
	}
	if results[0].Snippet != "Acme SA is based in Paris & Lyon" {
		t.Errorf("Snippet not cleaned: %q", results[0].Snippet)
	}
	if results[1].Title != "Globex" {
		t.Errorf("Unexpected second result %+v", results[1])
	}
}

func TestSearXNGProvider_Errors(t *testing.T) {
	if _, err := NewSearXNGProvider(HTTPConfig{}, nil); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("Expected ErrNoEndpoint, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := NewSearXNGProvider(HTTPConfig{Endpoint: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewSearXNGProvider: %v", err)
	}
	if _, err := p.Search(context.Background(), "q"); err == nil {
		t.Error("Expected error on 429")
	}
}

func TestWikipediaProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/w/api.php" || r.URL.Query().Get("srsearch") != "Acme" {
			t.Errorf("Unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"query": {"search": [
			{"title": "Acme SA", "snippet": "<span class=\"searchmatch\">Acme</span> SA is a French company", "pageid": 1}
		]}}`))
	}))
	defer server.Close()

	p := NewWikipediaProvider(HTTPConfig{Endpoint: server.URL}, nil)
	results, err := p.Search(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Snippet != "Acme SA is a French company" {
		t.Errorf("Unexpected snippet %q", results[0].Snippet)
	}
	if results[0].URL != server.URL+"/wiki/Acme_SA" {
		t.Errorf("Unexpected URL %q", results[0].URL)
	}
}

func TestCachedProvider(t *testing.T) {
	var calls atomic.Int32
	inner := ProviderFunc(func(ctx context.Context, query string) ([]Result, error) {
		calls.Add(1)
		if query == "fail" {
			return nil, errors.New("boom")
		}
		return []Result{{Title: query, URL: "https://example.com"}}, nil
	})

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewCachedProvider(inner, c, "scope", time.Minute)

	for i := 0; i < 3; i++ {
		results, err := p.Search(context.Background(), "Acme")
		if err != nil || len(results) != 1 || results[0].Title != "Acme" {
			t.Fatalf("unexpected result %v, %v", results, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 inner call, got %d", calls.Load())
	}

	// Errors are not cached
	_, _ = p.Search(context.Background(), "fail")
	_, _ = p.Search(context.Background(), "fail")
	if calls.Load() != 3 {
		t.Errorf("Expected errors to bypass the cache, got %d calls", calls.Load())
	}

	// Nil cache passes through
	p = NewCachedProvider(inner, nil, "scope", time.Minute)
	if _, err := p.Search(context.Background(), "Acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCleanSnippet(t *testing.T) {
	tests := map[string]string{
		"plain   text\n here":                       "plain text here",
		"<b>Acme</b> &amp; Co":                      "Acme & Co",
		"a<br>b":                                    "a b",
		"<script>alert(1)</script>visible":          "visible",
		"Caf&eacute; <span class=\"x\">Lyon</span>": "Café Lyon",
	}
	for in, want := range tests {
		if got := CleanSnippet(in); got != want {
			t.Errorf("CleanSnippet(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifySource(t *testing.T) {
	tests := []struct {
		url  string
		want model.SourceKind
	}{
		{"https://en.wikipedia.org/wiki/Acme", model.SourceEncyclopedia},
		{"https://www.britannica.com/topic/acme", model.SourceEncyclopedia},
		{"https://www.sec.gov/cgi-bin/browse-edgar", model.SourceOfficial},
		{"https://data.gouv.fr/datasets/x", model.SourceOfficial},
		{"https://www.legislation.gov.uk/ukpga/1998/42", model.SourceOfficial},
		{"https://arxiv.org/abs/1234.5678", model.SourceAcademic},
		{"https://www.ox.ac.uk/research", model.SourceAcademic},
		{"https://cs.stanford.edu/people", model.SourceAcademic},
		{"https://www.reuters.com/business/acme", model.SourceNews},
		{"https://acme.example/press/2020-results", model.SourceNews},
		{"https://acme.example/about", model.SourceWeb},
		{"not a url", model.SourceWeb},
	}
	for _, tt := range tests {
		if got := ClassifySource(tt.url); got != tt.want {
			t.Errorf("ClassifySource(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestSourceClassifier_Overrides(t *testing.T) {
	c := NewSourceClassifier(map[string]string{"acme.example": "official", "odd.example": "bogus"})
	if got := c.Classify("https://investors.acme.example/filings"); got != model.SourceOfficial {
		t.Errorf("expected override to apply to subdomains, got %s", got)
	}
	if got := c.Classify("https://odd.example/"); got != model.SourceWeb {
		t.Errorf("unknown kind should map to web, got %s", got)
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{Title: "Acme", Snippet: "French company"},
		{Title: "Globex", Snippet: "US company"},
	}
	got := FormatResults(results, 0)
	want := "[1] Acme\nFrench company\n[2] Globex\nUS company"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := FormatResults(results, 25); got != "[1] Acme\nFrench company" {
		t.Errorf("expected truncation, got %q", got)
	}
}
