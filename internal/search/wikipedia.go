package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/sieve/internal/worker"
)

const defaultWikipediaEndpoint = "https://en.wikipedia.org"

// WikipediaProvider searches Wikipedia through the MediaWiki search API.
// Useful as a keyless fallback when no SearXNG instance is available.
type WikipediaProvider struct {
	endpoint   string
	maxResults int
	userAgent  string
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *slog.Logger
}

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

// NewWikipediaProvider creates a Wikipedia provider. An empty endpoint means
// English Wikipedia.
func NewWikipediaProvider(cfg HTTPConfig, limiter *worker.Limiter) *WikipediaProvider {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultWikipediaEndpoint
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &WikipediaProvider{
		endpoint:   endpoint,
		maxResults: maxResults,
		userAgent:  cfg.UserAgent,
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		logger:     slog.Default().With("component", "search-wikipedia"),
	}
}

// Search runs one query
func (p *WikipediaProvider) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", p.maxResults))
	params.Set("format", "json")
	reqURL := p.endpoint + "/w/api.php?" + params.Encode()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, reqURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed wikipediaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Query.Search))
	for _, r := range parsed.Query.Search {
		results = append(results, Result{
			Title:   r.Title,
			Snippet: CleanSnippet(r.Snippet),
			URL:     p.endpoint + "/wiki/" + strings.ReplaceAll(r.Title, " ", "_"),
		})
	}

	p.logger.Debug("search", "query", query, "results", len(results))
	return results, nil
}
