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
	"time"

	"github.com/ppiankov/sieve/internal/util"
	"github.com/ppiankov/sieve/internal/worker"
)

// maxResponseBytes bounds a provider response body
const maxResponseBytes = 2 << 20

// HTTPConfig is shared by the HTTP-backed providers
type HTTPConfig struct {
	Endpoint   string
	MaxResults int
	Timeout    time.Duration
	UserAgent  string
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

func newHTTPClient(cfg HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

// SearXNGProvider queries a SearXNG instance through its JSON API
type SearXNGProvider struct {
	endpoint   string
	maxResults int
	userAgent  string
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *slog.Logger
}

type searxngResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
		Engine  string `json:"engine"`
	} `json:"results"`
}

// NewSearXNGProvider creates a SearXNG provider. limiter may be nil.
func NewSearXNGProvider(cfg HTTPConfig, limiter *worker.Limiter) (*SearXNGProvider, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	return &SearXNGProvider{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		maxResults: maxResults,
		userAgent:  cfg.UserAgent,
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		logger:     slog.Default().With("component", "search-searxng"),
	}, nil
}

// Search runs one query
func (p *SearXNGProvider) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	reqURL := p.endpoint + "/search?" + params.Encode()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, reqURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
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

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, min(len(parsed.Results), p.maxResults))
	for _, r := range parsed.Results {
		if len(results) >= p.maxResults {
			break
		}
		if r.URL == "" && r.Content == "" {
			continue
		}
		results = append(results, Result{
			Title:   CleanSnippet(r.Title),
			Snippet: CleanSnippet(r.Content),
			URL:     r.URL,
		})
	}

	p.logger.Debug("search", "query", query, "results", len(results))
	return results, nil
}
