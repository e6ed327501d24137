package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/sieve/internal/cache"
)

// CachedProvider memoises results per (query, scope) in a TTL cache.
// Errors are never cached. An empty result set is, since it is a valid answer.
type CachedProvider struct {
	inner  Provider
	cache  cache.Cache
	scope  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps inner. scope separates entries of different
// providers or result limits sharing one cache.
func NewCachedProvider(inner Provider, c cache.Cache, scope string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  c,
		scope:  scope,
		ttl:    ttl,
		logger: slog.Default().With("component", "search-cache"),
	}
}

// Search returns cached results when present, else delegates
func (p *CachedProvider) Search(ctx context.Context, query string) ([]Result, error) {
	key := cache.SearchKey(query, p.scope)

	var cached []Result
	if cache.GetJSON(p.cache, key, &cached) {
		p.logger.Debug("cache hit", "query", query)
		return cached, nil
	}

	results, err := p.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []Result{}
	}

	if err := cache.SetJSON(p.cache, key, results, p.ttl); err != nil {
		p.logger.Warn("cache write failed", "query", query, "err", err)
	}
	return results, nil
}
