package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/worker"
)

// NewProvider builds the configured provider, throttled per host and wrapped
// in the cache when c is non-nil.
func NewProvider(cfg model.SearchConfig, c cache.Cache, ttl time.Duration) (Provider, error) {
	httpCfg := HTTPConfig{
		Endpoint:   cfg.Endpoint,
		MaxResults: cfg.MaxResults,
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)

	var (
		provider Provider
		err      error
	)
	switch name := strings.ToLower(cfg.Provider); name {
	case "searxng", "":
		provider, err = NewSearXNGProvider(httpCfg, limiter)
	case "wikipedia":
		provider = NewWikipediaProvider(httpCfg, limiter)
	default:
		return nil, fmt.Errorf("unknown search provider %q (supported: searxng, wikipedia)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if c == nil {
		return provider, nil
	}
	scope := fmt.Sprintf("%s|%s|%d", cfg.Provider, cfg.Endpoint, cfg.MaxResults)
	return NewCachedProvider(provider, c, scope, ttl), nil
}
