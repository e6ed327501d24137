package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/resolve"
	"github.com/ppiankov/sieve/internal/search"
)

// engine holds the oracle, search provider and cache shared by every
// resolution of one command
type engine struct {
	cfg        *model.Config
	oracle     llm.Provider
	search     search.Provider
	cache      cache.Cache
	classifier *search.SourceClassifier
}

func newEngine(cfg *model.Config) (*engine, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	oracle, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.Search))
	if err != nil {
		closeCache(c)
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	provider, err := search.NewProvider(cfg.Search, c, cfg.Cache.TTL)
	if err != nil {
		closeCache(c)
		return nil, fmt.Errorf("create search provider: %w", err)
	}

	return &engine{
		cfg:        cfg,
		oracle:     oracle,
		search:     provider,
		cache:      c,
		classifier: search.NewSourceClassifier(nil),
	}, nil
}

func (e *engine) resolve(ctx context.Context, job Job) (*model.Resolution, error) {
	return resolve.Resolve(ctx, job.Query, job.Constraints, e.cfg, e.oracle, e.search,
		resolve.WithCache(e.cache),
		resolve.WithSourceClassifier(e.classifier),
	)
}

func (e *engine) Close() error {
	return closeCache(e.cache)
}

func closeCache(c cache.Cache) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
