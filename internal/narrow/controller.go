// Package narrow applies constraints one at a time, most restrictive first,
// to grow and then shrink a pool of candidates.
//
// Stage 0 seeds the pool from search results for the first constraint, using
// one oracle call per query to pull out entity names. Later stages run a cheap
// lexical check per candidate and keep those that pass. Narrowing stops when the
// pool is small enough or constraints run out, and backtracks one stage when a
// filter would empty the pool.
package narrow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/search"
	"github.com/ppiankov/sieve/internal/worker"
)

// neutralConfidence is assigned when the cheap check has nothing to read
const neutralConfidence = 0.5

// Result is the outcome of one narrowing run
type Result struct {
	Pool        []*model.Candidate
	Stages      []model.StageResult
	Queries     []string
	Backtracked bool
}

// Controller runs progressive narrowing
type Controller struct {
	oracle    llm.Oracle
	search    search.Provider
	cfg       model.NarrowingConfig
	batchSize int
	workers   int
	logger    *slog.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithBatchSize bounds concurrent seed searches
func WithBatchSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithFilterWorkers sets the size of the filter-stage goroutine pool
func WithFilterWorkers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a narrowing controller
func NewController(oracle llm.Oracle, provider search.Provider, cfg model.NarrowingConfig, opts ...Option) (*Controller, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	if provider == nil {
		return nil, ErrSearchRequired
	}

	c := &Controller{
		oracle:    oracle,
		search:    provider,
		cfg:       cfg,
		batchSize: worker.DefaultBatchSize,
		workers:   worker.DefaultBatchSize,
		logger:    slog.Default().With("component", "narrow"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Narrow runs the stages over ranked constraints. query is the user's
// question and only steers candidate extraction. The returned pool is empty
// only when the seed stage found nothing.
func (c *Controller) Narrow(ctx context.Context, query string, ranked []model.Constraint) Result {
	var res Result
	if len(ranked) == 0 {
		return res
	}

	pool, queries := c.seed(ctx, query, ranked[0])
	res.Queries = append(res.Queries, queries...)
	res.Stages = append(res.Stages, model.StageResult{
		StageIndex:        0,
		ConstraintApplied: ranked[0],
		CandidatesBefore:  []string{},
		CandidatesAfter:   names(pool),
		Queries:           queries,
	})
	c.logger.Info("seed stage complete", "constraint", ranked[0].ID, "candidates", len(pool), "queries", len(queries))

	stages := len(ranked)
	if c.cfg.MaxStages > 0 && c.cfg.MaxStages < stages {
		stages = c.cfg.MaxStages
	}

	for k := 1; k < stages; k++ {
		if len(pool) <= c.cfg.StopPoolSize {
			c.logger.Debug("pool small enough, stopping", "stage", k, "pool", len(pool))
			break
		}
		if ctx.Err() != nil {
			c.logger.Warn("narrowing interrupted", "stage", k, "err", ctx.Err())
			break
		}

		kept, stageQueries := c.filter(ctx, pool, ranked[k])
		res.Queries = append(res.Queries, stageQueries...)
		stage := model.StageResult{
			StageIndex:        k,
			ConstraintApplied: ranked[k],
			CandidatesBefore:  names(pool),
			CandidatesAfter:   names(kept),
			Queries:           stageQueries,
		}

		if len(kept) == 0 {
			stage.Backtracked = true
			res.Stages = append(res.Stages, stage)
			res.Backtracked = true
			c.logger.Info("stage emptied the pool, backtracking", "stage", k, "constraint", ranked[k].ID)
			break
		}

		res.Stages = append(res.Stages, stage)
		c.logger.Info("filter stage complete", "stage", k, "constraint", ranked[k].ID, "before", len(pool), "after", len(kept))
		pool = kept
	}

	if c.cfg.CandidateLimit > 0 && len(pool) > c.cfg.CandidateLimit {
		pool = pool[:c.cfg.CandidateLimit]
	}
	res.Pool = pool
	return res
}

type seedHit struct {
	query   string
	results []search.Result
}

// seed searches every query variant, streaming results into per-query
// extraction calls. Candidates are merged in query order so the first query
// to name an entity owns it.
func (c *Controller) seed(ctx context.Context, query string, first model.Constraint) ([]*model.Candidate, []string) {
	queries := QueryVariants(first, c.cfg.MaxQueryVariants)

	tasks := make([]worker.Task[seedHit], len(queries))
	for i, q := range queries {
		q := q
		tasks[i] = worker.Task[seedHit]{
			Name: q,
			Run: func(ctx context.Context) (seedHit, error) {
				results, err := c.search.Search(ctx, q)
				return seedHit{query: q, results: results}, err
			},
		}
	}

	extracted := make([][]*model.Candidate, len(queries))
	for r := range worker.Stream(ctx, tasks, c.batchSize) {
		if r.Err != nil {
			c.logger.Warn("seed search failed", "query", r.Name, "err", r.Err)
			continue
		}
		if len(r.Value.results) == 0 {
			continue
		}
		extracted[r.Index] = c.extract(ctx, query, r.Value)
	}

	seen := make(map[string]bool)
	var pool []*model.Candidate
	for _, batch := range extracted {
		for _, cand := range batch {
			key := cand.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			pool = append(pool, cand)
			if c.cfg.MaxSeedCandidates > 0 && len(pool) >= c.cfg.MaxSeedCandidates {
				return pool, queries
			}
		}
	}
	return pool, queries
}

// filter runs the cheap check for every candidate on the ants pool. A
// candidate with no readable evidence scores neutral and is kept.
func (c *Controller) filter(ctx context.Context, pool []*model.Candidate, constraint model.Constraint) ([]*model.Candidate, []string) {
	queries := make([]string, len(pool))
	scores := make([]float64, len(pool))
	for i, cand := range pool {
		queries[i] = fmt.Sprintf("%q %s", cand.Name, constraint.Text())
		scores[i] = neutralConfidence
	}

	workers, err := ants.NewPool(c.workers)
	if err != nil {
		c.logger.Warn("filter pool unavailable, keeping stage pool", "err", err)
		return pool, queries
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for i, cand := range pool {
		i, cand := i, cand
		wg.Add(1)
		err := workers.Submit(func() {
			defer wg.Done()
			scores[i] = c.cheapCheck(ctx, queries[i], cand.Name, constraint)
		})
		if err != nil {
			wg.Done()
			c.logger.Warn("filter task rejected", "candidate", cand.Name, "err", err)
		}
	}
	wg.Wait()

	kept := make([]*model.Candidate, 0, len(pool))
	for i, cand := range pool {
		if scores[i] >= c.cfg.FilterThreshold {
			kept = append(kept, cand)
		} else {
			c.logger.Debug("candidate filtered", "candidate", cand.Name, "constraint", constraint.ID, "confidence", scores[i])
		}
	}
	return kept, queries
}

// cheapCheck returns the best co-occurrence score across the results for one
// candidate. Search failures and empty results are neutral.
func (c *Controller) cheapCheck(ctx context.Context, query, name string, constraint model.Constraint) float64 {
	results, err := c.search.Search(ctx, query)
	if err != nil {
		c.logger.Debug("filter search failed", "candidate", name, "err", err)
		return neutralConfidence
	}
	if len(results) == 0 {
		return neutralConfidence
	}

	best := 0.0
	for _, r := range results {
		if s := CoOccurrence(r.Text(), name, constraint.Text(), c.cfg.ProximityWindow); s > best {
			best = s
		}
	}
	return best
}

func names(pool []*model.Candidate) []string {
	out := make([]string, len(pool))
	for i, c := range pool {
		out[i] = c.Name
	}
	return out
}

// sourceFor returns the URL of the first result mentioning name, else the
// first result's URL
func sourceFor(name string, results []search.Result) string {
	lower := strings.ToLower(name)
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Text()), lower) {
			return r.URL
		}
	}
	if len(results) > 0 {
		return results[0].URL
	}
	return ""
}
