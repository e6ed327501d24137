// Package resolve runs a full resolution: rank constraints, narrow the
// candidate pool, relax when the pool is too small, verify every survivor
// through the evaluation queue, then prune and pick the answer.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/checker"
	"github.com/ppiankov/sieve/internal/diversity"
	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/narrow"
	"github.com/ppiankov/sieve/internal/rank"
	"github.com/ppiankov/sieve/internal/relax"
	"github.com/ppiankov/sieve/internal/search"
)

// Option configures a resolve run
type Option func(*options)

type options struct {
	logger     *slog.Logger
	cache      cache.Cache
	gatherer   evidence.Gatherer
	classifier *search.SourceClassifier
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCache memoises evidence per (candidate, constraint) across runs
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithGatherer replaces the search-backed evidence gatherer
func WithGatherer(g evidence.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// WithSourceClassifier sets the classifier used to tag evidence sources
func WithSourceClassifier(c *search.SourceClassifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// Resolve answers query by finding the candidate that best satisfies
// constraints. Only contract violations are returned as errors: a missing
// oracle or search provider, an invalid config, or a malformed constraint.
// Operational failures and timeouts reduce confidence or yield a partial
// resolution instead.
func Resolve(ctx context.Context, query string, constraints []model.Constraint, cfg *model.Config,
	oracle llm.Oracle, provider search.Provider, opts ...Option) (*model.Resolution, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	if provider == nil {
		return nil, ErrSearchRequired
	}
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(constraints) == 0 {
		return nil, ErrNoConstraints
	}

	normalized := make([]model.Constraint, len(constraints))
	for i, c := range constraints {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		normalized[i] = c.Normalize()
	}

	o := &options{logger: slog.Default().With("component", "resolve")}
	for _, opt := range opts {
		opt(o)
	}

	started := time.Now()
	res := &model.Resolution{
		RunID:              uuid.NewString(),
		Query:              query,
		StartedAt:          started,
		Candidates:         []*model.Candidate{},
		RejectedCandidates: []*model.Candidate{},
	}
	logger := o.logger.With("run_id", res.RunID)

	if cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
	}

	controller, err := narrow.NewController(oracle, provider, cfg.Narrowing,
		narrow.WithBatchSize(cfg.Concurrency.BatchSize),
		narrow.WithFilterWorkers(cfg.Concurrency.FilterWorkers),
		narrow.WithLogger(logger.With("component", "narrow")),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("resolving", "query", query, "constraints", len(normalized), "variant", cfg.Checker.Variant)
	narrowed := controller.Narrow(ctx, query, rank.Rank(normalized))
	res.StageHistory = narrowed.Stages
	pool, active := narrowed.Pool, normalized

	if cfg.Relaxation.Enabled && len(pool) < cfg.Relaxation.TargetCount && ctx.Err() == nil {
		if relaxed, ok := tryRelaxed(ctx, controller, query, normalized, cfg.Relaxation, logger); ok {
			res.StageHistory = appendRelaxedStages(res.StageHistory, relaxed.result.Stages)
			res.RelaxedConstraints = relaxed.set.Constraints
			pool, active = relaxed.result.Pool, relaxed.set.Constraints
		}
	}

	chk, err := newChecker(cfg, oracle, provider, o, logger)
	if err != nil {
		return nil, err
	}

	evaluated, complete := evaluate(ctx, chk, query, pool, active, cfg.EvaluationTimeout, logger)
	res.Partial = !complete

	seen := make(map[*model.Candidate]bool, len(evaluated))
	accepted := make([]*model.Candidate, 0, len(evaluated))
	for _, cand := range evaluated {
		seen[cand] = true
		if cand.ShouldReject {
			res.RejectedCandidates = append(res.RejectedCandidates, cand)
		} else {
			accepted = append(accepted, cand)
		}
	}
	for _, cand := range pool {
		if !seen[cand] {
			res.Unverified = append(res.Unverified, cand.Name)
		}
	}

	res.Candidates = diversity.Prune(accepted, cfg.Diversity)
	pickAnswer(res, cfg.Checker.MinAcceptScore)

	if ctx.Err() != nil {
		res.Partial = true
	}
	res.Duration = time.Since(started)
	logger.Info("resolution complete",
		"answer", res.Answer,
		"score", res.Score,
		"accepted", len(res.Candidates),
		"rejected", len(res.RejectedCandidates),
		"unverified", len(res.Unverified),
		"partial", res.Partial,
		"duration", res.Duration,
	)
	return res, nil
}

type relaxedRun struct {
	set    relax.Set
	result narrow.Result
}

// tryRelaxed narrows with each relaxed set in turn and returns the first one
// whose pool reaches the target size
func tryRelaxed(ctx context.Context, controller *narrow.Controller, query string, constraints []model.Constraint,
	cfg model.RelaxationConfig, logger *slog.Logger) (relaxedRun, bool) {
	for i, set := range relax.Sets(constraints, cfg) {
		if ctx.Err() != nil {
			break
		}
		result := controller.Narrow(ctx, query, rank.Rank(set.Constraints))
		logger.Debug("tried relaxed set", "index", i, "kind", set.Kind, "relaxed", set.Relaxed, "pool", len(result.Pool))
		if len(result.Pool) >= cfg.TargetCount {
			logger.Info("adopted relaxed constraints", "kind", set.Kind, "relaxed", set.Relaxed, "pool", len(result.Pool))
			return relaxedRun{set: set, result: result}, true
		}
	}
	return relaxedRun{}, false
}

func newChecker(cfg *model.Config, oracle llm.Oracle, provider search.Provider, o *options, logger *slog.Logger) (checker.Checker, error) {
	gatherer := o.gatherer
	if gatherer == nil {
		analyzer, err := evidence.NewAnalyzer(oracle, evidence.WithAnalyzerLogger(logger.With("component", "evidence-analyzer")))
		if err != nil {
			return nil, err
		}
		gopts := []evidence.GathererOption{
			evidence.WithCache(o.cache, cfg.Cache.TTL),
			evidence.WithEvidencePerConstraint(cfg.Checker.EvidencePerConstraint),
			evidence.WithBatchSize(cfg.Concurrency.BatchSize),
			evidence.WithRephraser(oracle),
			evidence.WithGathererLogger(logger.With("component", "evidence-gatherer")),
		}
		if o.classifier != nil {
			gopts = append(gopts, evidence.WithSourceClassifier(o.classifier))
		}
		sg, err := evidence.NewSearchGatherer(provider, analyzer, gopts...)
		if err != nil {
			return nil, err
		}
		gatherer = sg
	}
	return checker.New(cfg.Checker, gatherer,
		checker.WithOracle(oracle),
		checker.WithLogger(logger.With("component", "checker")),
	)
}

// evaluate verifies the pool through the evaluation queue. Candidates not
// finished within timeout are left out of the returned slice.
func evaluate(ctx context.Context, chk checker.Checker, query string, pool []*model.Candidate,
	constraints []model.Constraint, timeout time.Duration, logger *slog.Logger) ([]*model.Candidate, bool) {
	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := NewEvaluationQueue(evalCtx, func(ctx context.Context, cand *model.Candidate) {
		r := chk.Check(ctx, query, cand, constraints)
		if ctx.Err() != nil {
			return
		}
		checker.Apply(cand, r)
		logger.Debug("candidate evaluated", "candidate", cand.Name, "score", cand.Score, "rejected", cand.ShouldReject)
	}, len(pool))

	for _, cand := range pool {
		if err := queue.Submit(cand); err != nil {
			break
		}
	}
	queue.Close()

	evaluated, complete := queue.Wait(timeout)
	if !complete {
		logger.Warn("evaluation timed out, returning partial results", "evaluated", len(evaluated), "pool", len(pool))
	}
	return evaluated, complete
}

// appendRelaxedStages continues the stage numbering of history and marks the
// appended stages as relaxed
func appendRelaxedStages(history, relaxed []model.StageResult) []model.StageResult {
	offset := len(history)
	for _, stage := range relaxed {
		stage.StageIndex += offset
		stage.Relaxed = true
		history = append(history, stage)
	}
	return history
}

// pickAnswer sets the best candidate. A best score below minScore gives an
// uncertain answer.
func pickAnswer(res *model.Resolution, minScore float64) {
	res.Answer = model.UncertainAnswer
	res.Uncertain = true
	if len(res.Candidates) == 0 {
		return
	}

	best := res.Candidates[0]
	res.BestCandidate = best
	res.Score = best.Score
	if best.Score >= minScore {
		res.Answer = best.Name
		res.Uncertain = false
	}
}
