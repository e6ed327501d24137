// Package checker evaluates candidates against constraints.
//
// Three variants share one contract and are selected by configuration:
// dual-confidence (graded, with re-evaluation), strict (all-or-nothing) and
// threshold (fraction of constraints satisfied).
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
)

var (
	// ErrGathererRequired is returned when no evidence gatherer is provided
	ErrGathererRequired = errors.New("evidence gatherer is required")

	// ErrUnknownVariant is returned for an unsupported checker variant
	ErrUnknownVariant = errors.New("unknown checker variant")
)

// ConstraintResult is the per-constraint breakdown of a check
type ConstraintResult struct {
	Constraint    model.Constraint
	Score         float64
	Positive      float64
	Negative      float64
	Uncertainty   float64
	EvidenceCount int
	Reevaluations int
	Satisfied     bool
}

// Result is the outcome of checking one candidate
type Result struct {
	Score        float64
	Breakdown    []ConstraintResult
	ShouldReject bool
	Reason       string
}

// Checker evaluates one candidate. Implementations record per-constraint
// evidence on the candidate, so a candidate must only be checked by one
// goroutine at a time.
type Checker interface {
	Check(ctx context.Context, query string, cand *model.Candidate, constraints []model.Constraint) Result
}

// Option configures a checker
type Option func(*options)

type options struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// WithOracle provides the oracle used by the optional pre-screen
func WithOracle(oracle llm.Oracle) Option {
	return func(o *options) {
		o.oracle = oracle
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds the checker selected by cfg.Variant. When the pre-screen is
// enabled and an oracle is given, the checker is wrapped by it.
func New(cfg model.CheckerConfig, gatherer evidence.Gatherer, opts ...Option) (Checker, error) {
	if gatherer == nil {
		return nil, ErrGathererRequired
	}

	o := &options{logger: slog.Default().With("component", "checker")}
	for _, opt := range opts {
		opt(o)
	}

	var c Checker
	switch cfg.Variant {
	case model.VariantDualConfidence, "":
		c = &DualConfidence{cfg: cfg, gatherer: gatherer, logger: o.logger}
	case model.VariantStrict:
		c = &Strict{cfg: cfg, gatherer: gatherer, logger: o.logger}
	case model.VariantThreshold:
		c = &Threshold{cfg: cfg, gatherer: gatherer, logger: o.logger}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, cfg.Variant)
	}

	if cfg.EnablePrescreen && o.oracle != nil {
		c = &Prescreen{next: c, oracle: o.oracle, threshold: cfg.PrescreenThreshold, logger: o.logger}
	}
	return c, nil
}

// Apply writes a result onto the candidate
func Apply(cand *model.Candidate, r Result) {
	cand.Verified = true
	if r.ShouldReject {
		cand.Reject(r.Reason)
		return
	}
	cand.Score = r.Score
}

// record stores the aggregate for one constraint on the candidate
func record(cand *model.Candidate, c model.Constraint, items []model.Evidence, score float64, reevaluations int) ConstraintResult {
	pos, neg, unc := evidence.Averages(items)
	cand.SetConstraintScore(&model.CandidateConstraintScore{
		ConstraintID:      c.ID,
		Score:             score,
		Positive:          pos,
		Negative:          neg,
		Uncertainty:       unc,
		ReevaluationCount: reevaluations,
		Evidence:          items,
	})
	return ConstraintResult{
		Constraint:    c,
		Score:         score,
		Positive:      pos,
		Negative:      neg,
		Uncertainty:   unc,
		EvidenceCount: len(items),
		Reevaluations: reevaluations,
	}
}

func label(c model.Constraint) string {
	if c.Description != "" {
		return c.Description
	}
	return c.Value
}
