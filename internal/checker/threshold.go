package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/model"
)

// Threshold marks each constraint satisfied or not against one cutoff and
// scores the candidate by the fraction satisfied.
type Threshold struct {
	cfg      model.CheckerConfig
	gatherer evidence.Gatherer
	logger   *slog.Logger
}

// Check evaluates every constraint
func (t *Threshold) Check(ctx context.Context, query string, cand *model.Candidate, constraints []model.Constraint) Result {
	result := Result{Breakdown: make([]ConstraintResult, 0, len(constraints))}
	if len(constraints) == 0 {
		return result
	}

	satisfied := 0
	for _, c := range constraints {
		var items []model.Evidence
		if ctx.Err() == nil {
			items = t.gatherer.Gather(ctx, cand.Name, c, 0)
		}

		score := 0.0
		if len(items) > 0 {
			score = evidence.EvaluateEvidenceList(items, t.cfg.UncertaintyPenalty, t.cfg.NegativeWeight)
		}
		cr := record(cand, c, items, score, 0)
		cr.Satisfied = len(items) > 0 && score >= t.cfg.SatisfactionThreshold
		if cr.Satisfied {
			satisfied++
		}
		result.Breakdown = append(result.Breakdown, cr)
	}

	rate := float64(satisfied) / float64(len(constraints))
	result.Score = rate
	if rate < t.cfg.RequiredSatisfactionRate {
		result.ShouldReject = true
		result.Reason = fmt.Sprintf("Only %d of %d constraints satisfied (%.0f%% < %.0f%%)",
			satisfied, len(constraints), rate*100, t.cfg.RequiredSatisfactionRate*100)
		t.logger.Debug("candidate rejected", "candidate", cand.Name, "reason", result.Reason)
	}
	return result
}
