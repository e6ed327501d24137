package checker

import (
	"context"
	"log/slog"

	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/reject"
)

// DualConfidence scores each constraint from positive, negative and
// uncertainty evidence, re-gathering while evidence stays ambiguous.
type DualConfidence struct {
	cfg      model.CheckerConfig
	gatherer evidence.Gatherer
	logger   *slog.Logger
}

// Check evaluates constraints in order and stops at the first rejection
func (d *DualConfidence) Check(ctx context.Context, query string, cand *model.Candidate, constraints []model.Constraint) Result {
	thresholds := reject.ThresholdsFrom(d.cfg)
	result := Result{Breakdown: make([]ConstraintResult, 0, len(constraints))}

	var weighted, totalWeight float64
	for _, c := range constraints {
		if ctx.Err() != nil {
			break
		}

		items, reevaluations, decision := d.evaluate(ctx, cand.Name, c, thresholds)
		score := evidence.EvaluateEvidenceList(items, d.cfg.UncertaintyPenalty, d.cfg.NegativeWeight)
		cr := record(cand, c, items, score, reevaluations)
		cr.Satisfied = !decision.Reject
		result.Breakdown = append(result.Breakdown, cr)

		if decision.Reject {
			d.logger.Debug("candidate rejected", "candidate", cand.Name, "reason", decision.Reason)
			result.ShouldReject = true
			result.Reason = decision.Reason
			result.Score = 0
			return result
		}

		weighted += score * c.Weight
		totalWeight += c.Weight
	}

	if totalWeight > 0 {
		result.Score = weighted / totalWeight
	}
	return result
}

// evaluate gathers evidence for one constraint. After each round the
// uncertainty check runs first: when uncertainty is above the threshold and
// rounds remain, fresh evidence is gathered. Only high negative evidence
// preempts that, since weak positive evidence is what uncertainty looks like.
// The rejection rules then apply to the final averages. Constraints with no
// evidence at all are never rejected.
func (d *DualConfidence) evaluate(ctx context.Context, name string, c model.Constraint, t reject.Thresholds) ([]model.Evidence, int, reject.Decision) {
	items := d.gatherer.Gather(ctx, name, c, 0)
	reevaluations := 0

	for {
		pos, neg, unc := evidence.Averages(items)
		var decision reject.Decision
		if len(items) > 0 {
			decision = reject.Decide(pos, neg, t, label(c))
		}

		if unc > d.cfg.UncertaintyThreshold && reevaluations < d.cfg.MaxReevaluations &&
			decision.Rule != reject.RuleHighNegative && ctx.Err() == nil {
			reevaluations++
			d.logger.Debug("re-evaluating uncertain constraint", "candidate", name, "constraint", c.ID, "uncertainty", unc, "round", reevaluations)
			items = append(items, d.gatherer.Gather(ctx, name, c, reevaluations)...)
			continue
		}
		return items, reevaluations, decision
	}
}
