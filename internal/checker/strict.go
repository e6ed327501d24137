package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/sieve/internal/evidence"
	"github.com/ppiankov/sieve/internal/model"
)

// Strict passes a candidate only if every constraint clears a high bar.
// The score is 1 or 0.
type Strict struct {
	cfg      model.CheckerConfig
	gatherer evidence.Gatherer
	logger   *slog.Logger
}

// Check evaluates constraints in order and stops at the first failure
func (s *Strict) Check(ctx context.Context, query string, cand *model.Candidate, constraints []model.Constraint) Result {
	result := Result{Breakdown: make([]ConstraintResult, 0, len(constraints))}

	for _, c := range constraints {
		if ctx.Err() != nil {
			result.ShouldReject = true
			result.Reason = "check interrupted before all constraints were verified"
			return result
		}

		items := s.gatherer.Gather(ctx, cand.Name, c, 0)
		score := evidence.EvaluateEvidenceList(items, s.cfg.UncertaintyPenalty, s.cfg.NegativeWeight)
		cr := record(cand, c, items, score, 0)

		threshold := s.cfg.StrictThreshold
		mandatory := true
		if c.Type == model.ConstraintNamePattern {
			threshold = s.cfg.NamePatternThreshold
			mandatory = s.cfg.NamePatternMandatory
		}

		switch {
		case len(items) == 0:
			cr.Satisfied = false
			result.Breakdown = append(result.Breakdown, cr)
			if !mandatory {
				continue
			}
			result.ShouldReject = true
			result.Reason = fmt.Sprintf("No evidence found for constraint: %s", label(c))
			return result
		case score < threshold:
			cr.Satisfied = false
			result.Breakdown = append(result.Breakdown, cr)
			if !mandatory {
				s.logger.Debug("optional name pattern not met", "candidate", cand.Name, "score", score)
				continue
			}
			result.ShouldReject = true
			result.Reason = fmt.Sprintf("Constraint not met (%.0f%% < %.0f%%): %s", score*100, threshold*100, label(c))
			return result
		default:
			cr.Satisfied = true
			result.Breakdown = append(result.Breakdown, cr)
		}
	}

	result.Score = 1
	return result
}
