package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
)

const prescreenPrompt = `Question: %s
Proposed answer: %s

On a scale of 0 to 100, how plausible is the proposed answer as a direct answer to the question?
Reply with a single number.`

// Prescreen spends one oracle call on a plausibility score before the wrapped
// checker gathers any evidence.
type Prescreen struct {
	next      Checker
	oracle    llm.Oracle
	threshold int
	logger    *slog.Logger
}

// Check rejects implausible candidates, otherwise delegates. An oracle
// failure or unreadable answer lets the candidate through.
func (p *Prescreen) Check(ctx context.Context, query string, cand *model.Candidate, constraints []model.Constraint) Result {
	answer, err := p.oracle.Ask(ctx, fmt.Sprintf(prescreenPrompt, query, cand.Name))
	if err != nil {
		p.logger.Warn("pre-screen oracle call failed, skipping", "candidate", cand.Name, "err", err)
		return p.next.Check(ctx, query, cand, constraints)
	}

	score, ok := llm.ParseScore0to100(answer)
	if !ok {
		p.logger.Debug("unreadable pre-screen answer, skipping", "candidate", cand.Name)
		return p.next.Check(ctx, query, cand, constraints)
	}

	if score < p.threshold {
		return Result{
			ShouldReject: true,
			Reason:       fmt.Sprintf("Failed pre-screen (%d/100)", score),
		}
	}
	return p.next.Check(ctx, query, cand, constraints)
}
