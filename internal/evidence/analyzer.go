// Package evidence turns search results into dual-confidence evidence.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
)

// maxPromptText bounds the evidence text sent to the oracle (in runes)
const maxPromptText = 2000

const analyzePrompt = `Assess whether the text below shows that the candidate satisfies the constraint.
%s
Constraint: %s
Constraint type: %s
Expected value: %s

Text:
"""
%s
"""

Reply with exactly three lines, each a number between 0 and 1, summing to 1:
POSITIVE: <confidence the text shows the constraint IS met>
NEGATIVE: <confidence the text shows the constraint is NOT met>
UNCERTAINTY: <confidence the text is inconclusive>`

// Analyzer scores raw text against a constraint with one oracle call
type Analyzer struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets a custom logger
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an analyzer backed by oracle
func NewAnalyzer(oracle llm.Oracle, opts ...AnalyzerOption) (*Analyzer, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	a := &Analyzer{
		oracle: oracle,
		logger: slog.Default().With("component", "evidence-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze scores text against c. It never fails: an oracle error or an
// unreadable answer yields the uncertain fallback.
func (a *Analyzer) Analyze(ctx context.Context, text string, c model.Constraint) model.Evidence {
	return a.analyze(ctx, "", text, c, "")
}

// AnalyzeFor scores text about a named candidate and records its source
func (a *Analyzer) AnalyzeFor(ctx context.Context, candidate, text string, c model.Constraint, source string) model.Evidence {
	return a.analyze(ctx, candidate, text, c, source)
}

func (a *Analyzer) analyze(ctx context.Context, candidate, text string, c model.Constraint, source string) model.Evidence {
	candidateLine := ""
	if candidate != "" {
		candidateLine = "\nCandidate: " + candidate
	}
	prompt := fmt.Sprintf(analyzePrompt, candidateLine, c.Description, c.Type, c.Value, truncate(text, maxPromptText))

	answer, err := a.oracle.Ask(ctx, prompt)
	if err != nil {
		a.logger.Warn("oracle call failed, using uncertain evidence", "constraint", c.ID, "err", err)
		return model.UncertainEvidence(source, text)
	}

	pos, neg, unc, ok := ParseScores(answer)
	if !ok {
		a.logger.Debug("unreadable oracle answer, using uncertain evidence", "constraint", c.ID, "answer", truncate(answer, 200))
		return model.UncertainEvidence(source, text)
	}
	return model.NewEvidence(pos, neg, unc, source, text)
}

// ParseScores reads a positive/negative/uncertainty triple from an oracle
// answer. Labelled values are preferred. Otherwise the last three numbers in
// [0,1] are taken in order, then the last three in [0,100], so counts in a
// preamble do not shift the triple. Scale does not matter since NewEvidence
// renormalizes.
func ParseScores(answer string) (positive, negative, uncertainty float64, ok bool) {
	p, okP := llm.ExtractLabeledScore(answer, "positive")
	n, okN := llm.ExtractLabeledScore(answer, "negative")
	u, okU := llm.ExtractLabeledScore(answer, "uncertainty")
	if okP && okN && okU {
		return p, n, u, true
	}

	nums := llm.ExtractNumbers(answer)
	for _, hi := range []float64{1, 100} {
		if in := llm.NumbersInRange(nums, 0, hi); len(in) >= 3 {
			last := in[len(in)-3:]
			return last[0], last[1], last[2], true
		}
	}
	return 0, 0, 0, false
}

// Averages returns the mean confidence triple of items. An empty list is
// fully uncertain.
func Averages(items []model.Evidence) (positive, negative, uncertainty float64) {
	if len(items) == 0 {
		return 0, 0, 1
	}
	for _, e := range items {
		positive += e.Positive
		negative += e.Negative
		uncertainty += e.Uncertainty
	}
	n := float64(len(items))
	return positive / n, negative / n, uncertainty / n
}

// EvaluateEvidenceList collapses the evidence for one constraint into a score:
// avg_pos - avg_neg*negativeWeight - avg_unc*uncertaintyPenalty, clamped to
// [0,1]. No evidence scores 0.5 - uncertaintyPenalty.
func EvaluateEvidenceList(items []model.Evidence, uncertaintyPenalty, negativeWeight float64) float64 {
	if len(items) == 0 {
		return 0.5 - uncertaintyPenalty
	}
	pos, neg, unc := Averages(items)
	return model.Clamp01(pos - neg*negativeWeight - unc*uncertaintyPenalty)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
