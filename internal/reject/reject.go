// Package reject decides whether aggregated evidence rules a candidate out.
package reject

import (
	"fmt"

	"github.com/ppiankov/sieve/internal/model"
)

// Thresholds configures the two rejection rules
type Thresholds struct {
	Negative float64 // Reject when average negative confidence is above this
	Positive float64 // Otherwise reject when average positive confidence is below this
}

// DefaultThresholds returns the dual-confidence defaults
func DefaultThresholds() Thresholds {
	return Thresholds{Negative: 0.25, Positive: 0.4}
}

// ThresholdsFrom reads the thresholds from checker configuration
func ThresholdsFrom(cfg model.CheckerConfig) Thresholds {
	return Thresholds{Negative: cfg.NegativeThreshold, Positive: cfg.PositiveThreshold}
}

// Rule names the rule that fired
type Rule string

const (
	RuleNone                 Rule = ""
	RuleHighNegative         Rule = "high_negative"
	RuleInsufficientPositive Rule = "insufficient_positive"
)

// Decision is the outcome for one constraint
type Decision struct {
	Reject bool
	Rule   Rule
	Reason string
}

// Decide applies the rules in order; the first match wins. Both comparisons
// are strict, so values equal to a threshold do not reject.
func Decide(avgPositive, avgNegative float64, t Thresholds, constraint string) Decision {
	if avgNegative > t.Negative {
		return Decision{
			Reject: true,
			Rule:   RuleHighNegative,
			Reason: fmt.Sprintf("High negative evidence (%.0f%%) for constraint: %s", avgNegative*100, constraint),
		}
	}
	if avgPositive < t.Positive {
		return Decision{
			Reject: true,
			Rule:   RuleInsufficientPositive,
			Reason: fmt.Sprintf("Insufficient positive evidence (%.0f%%) for constraint: %s", avgPositive*100, constraint),
		}
	}
	return Decision{}
}
