package relax

import (
	"sort"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// maxVariationsPerConstraint bounds variation sets per constraint
const maxVariationsPerConstraint = 2

// Kind says how a set was relaxed
type Kind string

const (
	KindVariation    Kind = "variation"     // One constraint reworded more loosely
	KindDrop         Kind = "drop"          // Lowest-priority constraints removed
	KindHighPriority Kind = "high_priority" // Only high-priority constraints kept
)

// Set is one relaxed constraint set
type Set struct {
	Kind        Kind
	Constraints []model.Constraint
	Relaxed     []string // IDs of constraints that were changed or dropped
}

// Sets returns relaxed alternatives to constraints, least relaxed first:
// single-constraint variations, then drops of the 1..MaxDrop lowest-priority
// constraints, then the high-priority-only set. Duplicate sets are removed and
// at most cfg.MaxSets are returned.
func Sets(constraints []model.Constraint, cfg model.RelaxationConfig) []Set {
	if len(constraints) == 0 {
		return nil
	}

	byPriority := make([]int, len(constraints))
	for i := range byPriority {
		byPriority[i] = i
	}
	sort.SliceStable(byPriority, func(a, b int) bool {
		return Priority(constraints[byPriority[a]].Type) < Priority(constraints[byPriority[b]].Type)
	})

	var sets []Set
	for _, i := range byPriority {
		vs := Variations(constraints[i])
		if len(vs) > maxVariationsPerConstraint {
			vs = vs[:maxVariationsPerConstraint]
		}
		for _, v := range vs {
			set := make([]model.Constraint, len(constraints))
			copy(set, constraints)
			set[i] = v
			sets = append(sets, Set{Kind: KindVariation, Constraints: set, Relaxed: []string{v.ID}})
		}
	}

	for k := 1; k <= cfg.MaxDrop && len(constraints)-k >= cfg.MinRemaining; k++ {
		dropped := make(map[int]bool, k)
		ids := make([]string, 0, k)
		for _, i := range byPriority[:k] {
			dropped[i] = true
			ids = append(ids, constraints[i].ID)
		}
		set := make([]model.Constraint, 0, len(constraints)-k)
		for i, c := range constraints {
			if !dropped[i] {
				set = append(set, c)
			}
		}
		sets = append(sets, Set{Kind: KindDrop, Constraints: set, Relaxed: ids})
	}

	var high []model.Constraint
	var lowIDs []string
	for _, c := range constraints {
		if Priority(c.Type) >= cfg.HighPriorityMin {
			high = append(high, c)
		} else {
			lowIDs = append(lowIDs, c.ID)
		}
	}
	if len(high) > 0 && len(high) < len(constraints) {
		sets = append(sets, Set{Kind: KindHighPriority, Constraints: high, Relaxed: lowIDs})
	}

	return dedupe(sets, constraints, cfg.MaxSets)
}

func dedupe(sets []Set, original []model.Constraint, limit int) []Set {
	seen := map[string]bool{signature(original): true}
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		sig := signature(s.Constraints)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func signature(cs []model.Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.ID + "=" + strings.ToLower(c.Text())
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
