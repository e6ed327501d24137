// Package relax produces weaker constraint sets when narrowing leaves too few
// candidates.
package relax

import "github.com/ppiankov/sieve/internal/model"

// Priority per constraint type. High values are relaxed last.
var priorities = map[model.ConstraintType]int{
	model.ConstraintNamePattern:  10,
	model.ConstraintExistence:    9,
	model.ConstraintRelationship: 8,
	model.ConstraintLocation:     7,
	model.ConstraintEvent:        6,
	model.ConstraintTemporal:     5,
	model.ConstraintProperty:     4,
	model.ConstraintStatistic:    3,
	model.ConstraintComparison:   1,
}

const defaultPriority = 4

// Priority returns how reluctant the relaxer is to touch a constraint type
func Priority(t model.ConstraintType) int {
	if p, ok := priorities[t]; ok {
		return p
	}
	return defaultPriority
}
