// Package rank orders constraints by how strongly they narrow the candidate space.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/sieve/internal/model"
)

// Base points per constraint type. Types not listed get defaultPoints.
var typePoints = map[model.ConstraintType]int{
	model.ConstraintStatistic: 10,
	model.ConstraintEvent:     8,
	model.ConstraintLocation:  6,
	model.ConstraintProperty:  4,
}

const (
	defaultPoints    = 2
	digitBonus       = 5
	wordyBonus       = 3
	specificityBonus = 2
	wordyThreshold   = 3
)

var specificityMarkers = []string{"exact", "only", "must"}

// Restrictiveness scores a single constraint. Higher means more restrictive.
func Restrictiveness(c model.Constraint) int {
	points, ok := typePoints[c.Type]
	if !ok {
		points = defaultPoints
	}

	text := c.Value
	if text == "" {
		text = c.Description
	}
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		points += digitBonus
	}
	if len(strings.Fields(text)) > wordyThreshold {
		points += wordyBonus
	}
	lower := strings.ToLower(text)
	for _, marker := range specificityMarkers {
		if strings.Contains(lower, marker) {
			points += specificityBonus
			break
		}
	}
	return points
}

// Rank returns a copy of constraints ordered most restrictive first.
// Ties keep their original order.
func Rank(constraints []model.Constraint) []model.Constraint {
	ranked := make([]model.Constraint, len(constraints))
	copy(ranked, constraints)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Restrictiveness(ranked[i]) > Restrictiveness(ranked[j])
	})
	return ranked
}
