package narrow

import (
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// QueryVariants builds the seed search queries for a constraint: the plain
// text, list phrasings, and type-specific phrasing. Duplicates are removed and
// at most limit variants are returned.
func QueryVariants(c model.Constraint, limit int) []string {
	text := c.Text()
	if text == "" {
		return nil
	}

	variants := []string{
		text,
		"list of " + text,
		"comprehensive list of " + text,
	}
	switch c.Type {
	case model.ConstraintStatistic:
		variants = append(variants, text+" statistics", "ranking "+text)
	case model.ConstraintEvent:
		variants = append(variants, text+" history", "timeline of "+text)
	case model.ConstraintProperty:
		variants = append(variants, "examples of "+text, "notable "+text)
	}

	seen := make(map[string]bool, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
