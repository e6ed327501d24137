package model

import (
	"regexp"
	"strings"
)

// Keyword tables for ClassifyConstraintType. Order of evaluation matters: the
// first rule that matches wins, so the more specific shapes are checked first.
var (
	namePatternKeywords = []string{
		"name starts", "name begins", "name ends", "name contains", "starts with",
		"begins with", "ends with", "letter", "letters", "initial", "acronym",
		"spelled", "named after", "rhymes",
	}
	comparisonKeywords = []string{
		"largest", "smallest", "biggest", "highest", "lowest", "most", "least",
		"more than", "less than", "fewer than", "greater than", "larger than",
		"smaller than", "older than", "younger than", "exceeds", "compared to",
		"first", "last", "only one",
	}
	existenceKeywords = []string{
		"exists", "existed", "still exists", "no longer exists", "defunct",
		"still active", "still operating", "is real",
	}
	relationshipKeywords = []string{
		"founded by", "owned by", "married", "son of", "daughter of", "child of",
		"parent", "subsidiary", "acquired by", "member of", "partner", "worked with",
		"related to", "affiliated", "sibling", "brother", "sister",
	}
	eventKeywords = []string{
		"won", "award", "prize", "elected", "launched", "released", "discovered",
		"invented", "merged", "acquired", "crash", "scandal", "attack", "battle",
		"happened", "occurred", "event", "ceremony", "championship", "appointed",
	}
	statisticKeywords = []string{
		"number of", "percent", "%", "million", "billion", "thousand", "population",
		"revenue", "employees", "count", "height", "weight", "length", "area",
		"digits", "average", "total", "rate", "score", "ranked",
	}
	temporalKeywords = []string{
		"year", "century", "decade", "born", "died", "founded in", "established in",
		"since", "before", "after", "during", "between", "january", "february",
		"march", "april", "may", "june", "july", "august", "september", "october",
		"november", "december", "era", "period",
	}
	locationKeywords = []string{
		"located", "based in", "headquartered", "city", "country", "state of",
		"province", "region", "continent", "island", "near", "north", "south",
		"east", "west", "capital", "border", "village", "town",
	}

	yearPattern   = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})s?\b`)
	numberPattern = regexp.MustCompile(`\d`)
)

// ClassifyConstraintType infers a constraint type from free text. It is the only
// place in the codebase that maps text to a ConstraintType; unknown shapes fall
// back to PROPERTY.
func ClassifyConstraintType(text string) ConstraintType {
	lower := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	if strings.TrimSpace(lower) == "" {
		return ConstraintProperty
	}

	switch {
	case containsAny(lower, namePatternKeywords):
		return ConstraintNamePattern
	case containsAny(lower, existenceKeywords):
		return ConstraintExistence
	case containsAny(lower, relationshipKeywords):
		return ConstraintRelationship
	case containsAny(lower, comparisonKeywords):
		return ConstraintComparison
	case containsAny(lower, statisticKeywords):
		return ConstraintStatistic
	case yearPattern.MatchString(lower) || containsAny(lower, temporalKeywords):
		return ConstraintTemporal
	case containsAny(lower, locationKeywords):
		return ConstraintLocation
	case containsAny(lower, eventKeywords):
		return ConstraintEvent
	case numberPattern.MatchString(lower):
		return ConstraintStatistic
	}
	return ConstraintProperty
}

// containsAny matches keywords on word boundaries (keywords with spaces match as phrases)
func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsAny(kw, "%") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if strings.Contains(lower, " "+kw+" ") ||
			strings.Contains(lower, " "+kw+",") ||
			strings.Contains(lower, " "+kw+".") ||
			strings.Contains(lower, " "+kw+"?") {
			return true
		}
	}
	return false
}
