package relax

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	yearPattern   = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)
)

// Tolerance bands tried for numeric values, narrowest first
var toleranceBands = []float64{0.10, 0.20, 0.50}

// Year windows tried for temporal values, narrowest first
var yearWindows = []int{1, 2, 5}

// Strict comparative wording and its softer replacement
var softenings = []struct{ from, to string }{
	{"exactly", "about"},
	{"the largest", "one of the largest"},
	{"the smallest", "one of the smallest"},
	{"the biggest", "one of the biggest"},
	{"the most", "one of the most"},
	{"the first", "one of the first"},
	{"the oldest", "one of the oldest"},
	{"more than", "around"},
	{"less than", "around"},
	{"at least", "around"},
	{"at most", "around"},
}

var superlatives = []string{
	"largest", "biggest", "smallest", "oldest", "newest", "first", "last",
	"most", "least", "best", "worst", "leading", "top",
}

// Specific nouns and the broader term they generalize to
var generalizations = []struct{ from, to string }{
	{"conglomerate", "large company"},
	{"multinational", "company"},
	{"corporation", "company"},
	{"startup", "company"},
	{"manufacturer", "company"},
	{"university", "institution"},
	{"college", "institution"},
	{"metropolis", "city"},
	{"capital", "city"},
	{"village", "town"},
	{"novelist", "writer"},
	{"poet", "writer"},
	{"physicist", "scientist"},
	{"chemist", "scientist"},
	{"biologist", "scientist"},
	{"sedan", "car"},
}

// Variations returns textual relaxations of one constraint, least relaxed
// first. Types without a variation rule return nil.
func Variations(c model.Constraint) []model.Constraint {
	var out []model.Constraint
	switch c.Type {
	case model.ConstraintStatistic:
		out = statisticVariations(c)
	case model.ConstraintTemporal:
		out = temporalVariations(c)
	case model.ConstraintComparison:
		out = comparisonVariations(c)
	case model.ConstraintProperty:
		out = propertyVariations(c)
	}
	return dedupeVariations(c, out)
}

func statisticVariations(c model.Constraint) []model.Constraint {
	text := c.Text()
	loc := numberPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	raw := text[loc[0]:loc[1]]
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil
	}

	var out []model.Constraint
	for _, band := range toleranceBands {
		lo, hi := n*(1-band), n*(1+band)
		value := fmt.Sprintf("between %s and %s", formatNumber(lo), formatNumber(hi))
		replaced := text[:loc[0]] + value + text[loc[1]:]
		out = append(out, c.WithValue(replaced, replaced))
	}
	approx := text[:loc[0]] + "approximately " + raw + text[loc[1]:]
	out = append(out, c.WithValue(approx, approx))
	return out
}

func temporalVariations(c model.Constraint) []model.Constraint {
	text := c.Text()
	loc := yearPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	year, _ := strconv.Atoi(text[loc[0]:loc[1]])

	var out []model.Constraint
	for _, w := range yearWindows {
		value := fmt.Sprintf("between %d and %d", year-w, year+w)
		replaced := text[:loc[0]] + value + text[loc[1]:]
		out = append(out, c.WithValue(replaced, replaced))
	}
	decade := year / 10 * 10
	decadeText := text[:loc[0]] + fmt.Sprintf("the %ds", decade) + text[loc[1]:]
	out = append(out, c.WithValue(decadeText, decadeText))

	around := text[:loc[0]] + fmt.Sprintf("around %d", year) + text[loc[1]:]
	out = append(out, c.WithValue(around, around))
	return out
}

func comparisonVariations(c model.Constraint) []model.Constraint {
	text := c.Text()
	lower := strings.ToLower(text)

	var out []model.Constraint
	for _, s := range softenings {
		if i := strings.Index(lower, s.from); i >= 0 {
			softened := text[:i] + s.to + text[i+len(s.from):]
			out = append(out, c.WithValue(softened, softened))
			break
		}
	}
	if stripped := stripWords(text, superlatives); stripped != "" && stripped != text {
		out = append(out, c.WithValue(stripped, stripped))
	}
	return out
}

func propertyVariations(c model.Constraint) []model.Constraint {
	text := c.Text()
	lower := strings.ToLower(text)

	var out []model.Constraint
	for _, g := range generalizations {
		if i := strings.Index(lower, g.from); i >= 0 {
			general := text[:i] + g.to + text[i+len(g.from):]
			out = append(out, c.WithValue(general, general))
			break
		}
	}
	if stripped := stripWords(text, superlatives); stripped != "" && stripped != text {
		out = append(out, c.WithValue(stripped, stripped))
	}
	return out
}

// stripWords removes whole words (case-insensitive) and tidies the result
func stripWords(text string, words []string) string {
	drop := make(map[string]bool, len(words))
	for _, w := range words {
		drop[w] = true
	}
	fields := strings.Fields(text)
	kept := fields[:0:0]
	for _, f := range fields {
		if drop[strings.ToLower(strings.Trim(f, ".,;:!?"))] {
			continue
		}
		kept = append(kept, f)
	}
	out := strings.Join(kept, " ")
	out = strings.ReplaceAll(out, "the the ", "the ")
	return strings.TrimSpace(out)
}

func formatNumber(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func dedupeVariations(orig model.Constraint, vs []model.Constraint) []model.Constraint {
	seen := map[string]bool{strings.ToLower(orig.Text()): true}
	out := vs[:0:0]
	for _, v := range vs {
		key := strings.ToLower(v.Text())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
