package narrow

import (
	"strings"
	"unicode"

	"github.com/ppiankov/sieve/internal/model"
)

// Words ignored when matching a constraint value against text
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "has": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "was": true, "were": true, "with": true, "that": true, "which": true,
}

// CoOccurrence is the lexical check used to filter candidates between
// stages. It returns 0 when the name does not appear in text. Otherwise the
// score averages value-term coverage with proximity, where proximity is 1 when
// a value term sits next to the name and falls to 0 at window words away.
func CoOccurrence(text, name, value string, window int) float64 {
	words := tokenize(text)
	nameWords := tokenize(name)
	if len(words) == 0 || len(nameWords) == 0 {
		return 0
	}

	positions := phrasePositions(words, nameWords)
	if len(positions) == 0 {
		return 0
	}

	terms := significantTerms(value)
	if len(terms) == 0 {
		return 0.5
	}

	termPositions := make(map[string][]int, len(terms))
	for i, w := range words {
		if terms[w] {
			termPositions[w] = append(termPositions[w], i)
		}
	}
	coverage := float64(len(termPositions)) / float64(len(terms))

	if window <= 0 {
		window = 20
	}
	best := -1
	for _, p := range positions {
		nameEnd := p + len(nameWords) - 1
		for _, idxs := range termPositions {
			for _, idx := range idxs {
				d := distance(p, nameEnd, idx)
				if best < 0 || d < best {
					best = d
				}
			}
		}
	}

	proximity := 0.0
	if best >= 0 && best <= window {
		proximity = 1 - float64(best-1)/float64(window)
		if best <= 1 {
			proximity = 1
		}
	}
	return model.Clamp01(0.5*coverage + 0.5*proximity)
}

// distance counts words between the name span [start,end] and idx
func distance(start, end, idx int) int {
	switch {
	case idx < start:
		return start - idx
	case idx > end:
		return idx - end
	default:
		return 0
	}
}

func tokenize(text string) []string {
	return strings.Fields(model.NormalizeName(text))
}

func significantTerms(value string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range tokenize(value) {
		if stopwords[w] {
			continue
		}
		if len([]rune(w)) < 3 && strings.IndexFunc(w, unicode.IsDigit) < 0 {
			continue
		}
		terms[w] = true
	}
	return terms
}

func phrasePositions(words, phrase []string) []int {
	var out []int
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out
}
