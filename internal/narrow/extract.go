package narrow

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/search"
)

const extractPrompt = `Question: %s
Search query: %s

Search results:
%s

Extract the names of specific entities mentioned in these results that could answer the question.
Reply with a JSON array of names only, for example ["First Name", "Second Name"]. Reply [] if there are none.`

// maxResultChars bounds the search text handed to the oracle per query
const maxResultChars = 4000

// maxNameWords drops free-text lines that are clearly not names
const maxNameWords = 8

// extract asks the oracle for candidate names in one query's results. An
// oracle failure yields no candidates for that query.
func (c *Controller) extract(ctx context.Context, question string, hit seedHit) []*model.Candidate {
	prompt := fmt.Sprintf(extractPrompt, question, hit.query, search.FormatResults(hit.results, maxResultChars))
	answer, err := c.oracle.Ask(ctx, prompt)
	if err != nil {
		c.logger.Warn("candidate extraction failed", "query", hit.query, "err", err)
		return nil
	}

	found := ParseNames(answer)
	out := make([]*model.Candidate, 0, len(found))
	for _, name := range found {
		out = append(out, model.NewCandidate(name, hit.query, sourceFor(name, hit.results)))
	}
	return out
}

// ParseNames reads entity names from an oracle answer. A JSON array is
// preferred; otherwise each short line that does not read as prose counts as
// one name.
func ParseNames(answer string) []string {
	if names, ok := llm.ExtractJSONArray(answer); ok {
		return names
	}

	var out []string
	for _, line := range llm.SplitLines(answer) {
		if looksLikeName(line) {
			out = append(out, line)
		}
	}
	return out
}

// proseOpeners start sentences, not names
var proseOpeners = []string{
	"there ", "i ", "i'", "sorry", "unfortunately", "here ", "this ", "these ",
	"it ", "based on", "no ", "none", "n/a", "[]",
}

// looksLikeName rejects refusals and sentences. A trailing period is allowed
// only after a capitalized word, as in "Acme Inc.".
func looksLikeName(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range proseOpeners {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	if strings.Contains(lower, "not found") {
		return false
	}

	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxNameWords {
		return false
	}
	for _, w := range words {
		switch strings.ToLower(strings.Trim(w, ".,;:!?")) {
		case "no", "none", "n/a":
			return false
		}
	}

	switch line[len(line)-1] {
	case '!', '?':
		return false
	case '.':
		last, _ := utf8.DecodeRuneInString(words[len(words)-1])
		return unicode.IsUpper(last)
	}
	return true
}
