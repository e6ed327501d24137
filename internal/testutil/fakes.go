// Package testutil holds scripted fakes for the oracle and search provider.
package testutil

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/sieve/internal/search"
)

// OracleRoute answers prompts containing every substring in Contains
type OracleRoute struct {
	Contains []string
	Answer   string
	Err      error
}

// FakeOracle answers prompts by substring routing. The first matching route
// wins; unmatched prompts get Default.
type FakeOracle struct {
	Routes  []OracleRoute
	Default string

	mu      sync.Mutex
	prompts []string
}

// Ask implements llm.Oracle
func (o *FakeOracle) Ask(ctx context.Context, prompt string) (string, error) {
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range o.Routes {
		if containsAll(prompt, r.Contains) {
			return r.Answer, r.Err
		}
	}
	return o.Default, nil
}

// Prompts returns every prompt received so far
func (o *FakeOracle) Prompts() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.prompts...)
}

// CountContaining returns how many prompts contained every substring
func (o *FakeOracle) CountContaining(substrings ...string) int {
	n := 0
	for _, p := range o.Prompts() {
		if containsAll(p, substrings) {
			n++
		}
	}
	return n
}

// SearchRoute answers queries containing every substring in Contains
type SearchRoute struct {
	Contains []string
	Results  []search.Result
	Err      error
}

// FakeSearch answers queries by substring routing. Unmatched queries return
// no results.
type FakeSearch struct {
	Routes []SearchRoute

	mu      sync.Mutex
	queries []string
}

// Search implements search.Provider
func (s *FakeSearch) Search(ctx context.Context, query string) ([]search.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range s.Routes {
		if containsAll(query, r.Contains) {
			return append([]search.Result(nil), r.Results...), r.Err
		}
	}
	return nil, nil
}

// Queries returns every query received so far
func (s *FakeSearch) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func containsAll(text string, substrings []string) bool {
	for _, sub := range substrings {
		if !strings.Contains(text, sub) {
			return false
		}
	}
	return true
}

// Scores formats a dual-confidence answer the way the analyzer asks for it
func Scores(positive, negative, uncertainty float64) string {
	var b strings.Builder
	b.WriteString("POSITIVE: ")
	b.WriteString(formatFloat(positive))
	b.WriteString("\nNEGATIVE: ")
	b.WriteString(formatFloat(negative))
	b.WriteString("\nUNCERTAINTY: ")
	b.WriteString(formatFloat(uncertainty))
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
