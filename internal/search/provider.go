package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoEndpoint is returned when a provider has no endpoint configured
var ErrNoEndpoint = errors.New("search endpoint not configured")

// Result is one search hit
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Text joins title and snippet into the text handed to the evidence analyzer
func (r Result) Text() string {
	switch {
	case r.Title == "":
		return r.Snippet
	case r.Snippet == "":
		return r.Title
	default:
		return r.Title + ". " + r.Snippet
	}
}

// Provider runs a web search. Results are finite and not streamed.
// An error or an empty slice both mean "no evidence".
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, query string) ([]Result, error)

// Search calls f
func (f ProviderFunc) Search(ctx context.Context, query string) ([]Result, error) {
	return f(ctx, query)
}

// FormatResults renders results as a numbered block for oracle prompts
func FormatResults(results []Result, maxChars int) string {
	var b strings.Builder
	for i, r := range results {
		entry := fmt.Sprintf("[%d] %s\n%s\n", i+1, r.Title, r.Snippet)
		if maxChars > 0 && b.Len()+len(entry) > maxChars {
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimSpace(b.String())
}
