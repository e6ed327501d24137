package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/llm"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/search"
	"github.com/ppiankov/sieve/internal/worker"
)

// Gatherer collects evidence about whether a candidate meets a constraint.
// round 0 is the first look; later rounds must return fresh evidence.
type Gatherer interface {
	Gather(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence
}

// GathererFunc adapts a function to Gatherer
type GathererFunc func(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence

// Gather calls f
func (f GathererFunc) Gather(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence {
	return f(ctx, candidate, c, round)
}

const rephrasePrompt = `Write one web search query that would find evidence on whether "%s" satisfies this condition: %s
Avoid this wording: %s
Reply with the query only.`

// SearchGatherer gathers evidence with a constraint-aware search followed by
// one analyzer call per result.
type SearchGatherer struct {
	search        search.Provider
	analyzer      *Analyzer
	rephraser     llm.Oracle
	cache         cache.Cache
	ttl           time.Duration
	perConstraint int
	batchSize     int
	classifier    *search.SourceClassifier
	logger        *slog.Logger
}

// GathererOption configures a SearchGatherer
type GathererOption func(*SearchGatherer)

// WithCache memoises first-round evidence per (candidate, constraint)
func WithCache(c cache.Cache, ttl time.Duration) GathererOption {
	return func(g *SearchGatherer) {
		g.cache = c
		g.ttl = ttl
	}
}

// WithEvidencePerConstraint caps the results analyzed per round
func WithEvidencePerConstraint(n int) GathererOption {
	return func(g *SearchGatherer) {
		if n > 0 {
			g.perConstraint = n
		}
	}
}

// WithBatchSize bounds concurrent analyzer calls
func WithBatchSize(n int) GathererOption {
	return func(g *SearchGatherer) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithRephraser lets the oracle propose alternative queries for later rounds
func WithRephraser(oracle llm.Oracle) GathererOption {
	return func(g *SearchGatherer) {
		g.rephraser = oracle
	}
}

// WithSourceClassifier replaces the built-in source classifier
func WithSourceClassifier(c *search.SourceClassifier) GathererOption {
	return func(g *SearchGatherer) {
		if c != nil {
			g.classifier = c
		}
	}
}

// WithGathererLogger sets a custom logger
func WithGathererLogger(logger *slog.Logger) GathererOption {
	return func(g *SearchGatherer) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewSearchGatherer creates a gatherer
func NewSearchGatherer(provider search.Provider, analyzer *Analyzer, opts ...GathererOption) (*SearchGatherer, error) {
	if provider == nil {
		return nil, ErrSearchRequired
	}
	if analyzer == nil {
		return nil, ErrAnalyzerRequired
	}

	g := &SearchGatherer{
		search:        provider,
		analyzer:      analyzer,
		perConstraint: 5,
		batchSize:     worker.DefaultBatchSize,
		classifier:    search.NewSourceClassifier(nil),
		logger:        slog.Default().With("component", "evidence-gatherer"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Gather implements Gatherer. Search failures yield no evidence.
func (g *SearchGatherer) Gather(ctx context.Context, candidate string, c model.Constraint, round int) []model.Evidence {
	key := cache.EvidenceKey(candidate, c.Text())
	if round == 0 {
		var cached []model.Evidence
		if cache.GetJSON(g.cache, key, &cached) {
			return cached
		}
	}

	query := g.query(ctx, candidate, c, round)
	results, err := g.search.Search(ctx, query)
	if err != nil {
		g.logger.Warn("evidence search failed", "candidate", candidate, "query", query, "err", err)
		return nil
	}
	if len(results) > g.perConstraint {
		results = results[:g.perConstraint]
	}

	tasks := make([]worker.Task[model.Evidence], len(results))
	for i, r := range results {
		r := r
		tasks[i] = worker.Task[model.Evidence]{
			Name: r.URL,
			Run: func(ctx context.Context) (model.Evidence, error) {
				e := g.analyzer.AnalyzeFor(ctx, candidate, r.Text(), c, r.URL)
				e.Kind = g.classifier.Classify(r.URL)
				return e, nil
			},
		}
	}

	items := make([]model.Evidence, 0, len(tasks))
	for _, res := range worker.Collect(ctx, tasks, g.batchSize) {
		items = append(items, res.Value)
	}

	if round == 0 && len(items) > 0 {
		if err := cache.SetJSON(g.cache, key, items, g.ttl); err != nil {
			g.logger.Warn("evidence cache write failed", "candidate", candidate, "err", err)
		}
	}
	return items
}

// query builds the search query for a round. Round 0 pins the candidate name;
// later rounds rephrase so the search does not return the same page set.
func (g *SearchGatherer) query(ctx context.Context, candidate string, c model.Constraint, round int) string {
	base := fmt.Sprintf("%q %s", candidate, c.Text())
	if round == 0 {
		return base
	}

	if g.rephraser != nil {
		answer, err := g.rephraser.Ask(ctx, fmt.Sprintf(rephrasePrompt, candidate, c.Description, base))
		if err == nil {
			if q := firstLine(answer); q != "" && !strings.EqualFold(q, base) {
				return q
			}
		}
	}
	return FallbackQuery(candidate, c, round)
}

// FallbackQuery is the templated rephrasing used without an oracle
func FallbackQuery(candidate string, c model.Constraint, round int) string {
	switch round {
	case 0:
		return fmt.Sprintf("%q %s", candidate, c.Text())
	case 1:
		if c.Description != "" && c.Description != c.Value {
			return fmt.Sprintf("%s %s", candidate, c.Description)
		}
		return fmt.Sprintf("%s %s", candidate, c.Value)
	default:
		return fmt.Sprintf("%s %s %s", candidate, typeHint(c.Type), c.Text())
	}
}

func typeHint(t model.ConstraintType) string {
	switch t {
	case model.ConstraintLocation:
		return "headquarters location"
	case model.ConstraintTemporal:
		return "date history"
	case model.ConstraintStatistic:
		return "figures statistics"
	case model.ConstraintEvent:
		return "history event"
	case model.ConstraintRelationship:
		return "founders owners"
	case model.ConstraintExistence:
		return "official site"
	default:
		return "facts"
	}
}

func firstLine(s string) string {
	s = llm.StripCodeFence(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
