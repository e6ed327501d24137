package diversity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sieve/internal/model"
)

func candidate(name string, score float64, sources ...string) *model.Candidate {
	c := model.NewCandidate(name, "", "")
	c.Score = score
	items := make([]model.Evidence, len(sources))
	for i, s := range sources {
		items[i] = model.Evidence{Positive: 0.7, Negative: 0.1, Uncertainty: 0.2, Source: s, Kind: model.SourceWeb}
	}
	c.SetConstraintScore(&model.CandidateConstraintScore{ConstraintID: "c1", Evidence: items})
	return c
}

func TestScore(t *testing.T) {
	cfg := model.DefaultConfig().Diversity

	c := model.NewCandidate("Acme", "", "")
	c.SetConstraintScore(&model.CandidateConstraintScore{ConstraintID: "c1", Evidence: []model.Evidence{
		{Positive: 0.7, Source: "https://a.example", Kind: model.SourceEncyclopedia},
		{Positive: 0.7, Source: "https://b.example", Kind: model.SourceNews},
		{Positive: 0.7, Source: "https://c.example", Kind: model.SourceNews},
	}})
	assert.InDelta(t, (1+2.0/5+1)/3, Score(c, cfg), 1e-9)

	assert.Equal(t, 0.0, Score(model.NewCandidate("Empty", "", ""), cfg))

	extreme := candidate("Extreme", 0.5, "https://a.example")
	extreme.Evidence["c1"].Evidence[0].Positive = 1.0
	assert.Less(t, Score(extreme, cfg), Score(candidate("Balanced", 0.5, "https://a.example"), cfg))
}

func TestBlended(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	c := candidate("Acme", 0.9, "https://a.example")
	assert.InDelta(t, 0.8*0.9+0.2*Score(c, cfg), Blended(c, cfg), 1e-9)
}

func TestPrune_UnderLimit(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	in := []*model.Candidate{candidate("B", 0.4, "s1"), candidate("A", 0.9, "s1")}

	out := Prune(in, cfg)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Name)
	assert.Equal(t, "B", in[0].Name, "input order untouched")
}

func TestPrune_PrefersNewSources(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	cfg.Limit = 4
	in := []*model.Candidate{
		candidate("A", 0.9, "s1"),
		candidate("B", 0.85, "s1"),
		candidate("C", 0.8, "s1"),
		candidate("D", 0.7, "s2"),
		candidate("E", 0.6, "s1"),
		candidate("F", 0.5, "s3"),
	}

	out := Prune(in, cfg)
	assert.Equal(t, []string{"A", "B", "D", "F"}, names(out))
}

func TestPrune_FillsByRawScore(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	cfg.Limit = 4
	in := []*model.Candidate{
		candidate("E", 0.5, "s1"),
		candidate("A", 0.9, "s1"),
		candidate("D", 0.6, "s1"),
		candidate("B", 0.8, "s1"),
		candidate("C", 0.7, "s1"),
	}

	out := Prune(in, cfg)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(out))
}

func TestPrune_OrdersByBlendedScore(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	narrow := candidate("Narrow", 0.80, "s1")
	varied := candidate("Varied", 0.78, "s1", "s2", "s3")
	require.Greater(t, Blended(varied, cfg), Blended(narrow, cfg))

	out := Prune([]*model.Candidate{narrow, varied}, cfg)
	assert.Equal(t, []string{"Varied", "Narrow"}, names(out))

	cfg.Limit = 2
	out = Prune([]*model.Candidate{narrow, candidate("Low", 0.1, "s1"), varied}, cfg)
	assert.Equal(t, []string{"Varied", "Narrow"}, names(out))
}

func TestPrune_NeverEmpty(t *testing.T) {
	cfg := model.DefaultConfig().Diversity
	cfg.Limit = 1
	out := Prune([]*model.Candidate{candidate("A", 0.2, "s1"), candidate("B", 0.1, "s2")}, cfg)
	assert.Len(t, out, 1)

	assert.Empty(t, Prune(nil, cfg))
}

func names(cs []*model.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
