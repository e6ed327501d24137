// Package diversity bounds the candidate set while keeping a spread of
// sources and evidence types.
package diversity

import (
	"sort"

	"github.com/ppiankov/sieve/internal/model"
)

// Score is a candidate's diversity contribution in [0,1]: the mean of its
// source ratio against cfg.MinSourceDiversity, its share of known source
// kinds, and a balance term that falls as positive confidences drift from
// cfg.TargetConfidence.
func Score(c *model.Candidate, cfg model.DiversityConfig) float64 {
	sourceRatio := 0.0
	if n := len(c.Sources()); n > 0 {
		target := cfg.MinSourceDiversity
		if target <= 0 {
			target = 1
		}
		sourceRatio = min(float64(n)/float64(target), 1)
	}

	kindRatio := float64(len(c.SourceKinds())) / float64(len(model.AllSourceKinds))

	balance := 0.0
	if confs := c.PositiveConfidences(); len(confs) > 0 {
		var sum float64
		for _, p := range confs {
			d := p - cfg.TargetConfidence
			sum += d * d
		}
		balance = 1 / (1 + sum/float64(len(confs)))
	}

	return model.Clamp01((sourceRatio + kindRatio + balance) / 3)
}

// Blended mixes the evidence score with the diversity score
func Blended(c *model.Candidate, cfg model.DiversityConfig) float64 {
	return cfg.EvidenceWeight*c.Score + (1-cfg.EvidenceWeight)*Score(c, cfg)
}

// Prune returns at most cfg.Limit candidates, ordered by blended score. The
// top half of the limit is taken by blended score; remaining slots go first to
// candidates that add an unseen source or constraint coverage, then to the
// highest raw scores. The input slice is not modified.
func Prune(cands []*model.Candidate, cfg model.DiversityConfig) []*model.Candidate {
	blended := make(map[*model.Candidate]float64, len(cands))
	for _, c := range cands {
		blended[c] = Blended(c, cfg)
	}
	byBlended := func(cs []*model.Candidate) {
		sort.SliceStable(cs, func(i, j int) bool { return blended[cs[i]] > blended[cs[j]] })
	}

	out := make([]*model.Candidate, 0, len(cands))
	if cfg.Limit <= 0 || len(cands) <= cfg.Limit {
		out = append(out, cands...)
		byBlended(out)
		return out
	}

	order := append([]*model.Candidate(nil), cands...)
	byBlended(order)

	selected := make(map[*model.Candidate]bool, cfg.Limit)
	sources := make(map[string]bool)
	coverage := make(map[string]bool)
	take := func(c *model.Candidate) {
		selected[c] = true
		out = append(out, c)
		for _, s := range c.Sources() {
			sources[s] = true
		}
		for _, id := range c.CoveredConstraints() {
			coverage[id] = true
		}
	}

	half := max(cfg.Limit/2, 1)
	for _, c := range order[:half] {
		take(c)
	}

	for _, c := range order[half:] {
		if len(out) >= cfg.Limit {
			break
		}
		if addsNew(c.Sources(), sources) || addsNew(c.CoveredConstraints(), coverage) {
			take(c)
		}
	}

	if len(out) < cfg.Limit {
		rest := make([]*model.Candidate, 0, len(cands))
		for _, c := range cands {
			if !selected[c] {
				rest = append(rest, c)
			}
		}
		model.SortCandidates(rest)
		for _, c := range rest[:min(cfg.Limit-len(out), len(rest))] {
			take(c)
		}
	}

	byBlended(out)
	return out
}

func addsNew(items []string, seen map[string]bool) bool {
	for _, it := range items {
		if !seen[it] {
			return true
		}
	}
	return false
}
