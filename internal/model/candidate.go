package model

import (
	"sort"
	"strings"
	"unicode"
)

// CandidateConstraintScore aggregates all evidence for one (candidate, constraint) pair.
// It is recomputed whenever new evidence arrives; the last value wins.
type CandidateConstraintScore struct {
	ConstraintID      string     `json:"constraint_id"`
	Score             float64    `json:"score"`       // Combined scalar in [0,1]
	Positive          float64    `json:"positive"`    // Average positive confidence
	Negative          float64    `json:"negative"`    // Average negative confidence
	Uncertainty       float64    `json:"uncertainty"` // Average uncertainty
	ReevaluationCount int        `json:"reevaluation_count"`
	Evidence          []Evidence `json:"evidence,omitempty"`
}

// Candidate is an entity that may answer the query.
// Candidates are never deleted, only filtered out of the active working set.
type Candidate struct {
	Name            string                               `json:"name"`
	DiscoveredBy    string                               `json:"discovered_by,omitempty"` // Query that surfaced the candidate
	DiscoverySource string                               `json:"discovery_source,omitempty"`
	Evidence        map[string]*CandidateConstraintScore `json:"evidence"` // Keyed by constraint ID
	Score           float64                              `json:"score"`
	ShouldReject    bool                                 `json:"should_reject"`
	RejectionReason string                               `json:"rejection_reason,omitempty"`
	Verified        bool                                 `json:"verified"` // Set once a checker has evaluated the candidate
}

// NewCandidate creates a candidate at discovery time
func NewCandidate(name, discoveredBy, source string) *Candidate {
	return &Candidate{
		Name:            strings.TrimSpace(name),
		DiscoveredBy:    discoveredBy,
		DiscoverySource: source,
		Evidence:        make(map[string]*CandidateConstraintScore),
	}
}

// Key returns the normalized name used for de-duplication
func (c *Candidate) Key() string {
	return NormalizeName(c.Name)
}

// SetConstraintScore records (or replaces) the aggregate for one constraint
func (c *Candidate) SetConstraintScore(s *CandidateConstraintScore) {
	if c.Evidence == nil {
		c.Evidence = make(map[string]*CandidateConstraintScore)
	}
	c.Evidence[s.ConstraintID] = s
}

// Reject marks the candidate as rejected with a reason
func (c *Candidate) Reject(reason string) {
	c.ShouldReject = true
	c.RejectionReason = reason
	c.Score = 0
}

// Sources returns the distinct evidence sources, sorted
func (c *Candidate) Sources() []string {
	seen := make(map[string]bool)
	if c.DiscoverySource != "" {
		seen[c.DiscoverySource] = true
	}
	for _, s := range c.Evidence {
		for _, e := range s.Evidence {
			if e.Source != "" {
				seen[e.Source] = true
			}
		}
	}
	return sortedKeys(seen)
}

// SourceKinds returns the distinct evidence source kinds
func (c *Candidate) SourceKinds() []SourceKind {
	seen := make(map[string]bool)
	for _, s := range c.Evidence {
		for _, e := range s.Evidence {
			if e.Kind != "" {
				seen[string(e.Kind)] = true
			}
		}
	}
	keys := sortedKeys(seen)
	kinds := make([]SourceKind, len(keys))
	for i, k := range keys {
		kinds[i] = SourceKind(k)
	}
	return kinds
}

// CoveredConstraints returns the IDs of constraints that have at least one evidence item
func (c *Candidate) CoveredConstraints() []string {
	seen := make(map[string]bool)
	for id, s := range c.Evidence {
		if len(s.Evidence) > 0 {
			seen[id] = true
		}
	}
	return sortedKeys(seen)
}

// PositiveConfidences returns every positive confidence across all evidence
func (c *Candidate) PositiveConfidences() []float64 {
	var out []float64
	for _, id := range sortedScoreKeys(c.Evidence) {
		for _, e := range c.Evidence[id].Evidence {
			out = append(out, e.Positive)
		}
	}
	return out
}

// NormalizeName lowercases, strips punctuation and collapses whitespace
func NormalizeName(name string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedScoreKeys(m map[string]*CandidateConstraintScore) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortCandidates orders candidates by score descending. The sort is stable so
// that discovery order breaks ties.
func SortCandidates(cands []*Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}
