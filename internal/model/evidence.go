package model

import (
	"math"
	"unicode/utf8"
)

// MaxExcerptLength bounds the excerpt stored on each Evidence (in runes)
const MaxExcerptLength = 500

// Fallback confidence triple used whenever the oracle cannot be read
const (
	FallbackPositive    = 0.1
	FallbackNegative    = 0.1
	FallbackUncertainty = 0.8
)

// sumTolerance is how far the confidence triple may drift from 1.0 before renormalizing
const sumTolerance = 1e-6

// Evidence is one scored observation about whether a candidate meets a constraint.
// Positive, Negative and Uncertainty always sum to 1.0.
type Evidence struct {
	Positive    float64    `json:"positive_confidence"`
	Negative    float64    `json:"negative_confidence"`
	Uncertainty float64    `json:"uncertainty"`
	Source      string     `json:"source,omitempty"`  // Provenance (usually a URL)
	Kind        SourceKind `json:"kind,omitempty"`    // Source classification used for diversity
	Excerpt     string     `json:"excerpt,omitempty"` // Bounded text the scores were read from
}

// SourceKind classifies where a piece of evidence came from
type SourceKind string

const (
	SourceEncyclopedia SourceKind = "encyclopedia" // Wikipedia, Britannica, ...
	SourceOfficial     SourceKind = "official"     // Government, registries, company filings
	SourceAcademic     SourceKind = "academic"     // Universities, journals, preprints
	SourceNews         SourceKind = "news"         // Newspapers and wires
	SourceWeb          SourceKind = "web"          // Everything else
)

// AllSourceKinds lists every source kind
var AllSourceKinds = []SourceKind{SourceEncyclopedia, SourceOfficial, SourceAcademic, SourceNews, SourceWeb}

// NewEvidence builds an Evidence value from a raw confidence triple.
// Negative or NaN components are clamped to zero, the triple is renormalized
// proportionally when it does not sum to 1, and an all-zero triple becomes the
// uncertain fallback.
func NewEvidence(positive, negative, uncertainty float64, source, excerpt string) Evidence {
	p, n, u := clampUnit(positive), clampUnit(negative), clampUnit(uncertainty)
	sum := p + n + u
	switch {
	case sum <= 0:
		p, n, u = FallbackPositive, FallbackNegative, FallbackUncertainty
	case math.Abs(sum-1) > sumTolerance:
		p, n, u = p/sum, n/sum, u/sum
	}
	return Evidence{
		Positive:    p,
		Negative:    n,
		Uncertainty: u,
		Source:      source,
		Excerpt:     TruncateExcerpt(excerpt),
	}
}

// UncertainEvidence returns the skeptical default used on oracle or parse failure
func UncertainEvidence(source, excerpt string) Evidence {
	return NewEvidence(FallbackPositive, FallbackNegative, FallbackUncertainty, source, excerpt)
}

// Sum returns the sum of the confidence triple
func (e Evidence) Sum() float64 {
	return e.Positive + e.Negative + e.Uncertainty
}

// TruncateExcerpt cuts text to MaxExcerptLength runes
func TruncateExcerpt(text string) string {
	if utf8.RuneCountInString(text) <= MaxExcerptLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxExcerptLength])
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return 1
	}
	return v
}

// Clamp01 limits v to [0,1]
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
