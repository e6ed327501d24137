package model

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewEvidence_SumsToOne(t *testing.T) {
	tests := []struct {
		name    string
		p, n, u float64
	}{
		{"already normalized", 0.8, 0.05, 0.15},
		{"over one", 0.9, 0.9, 0.2},
		{"under one", 0.2, 0.1, 0.1},
		{"percent scale", 80, 5, 15},
		{"negative component", -0.5, 0.5, 0.5},
		{"nan component", math.NaN(), 0.3, 0.3},
		{"all zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvidence(tt.p, tt.n, tt.u, "src", "text")
			if math.Abs(e.Sum()-1) > 1e-9 {
				t.Errorf("expected sum 1.0, got %v (%+v)", e.Sum(), e)
			}
			for _, v := range []float64{e.Positive, e.Negative, e.Uncertainty} {
				if v < 0 || v > 1 {
					t.Errorf("component out of range: %v", v)
				}
			}
		})
	}
}

func TestNewEvidence_AllZeroFallsBack(t *testing.T) {
	e := NewEvidence(0, 0, 0, "", "")
	if e.Positive != FallbackPositive || e.Negative != FallbackNegative || e.Uncertainty != FallbackUncertainty {
		t.Errorf("expected uncertain fallback, got %+v", e)
	}
}

func TestNewEvidence_ProportionalRenormalization(t *testing.T) {
	e := NewEvidence(2, 1, 1, "", "")
	if math.Abs(e.Positive-0.5) > 1e-9 || math.Abs(e.Negative-0.25) > 1e-9 {
		t.Errorf("expected 0.5/0.25/0.25, got %+v", e)
	}
}

func TestTruncateExcerpt(t *testing.T) {
	long := strings.Repeat("é", MaxExcerptLength+50)
	got := TruncateExcerpt(long)
	if n := len([]rune(got)); n != MaxExcerptLength {
		t.Errorf("expected %d runes, got %d", MaxExcerptLength, n)
	}
	if TruncateExcerpt("short") != "short" {
		t.Error("short excerpt should be unchanged")
	}
}

func TestConstraintValidate(t *testing.T) {
	c := NewConstraint(ConstraintLocation, "based in France", "France", 1.0)
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.Weight = -1
	if err := c.Validate(); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("expected ErrInvalidWeight, got %v", err)
	}

	c.Weight = 0
	if err := c.Validate(); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("expected ErrInvalidWeight for zero weight, got %v", err)
	}

	empty := Constraint{ID: "x", Weight: 1}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyConstraint) {
		t.Errorf("expected ErrEmptyConstraint, got %v", err)
	}
}

func TestConstraintNormalize(t *testing.T) {
	c := Constraint{Description: "headquartered in the city of Lyon", Weight: 1}
	n := c.Normalize()

	if n.ID == "" {
		t.Error("expected generated ID")
	}
	if n.Value != c.Description {
		t.Errorf("expected value to fall back to description, got %q", n.Value)
	}
	if n.Type != ConstraintLocation {
		t.Errorf("expected inferred LOCATION, got %s", n.Type)
	}

	lower := Constraint{ID: "a", Type: "statistic", Value: "10 million", Weight: 1}.Normalize()
	if lower.Type != ConstraintStatistic {
		t.Errorf("expected parsed STATISTIC, got %s", lower.Type)
	}
}

func TestClassifyConstraintType(t *testing.T) {
	tests := []struct {
		text string
		want ConstraintType
	}{
		{"name starts with the letter K", ConstraintNamePattern},
		{"based in France", ConstraintLocation},
		{"founded in a year containing 5 digits", ConstraintStatistic},
		{"the largest producer in Europe", ConstraintComparison},
		{"founded by two brothers", ConstraintRelationship},
		{"born in 1952", ConstraintTemporal},
		{"won the Nobel prize", ConstraintEvent},
		{"company no longer exists", ConstraintExistence},
		{"has 4500 employees", ConstraintStatistic},
		{"is a family-owned conglomerate", ConstraintProperty},
		{"", ConstraintProperty},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ClassifyConstraintType(tt.text); got != tt.want {
				t.Errorf("ClassifyConstraintType(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Acme SA":          "acme sa",
		"  ACME   S.A. ":   "acme sa",
		"Globex-Inc.":      "globex inc",
		"Société Générale": "société générale",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateReject(t *testing.T) {
	c := NewCandidate("Acme SA", "q", "")
	c.Score = 0.9
	c.Reject("High negative evidence (40%)")

	if !c.ShouldReject || c.Score != 0 || c.RejectionReason == "" {
		t.Errorf("unexpected candidate state after reject: %+v", c)
	}
}

func TestCandidateSourcesAndKinds(t *testing.T) {
	c := NewCandidate("Acme SA", "q", "https://a.example/seed")
	c.SetConstraintScore(&CandidateConstraintScore{
		ConstraintID: "c1",
		Evidence: []Evidence{
			{Source: "https://en.wikipedia.org/wiki/Acme", Kind: SourceEncyclopedia, Positive: 0.8},
			{Source: "https://news.example/acme", Kind: SourceNews, Positive: 0.6},
		},
	})
	c.SetConstraintScore(&CandidateConstraintScore{ConstraintID: "c2"})

	if got := len(c.Sources()); got != 3 {
		t.Errorf("expected 3 sources, got %d", got)
	}
	if got := len(c.SourceKinds()); got != 2 {
		t.Errorf("expected 2 kinds, got %d", got)
	}
	if got := c.CoveredConstraints(); len(got) != 1 || got[0] != "c1" {
		t.Errorf("expected only c1 covered, got %v", got)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Checker.NegativeThreshold = 1.5
	cfg.Checker.Variant = "bogus"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "negative_threshold") || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}
