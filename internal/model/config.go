package model

import (
	"errors"
	"fmt"
	"time"
)

// CheckerVariant selects the constraint checker implementation
type CheckerVariant string

const (
	VariantDualConfidence CheckerVariant = "dual_confidence"
	VariantStrict         CheckerVariant = "strict"
	VariantThreshold      CheckerVariant = "threshold"
)

// Config holds every tunable of a resolve run
type Config struct {
	Checker     CheckerConfig     `yaml:"checker" mapstructure:"checker"`
	Narrowing   NarrowingConfig   `yaml:"narrowing" mapstructure:"narrowing"`
	Relaxation  RelaxationConfig  `yaml:"relaxation" mapstructure:"relaxation"`
	Diversity   DiversityConfig   `yaml:"diversity" mapstructure:"diversity"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`

	QueryTimeout      time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`           // Overall deadline of one run
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout" mapstructure:"evaluation_timeout"` // Bound on draining the evaluation queue
}

// CheckerConfig tunes evidence scoring and accept/reject decisions
type CheckerConfig struct {
	Variant CheckerVariant `yaml:"variant" mapstructure:"variant"`

	// Dual-confidence
	NegativeThreshold    float64 `yaml:"negative_threshold" mapstructure:"negative_threshold"`
	PositiveThreshold    float64 `yaml:"positive_threshold" mapstructure:"positive_threshold"`
	UncertaintyThreshold float64 `yaml:"uncertainty_threshold" mapstructure:"uncertainty_threshold"`
	MaxReevaluations     int     `yaml:"max_reevaluations" mapstructure:"max_reevaluations"`
	UncertaintyPenalty   float64 `yaml:"uncertainty_penalty" mapstructure:"uncertainty_penalty"`
	NegativeWeight       float64 `yaml:"negative_weight" mapstructure:"negative_weight"`

	// Pre-screen
	EnablePrescreen    bool `yaml:"enable_prescreen" mapstructure:"enable_prescreen"`
	PrescreenThreshold int  `yaml:"prescreen_threshold" mapstructure:"prescreen_threshold"` // 0-100

	// Strict
	StrictThreshold      float64 `yaml:"strict_threshold" mapstructure:"strict_threshold"`
	NamePatternThreshold float64 `yaml:"name_pattern_threshold" mapstructure:"name_pattern_threshold"`
	NamePatternMandatory bool    `yaml:"name_pattern_mandatory" mapstructure:"name_pattern_mandatory"`

	// Threshold
	SatisfactionThreshold    float64 `yaml:"satisfaction_threshold" mapstructure:"satisfaction_threshold"`
	RequiredSatisfactionRate float64 `yaml:"required_satisfaction_rate" mapstructure:"required_satisfaction_rate"`

	EvidencePerConstraint int     `yaml:"evidence_per_constraint" mapstructure:"evidence_per_constraint"` // Snippets analyzed per round
	MinAcceptScore        float64 `yaml:"min_accept_score" mapstructure:"min_accept_score"`
}

// NarrowingConfig tunes progressive narrowing
type NarrowingConfig struct {
	CandidateLimit    int     `yaml:"candidate_limit" mapstructure:"candidate_limit"`       // Pool size handed to verification
	StopPoolSize      int     `yaml:"stop_pool_size" mapstructure:"stop_pool_size"`         // Stop filtering at or below this size
	FilterThreshold   float64 `yaml:"filter_threshold" mapstructure:"filter_threshold"`     // Minimum cheap-check confidence
	MaxStages         int     `yaml:"max_stages" mapstructure:"max_stages"`                 // 0 = one per constraint
	MaxQueryVariants  int     `yaml:"max_query_variants" mapstructure:"max_query_variants"` // Seed query variants
	ProximityWindow   int     `yaml:"proximity_window" mapstructure:"proximity_window"`     // Words between name and value
	MaxSeedCandidates int     `yaml:"max_seed_candidates" mapstructure:"max_seed_candidates"`
}

// RelaxationConfig tunes constraint relaxation
type RelaxationConfig struct {
	Enabled         bool `yaml:"enabled" mapstructure:"enabled"`
	TargetCount     int  `yaml:"target_count" mapstructure:"target_count"`           // Relax when the pool is smaller
	MaxDrop         int  `yaml:"max_drop" mapstructure:"max_drop"`                   // Drop at most this many constraints
	MinRemaining    int  `yaml:"min_remaining" mapstructure:"min_remaining"`         // Never drop below this many
	HighPriorityMin int  `yaml:"high_priority_min" mapstructure:"high_priority_min"` // Priority floor for the high-priority-only set
	MaxSets         int  `yaml:"max_sets" mapstructure:"max_sets"`                   // Relaxed sets tried per run
}

// DiversityConfig tunes diversity-aware pruning
type DiversityConfig struct {
	Limit              int     `yaml:"limit" mapstructure:"limit"`
	MinSourceDiversity int     `yaml:"min_source_diversity" mapstructure:"min_source_diversity"`
	TargetConfidence   float64 `yaml:"target_confidence" mapstructure:"target_confidence"`
	EvidenceWeight     float64 `yaml:"evidence_weight" mapstructure:"evidence_weight"` // Diversity gets 1 - EvidenceWeight
}

// CacheConfig configures the evidence/search cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	Dir             string        `yaml:"dir,omitempty" mapstructure:"dir"` // Persistent layer, disabled when empty
}

// SearchConfig configures the search provider
type SearchConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"`
	Endpoint          string        `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LLMConfig configures the semantic oracle
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, openai-compatible
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ConcurrencyConfig bounds concurrent work
type ConcurrencyConfig struct {
	BatchSize     int `yaml:"batch_size" mapstructure:"batch_size"`         // Search tasks per batch
	FilterWorkers int `yaml:"filter_workers" mapstructure:"filter_workers"` // Parallel cheap checks
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Checker: CheckerConfig{
			Variant:                  VariantDualConfidence,
			NegativeThreshold:        0.25,
			PositiveThreshold:        0.4,
			UncertaintyThreshold:     0.6,
			MaxReevaluations:         2,
			UncertaintyPenalty:       0.2,
			NegativeWeight:           0.5,
			EnablePrescreen:          false,
			PrescreenThreshold:       50,
			StrictThreshold:          0.9,
			NamePatternThreshold:     0.95,
			NamePatternMandatory:     true,
			SatisfactionThreshold:    0.7,
			RequiredSatisfactionRate: 0.8,
			EvidencePerConstraint:    5,
			MinAcceptScore:           0.5,
		},
		Narrowing: NarrowingConfig{
			CandidateLimit:    20,
			StopPoolSize:      3,
			FilterThreshold:   0.5,
			MaxStages:         0,
			MaxQueryVariants:  5,
			ProximityWindow:   20,
			MaxSeedCandidates: 100,
		},
		Relaxation: RelaxationConfig{
			Enabled:         true,
			TargetCount:     5,
			MaxDrop:         3,
			MinRemaining:    2,
			HighPriorityMin: 7,
			MaxSets:         8,
		},
		Diversity: DiversityConfig{
			Limit:              10,
			MinSourceDiversity: 3,
			TargetConfidence:   0.7,
			EvidenceWeight:     0.8,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Search: SearchConfig{
			Provider:          "searxng",
			Endpoint:          "http://localhost:8888",
			MaxResults:        10,
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2.0,
			BurstSize:         4,
			UserAgent:         "Sieve/0.1 (+https://github.com/ppiankov/sieve)",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   512,
			Temperature: 0.1,
		},
		Concurrency: ConcurrencyConfig{
			BatchSize:     8,
			FilterWorkers: 8,
		},
		QueryTimeout:      5 * time.Minute,
		EvaluationTimeout: 30 * time.Second,
	}
}

// Validate checks that thresholds are in range and the variant is known
func (c *Config) Validate() error {
	var errs []error
	unit := map[string]float64{
		"checker.negative_threshold":         c.Checker.NegativeThreshold,
		"checker.positive_threshold":         c.Checker.PositiveThreshold,
		"checker.uncertainty_threshold":      c.Checker.UncertaintyThreshold,
		"checker.strict_threshold":           c.Checker.StrictThreshold,
		"checker.name_pattern_threshold":     c.Checker.NamePatternThreshold,
		"checker.satisfaction_threshold":     c.Checker.SatisfactionThreshold,
		"checker.required_satisfaction_rate": c.Checker.RequiredSatisfactionRate,
		"narrowing.filter_threshold":         c.Narrowing.FilterThreshold,
		"diversity.evidence_weight":          c.Diversity.EvidenceWeight,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	switch c.Checker.Variant {
	case VariantDualConfidence, VariantStrict, VariantThreshold:
	default:
		errs = append(errs, fmt.Errorf("unknown checker variant %q", c.Checker.Variant))
	}
	if c.Checker.MaxReevaluations < 0 {
		errs = append(errs, fmt.Errorf("checker.max_reevaluations must not be negative"))
	}
	if c.Narrowing.CandidateLimit <= 0 {
		errs = append(errs, fmt.Errorf("narrowing.candidate_limit must be positive"))
	}
	if c.Diversity.Limit <= 0 {
		errs = append(errs, fmt.Errorf("diversity.limit must be positive"))
	}
	return errors.Join(errs...)
}
