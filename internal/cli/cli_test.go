package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/sieve/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestParseConstraintFlag(t *testing.T) {
	tests := []struct {
		in       string
		wantType model.ConstraintType
		wantText string
		weight   float64
	}{
		{"LOCATION:based in France", model.ConstraintLocation, "based in France", 1},
		{"TEMPORAL:founded in 1987:2", model.ConstraintTemporal, "founded in 1987", 2},
		{"name-pattern:starts with K", model.ConstraintNamePattern, "starts with K", 1},
		{"founded in 1987", "", "founded in 1987", 1},
		{"motto: think different", "", "motto: think different", 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := parseConstraintFlag(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Type != tt.wantType {
				t.Errorf("type = %q, want %q", c.Type, tt.wantType)
			}
			if c.Text() != tt.wantText {
				t.Errorf("text = %q, want %q", c.Text(), tt.wantText)
			}
			if c.Weight != tt.weight {
				t.Errorf("weight = %v, want %v", c.Weight, tt.weight)
			}
		})
	}
}

func TestParseConstraintFlag_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "LOCATION:"} {
		if _, err := parseConstraintFlag(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestLoadJob_Mapping(t *testing.T) {
	path := writeFile(t, "job.yaml", `query: Which French company was founded in 1987?
constraints:
  - description: based in France
    type: LOCATION
  - description: founded in 1987
    weight: 2
`)

	job, err := loadJob(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Query != "Which French company was founded in 1987?" {
		t.Errorf("unexpected query %q", job.Query)
	}
	if len(job.Constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(job.Constraints))
	}
	if job.Constraints[0].Weight != 1 || job.Constraints[1].Weight != 2 {
		t.Errorf("unexpected weights %v, %v", job.Constraints[0].Weight, job.Constraints[1].Weight)
	}
	if job.Constraints[0].Type != model.ConstraintLocation {
		t.Errorf("expected LOCATION, got %s", job.Constraints[0].Type)
	}
}

func TestLoadJob_BareList(t *testing.T) {
	path := writeFile(t, "list.yaml", `- description: based in France
- description: founded in 1987
  type: TEMPORAL
`)

	job, err := loadJob(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Query != "" {
		t.Errorf("expected empty query, got %q", job.Query)
	}
	if len(job.Constraints) != 2 {
		t.Errorf("expected 2 constraints, got %d", len(job.Constraints))
	}
}

func TestLoadJob_Errors(t *testing.T) {
	if _, err := loadJob(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := loadJob(writeFile(t, "empty.yaml", "query: nothing\n")); err == nil {
		t.Error("expected error for a job without constraints")
	}
}

func TestLoadJobs(t *testing.T) {
	path := writeFile(t, "jobs.yaml", `jobs:
  - id: french-1987
    query: Which French company was founded in 1987?
    constraints:
      - description: based in France
  - query: Which element has atomic number 79?
    constraints:
      - description: atomic number 79
        weight: 3
`)

	jobs, err := loadJobs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "french-1987" || jobs[1].ID != "job-2" {
		t.Errorf("unexpected IDs %q, %q", jobs[0].ID, jobs[1].ID)
	}
	if jobs[0].Constraints[0].Weight != 1 || jobs[1].Constraints[0].Weight != 3 {
		t.Error("expected default weight 1 and explicit weight 3")
	}

	bad := writeFile(t, "bad.yaml", `jobs:
  - constraints:
      - description: based in France
`)
	if _, err := loadJobs(bad); err == nil {
		t.Error("expected error for job without query")
	}
}

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("setDefaults: %v", err)
	}
	v.SetEnvPrefix("SIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := model.DefaultConfig()
	if cfg.Checker.Variant != def.Checker.Variant {
		t.Errorf("variant = %s, want %s", cfg.Checker.Variant, def.Checker.Variant)
	}
	if cfg.Cache.TTL != def.Cache.TTL {
		t.Errorf("cache ttl = %v, want %v", cfg.Cache.TTL, def.Cache.TTL)
	}
	if cfg.Checker.NegativeThreshold != def.Checker.NegativeThreshold {
		t.Errorf("negative threshold = %v", cfg.Checker.NegativeThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded defaults should validate: %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SIEVE_CHECKER_VARIANT", "strict")
	t.Setenv("SIEVE_CHECKER_NEGATIVE_THRESHOLD", "0.3")
	t.Setenv("SIEVE_EVALUATION_TIMEOUT", "45s")
	t.Setenv("SIEVE_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Checker.Variant != model.VariantStrict {
		t.Errorf("variant = %s, want strict", cfg.Checker.Variant)
	}
	if cfg.Checker.NegativeThreshold != 0.3 {
		t.Errorf("negative threshold = %v, want 0.3", cfg.Checker.NegativeThreshold)
	}
	if cfg.EvaluationTimeout != 45*time.Second {
		t.Errorf("evaluation timeout = %v, want 45s", cfg.EvaluationTimeout)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("expected api key from OPENAI_API_KEY, got %q", cfg.LLM.APIKey)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sieve", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when the file already exists")
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read written config: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config should validate: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"french-1987":  "french-1987",
		"Job 1/Acme?":  "job-1-acme",
		"  --x--  ":    "x",
		"":             "job",
		"a  //  b":     "a-b",
		"snake_case_1": "snake_case_1",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	got := describe([]model.Constraint{
		{Description: "based in France"},
		{Description: "founded in 1987", Value: "1987"},
	})
	if got != "Which entity is based in France, 1987?" {
		t.Errorf("unexpected question %q", got)
	}
}

func TestPrintResolution(t *testing.T) {
	loc := model.NewConstraint(model.ConstraintLocation, "based in France", "France", 1)
	accepted := model.NewCandidate("Acme SA", "q", "")
	accepted.Score = 0.74
	accepted.Verified = true
	accepted.SetConstraintScore(&model.CandidateConstraintScore{
		ConstraintID: loc.ID,
		Positive:     0.8,
		Negative:     0.05,
		Uncertainty:  0.15,
		Evidence:     []model.Evidence{model.NewEvidence(0.8, 0.05, 0.15, "https://en.wikipedia.org/wiki/Acme", "")},
	})
	rejected := model.NewCandidate("Globex Inc", "q", "")
	rejected.Reject("High negative evidence (40%) for constraint: France")

	res := &model.Resolution{
		RunID:              "run-1",
		Query:              "Which French company?",
		BestCandidate:      accepted,
		Score:              0.74,
		Answer:             "Acme SA",
		Candidates:         []*model.Candidate{accepted},
		RejectedCandidates: []*model.Candidate{rejected},
		StageHistory: []model.StageResult{
			{StageIndex: 0, ConstraintApplied: loc, CandidatesAfter: []string{"Acme SA", "Globex Inc"}},
			{StageIndex: 1, ConstraintApplied: loc, CandidatesBefore: []string{"Acme SA"}, Backtracked: true, Relaxed: true},
		},
	}

	var buf bytes.Buffer
	printResolution(&buf, res)
	out := buf.String()

	for _, want := range []string{
		"Which French company?",
		"Answer:      Acme SA (score 0.74)",
		"Acme SA",
		"✗ Globex Inc: High negative evidence (40%) for constraint: France",
		"(relaxed) (backtracked)",
		"0 → 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintResolution_Uncertain(t *testing.T) {
	best := model.NewCandidate("Initech", "q", "")
	res := &model.Resolution{
		Query:         "Which company?",
		BestCandidate: best,
		Score:         0.31,
		Answer:        model.UncertainAnswer,
		Uncertain:     true,
		Partial:       true,
		Unverified:    []string{"Umbrella"},
	}

	var buf bytes.Buffer
	printResolution(&buf, res)
	out := buf.String()

	for _, want := range []string{model.UncertainAnswer, "Best guess:  Initech (score 0.31)", "1 candidates unverified"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	res := &model.Resolution{RunID: "run-1", Query: "q", Answer: "Acme SA"}
	if err := encodeJSON(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"answer": "Acme SA"`) {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}
