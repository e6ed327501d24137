package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sieve/internal/model"
)

// Job is one query with its constraints, as read from a YAML file
type Job struct {
	ID          string             `yaml:"id,omitempty"`
	Query       string             `yaml:"query"`
	Constraints []model.Constraint `yaml:"constraints"`
}

// jobFile is the batch input format
type jobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// loadJob reads a single job file. A bare list of constraints is accepted too.
func loadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read constraints file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		var list []model.Constraint
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return Job{}, fmt.Errorf("parse constraints file %s: %w", path, err)
		}
		job = Job{Constraints: list}
	}
	if len(job.Constraints) == 0 {
		return Job{}, fmt.Errorf("constraints file %s has no constraints", path)
	}
	job.Constraints = withDefaultWeights(job.Constraints)
	return job, nil
}

// loadJobs reads a batch file
func loadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
	}
	for i := range f.Jobs {
		if f.Jobs[i].ID == "" {
			f.Jobs[i].ID = fmt.Sprintf("job-%d", i+1)
		}
		if strings.TrimSpace(f.Jobs[i].Query) == "" {
			return nil, fmt.Errorf("job %s: query is required", f.Jobs[i].ID)
		}
		f.Jobs[i].Constraints = withDefaultWeights(f.Jobs[i].Constraints)
	}
	return f.Jobs, nil
}

// parseConstraintFlag reads "TYPE:text[:weight]" or plain text. Plain text
// gets its type inferred and weight 1.
func parseConstraintFlag(s string) (model.Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Constraint{}, fmt.Errorf("empty constraint")
	}

	weight := 1.0
	parts := strings.Split(s, ":")
	if len(parts) >= 2 {
		if w, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64); err == nil {
			weight = w
			parts = parts[:len(parts)-1]
		}
	}

	var t model.ConstraintType
	if len(parts) >= 2 {
		if parsed := model.ParseConstraintType(parts[0]); parsed != "" {
			t = parsed
			parts = parts[1:]
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ":"))
	if text == "" {
		return model.Constraint{}, fmt.Errorf("constraint %q has no text", s)
	}
	return model.Constraint{Description: text, Type: t, Value: text, Weight: weight}, nil
}

func withDefaultWeights(cs []model.Constraint) []model.Constraint {
	for i := range cs {
		if cs[i].Weight == 0 {
			cs[i].Weight = 1
		}
	}
	return cs
}
