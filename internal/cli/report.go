package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// printResolution renders a human-readable summary
func printResolution(w io.Writer, res *model.Resolution) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", res.Query)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if res.Uncertain {
		fmt.Fprintf(w, "  Answer:      %s\n", res.Answer)
		if res.BestCandidate != nil {
			fmt.Fprintf(w, "  Best guess:  %s (score %.2f)\n", res.BestCandidate.Name, res.Score)
		}
	} else {
		fmt.Fprintf(w, "  Answer:      %s (score %.2f)\n", res.Answer, res.Score)
	}
	fmt.Fprintf(w, "  Run:         %s (%s)\n", res.RunID, res.Duration.Round(1e6))
	if res.Partial {
		fmt.Fprintf(w, "  Partial:     deadline reached, %d candidates unverified\n", len(res.Unverified))
	}
	fmt.Fprintln(w)

	if len(res.RelaxedConstraints) > 0 {
		fmt.Fprintln(w, "  Relaxed constraints:")
		for _, c := range res.RelaxedConstraints {
			fmt.Fprintf(w, "    - [%s] %s\n", c.Type, c.Text())
		}
		fmt.Fprintln(w)
	}

	if len(res.Candidates) > 0 {
		fmt.Fprintln(w, "  Candidates:")
		for i, c := range res.Candidates {
			fmt.Fprintf(w, "    %2d. %-40s %.2f\n", i+1, c.Name, c.Score)
			for _, id := range sortedIDs(c.Evidence) {
				s := c.Evidence[id]
				fmt.Fprintf(w, "        %-12s +%.2f -%.2f ?%.2f  (%d evidence)\n",
					truncateID(id), s.Positive, s.Negative, s.Uncertainty, len(s.Evidence))
			}
		}
		fmt.Fprintln(w)
	}

	if len(res.RejectedCandidates) > 0 {
		fmt.Fprintln(w, "  Rejected:")
		for _, c := range res.RejectedCandidates {
			fmt.Fprintf(w, "    ✗ %s: %s\n", c.Name, c.RejectionReason)
		}
		fmt.Fprintln(w)
	}

	if len(res.StageHistory) > 0 {
		fmt.Fprintln(w, "  Stages:")
		for _, s := range res.StageHistory {
			mark := ""
			if s.Relaxed {
				mark += " (relaxed)"
			}
			if s.Backtracked {
				mark += " (backtracked)"
			}
			fmt.Fprintf(w, "    %d. [%s] %s: %d → %d%s\n", s.StageIndex, s.ConstraintApplied.Type,
				s.ConstraintApplied.Text(), len(s.CandidatesBefore), len(s.CandidatesAfter), mark)
		}
		fmt.Fprintln(w)
	}
}

func sortedIDs(m map[string]*model.CandidateConstraintScore) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func truncateID(id string) string {
	if len(id) > 12 {
		return id[:8] + "…"
	}
	return id
}

// writeJSON writes the resolution to path
func writeJSON(path string, res *model.Resolution) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return encodeJSON(f, res)
}

func encodeJSON(w io.Writer, res *model.Resolution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode resolution: %w", err)
	}
	return nil
}

// slugify turns a job ID into a safe file name
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	if len(out) > 100 {
		out = out[:100]
	}
	if out == "" {
		out = "job"
	}
	return out
}
