package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve multiple queries from a YAML file in parallel",
	Long: `Batch resolves every job in a YAML file concurrently:
- Read jobs (id, query, constraints) from the input file
- Resolve jobs in parallel with a configurable worker count
- Share one oracle, search provider and cache across jobs
- Write one JSON resolution per job

Example:
  sieve batch jobs.yaml
  sieve batch jobs.yaml --concurrency 4 --output-dir ./resolutions`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent jobs")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./sieve-results", "output directory for resolutions")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 30*time.Minute, "total timeout for batch processing")

	addEngineFlags(batchCmd)
}

type batchOutcome struct {
	job  Job
	res  *model.Resolution
	path string
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	jobs, err := loadJobs(file)
	if err != nil {
		return err
	}
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", rule)
	fmt.Fprintf(os.Stderr, "  Sieve Batch Processing\n")
	fmt.Fprintf(os.Stderr, "%s\n", rule)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d jobs)\n", file, len(jobs))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Checker:      %s\n", cfg.Checker.Variant)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing cache: %v\n", closeErr)
		}
	}()

	tasks := make([]worker.Task[batchOutcome], len(jobs))
	for i, job := range jobs {
		job := job
		tasks[i] = worker.Task[batchOutcome]{
			Name: job.ID,
			Run: func(ctx context.Context) (batchOutcome, error) {
				res, err := e.resolve(ctx, job)
				if err != nil {
					return batchOutcome{job: job}, err
				}
				path := filepath.Join(outputDir, slugify(job.ID)+".json")
				if err := writeJSON(path, res); err != nil {
					return batchOutcome{job: job, res: res}, err
				}
				return batchOutcome{job: job, res: res, path: path}, nil
			},
		}
	}

	fmt.Fprintf(os.Stderr, "⚙️  Resolving %d jobs with %d workers...\n\n", len(jobs), concurrency)

	successCount, failureCount := 0, 0
	for _, r := range worker.Collect(ctx, tasks, concurrency) {
		if r.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Name, r.Err)
			continue
		}
		successCount++
		res := r.Value.res
		if res.Uncertain {
			fmt.Fprintf(os.Stderr, "? %s: %s\n", r.Name, res.Answer)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s: %s (score %.2f)\n", r.Name, res.Answer, res.Score)
		}
	}

	if skipped := len(jobs) - successCount - failureCount; skipped > 0 {
		failureCount += skipped
		fmt.Fprintf(os.Stderr, "✗ %d jobs not started before the batch timeout\n", skipped)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", rule)
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "%s\n", rule)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d jobs\n", len(jobs))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d jobs failed", failureCount, len(jobs))
	}
	return nil
}
