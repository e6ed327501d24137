package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sieve/internal/model"
)

var (
	constraintsFile string
	constraintFlags []string
	variant         string
	outJSON         string
	queryTimeout    time.Duration
	noCache         bool
	prescreen       bool
	llmProvider     string
	llmModel        string
	searchProvider  string
	searchEndpoint  string
	httpProxy       string
	httpsProxy      string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [query]",
	Short: "Find the candidate that best satisfies a set of constraints",
	Long: `Resolve discovers candidates for a question and verifies them against
its constraints:
- Rank constraints from most to least restrictive
- Seed candidates from search results for the most restrictive constraint
- Narrow the pool one constraint at a time, relaxing constraints if too few remain
- Verify every survivor with positive, negative and uncertain evidence
- Report the best candidate, rejected candidates and the stage history

Constraints come from a YAML file (--constraints) or repeated --constraint
flags written as TYPE:text[:weight] or plain text.

Example:
  sieve resolve --constraints question.yaml
  sieve resolve "Which French company was founded in 1987?" \
      --constraint "LOCATION:based in France" --constraint "TEMPORAL:founded in 1987:2"
  sieve resolve --constraints question.yaml --variant strict --json result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	// Input flags
	resolveCmd.Flags().StringVarP(&constraintsFile, "constraints", "c", "", "YAML file with query and constraints")
	resolveCmd.Flags().StringArrayVar(&constraintFlags, "constraint", nil, "constraint as TYPE:text[:weight] (repeatable)")

	// Output flags
	resolveCmd.Flags().StringVar(&outJSON, "json", "", "write the full resolution as JSON to this path (- for stdout)")

	addEngineFlags(resolveCmd)
}

// addEngineFlags registers the flags shared by resolve and batch
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&variant, "variant", string(model.VariantDualConfidence), "checker variant (dual_confidence, strict, threshold)")
	cmd.Flags().DurationVar(&queryTimeout, "timeout", 5*time.Minute, "deadline for one resolution")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the evidence and search cache")
	cmd.Flags().BoolVar(&prescreen, "prescreen", false, "reject implausible candidates with one oracle call before gathering evidence")

	// LLM flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama, openai-compatible)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")

	// Search flags
	cmd.Flags().StringVar(&searchProvider, "search-provider", "searxng", "search provider (searxng, wikipedia)")
	cmd.Flags().StringVar(&searchEndpoint, "search-endpoint", "", "search endpoint URL")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// commandConfig loads the layered configuration and applies flags the user set
func commandConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("variant") {
		cfg.Checker.Variant = model.CheckerVariant(variant)
	}
	if flags.Changed("timeout") {
		cfg.QueryTimeout = queryTimeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if prescreen {
		cfg.Checker.EnablePrescreen = true
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		if key := apiKeyFromEnv(llmProvider); key != "" {
			cfg.LLM.APIKey = key
		}
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("search-provider") {
		cfg.Search.Provider = searchProvider
	}
	if searchEndpoint != "" {
		cfg.Search.Endpoint = searchEndpoint
	}
	if httpProxy != "" {
		cfg.Search.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.Search.HTTPSProxy = httpsProxy
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	job, err := jobFromInput(args)
	if err != nil {
		return err
	}

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n", job.Query)
		fmt.Fprintf(os.Stderr, "Constraints: %d\n", len(job.Constraints))
		fmt.Fprintf(os.Stderr, "Checker: %s\n", cfg.Checker.Variant)
		fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Search: %s %s\n", cfg.Search.Provider, cfg.Search.Endpoint)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
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

	res, err := e.resolve(context.Background(), job)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	switch outJSON {
	case "":
		printResolution(cmd.OutOrStdout(), res)
	case "-":
		return encodeJSON(cmd.OutOrStdout(), res)
	default:
		if err := writeJSON(outJSON, res); err != nil {
			return err
		}
		printResolution(cmd.OutOrStdout(), res)
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	return nil
}

// jobFromInput merges the constraints file, --constraint flags and the
// positional query
func jobFromInput(args []string) (Job, error) {
	var job Job
	if constraintsFile != "" {
		loaded, err := loadJob(constraintsFile)
		if err != nil {
			return Job{}, err
		}
		job = loaded
	}
	for _, s := range constraintFlags {
		c, err := parseConstraintFlag(s)
		if err != nil {
			return Job{}, err
		}
		job.Constraints = append(job.Constraints, c)
	}
	if len(args) == 1 {
		job.Query = args[0]
	}

	if len(job.Constraints) == 0 {
		return Job{}, fmt.Errorf("no constraints given: use --constraints or --constraint")
	}
	if strings.TrimSpace(job.Query) == "" {
		job.Query = describe(job.Constraints)
	}
	return job, nil
}

// describe builds a question from constraints when none was given
func describe(cs []model.Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Text()
	}
	return "Which entity is " + strings.Join(parts, ", ") + "?"
}
