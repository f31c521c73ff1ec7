package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/verdict/internal/agents"
	"github.com/dshills/verdict/internal/config"
	"github.com/dshills/verdict/internal/consensus"
	"github.com/dshills/verdict/internal/gitctx"
	"github.com/dshills/verdict/internal/output"
	"github.com/dshills/verdict/internal/redact"
	"github.com/dshills/verdict/internal/review"
	"github.com/spf13/cobra"
)

// Shared review flags
var (
	flagAgents       string
	flagExclude      string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagMinConsensus float64
	flagMaxFindings  int
	flagMaxFileBytes int
	flagSingleSource string
	flagNoRedact     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAgents, "agents", "", "Agent specs, comma-separated kind:model pairs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated, gitignore syntax)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high, critical)")
	cmd.Flags().Float64Var(&flagMinConsensus, "min-consensus", 0, "Minimum consensus score to report a group")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum findings requested per agent")
	cmd.Flags().IntVar(&flagMaxFileBytes, "max-file-bytes", 0, "Skip files larger than this many bytes")
	cmd.Flags().StringVar(&flagSingleSource, "single-source", "", "Include uncorroborated findings (true, false)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMinConsensus > 0 {
		m["minConsensus"] = fmt.Sprintf("%g", flagMinConsensus)
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = fmt.Sprintf("%d", flagMaxFindings)
	}
	if flagMaxFileBytes > 0 {
		m["maxFileBytes"] = fmt.Sprintf("%d", flagMaxFileBytes)
	}
	if flagSingleSource != "" {
		m["singleSource"] = flagSingleSource
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var reviewCmd = &cobra.Command{
	Use:   "review [dir]",
	Short: "Review a directory with multiple agents and synthesize consensus",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		runReview(dir, cfg)
		return nil
	},
}

func runReview(dir string, cfg config.Config) {
	result, ok := collectReviews(dir, cfg)
	if !ok {
		return
	}
	synthesizeAndWrite(dir, result.Reviews, result.Failed, cfg)
}

// collectReviews gathers per-agent reviews of the directory. The second
// return value is false when collection failed in a way that already set
// the exit code.
func collectReviews(dir string, cfg config.Config) (agents.CollectResult, bool) {
	if flagNoRedact {
		off := false
		cfg.Privacy.RedactSecrets = &off
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	specs := cfg.Agents
	if flagAgents != "" {
		specs = splitComma(flagAgents)
	}
	if len(specs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no agents configured")
		exitCode = ExitUsageError
		return agents.CollectResult{}, false
	}

	exclude := cfg.Exclude
	if flagExclude != "" {
		exclude = append(exclude, splitComma(flagExclude)...)
	}

	meta, err := gitctx.GetRepoMeta(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return agents.CollectResult{}, false
	}

	files, err := gitctx.ListFiles(dir, exclude)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return agents.CollectResult{}, false
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no files to review")
		exitCode = ExitUsageError
		return agents.CollectResult{}, false
	}

	contents := loadContents(dir, files, cfg)

	req := agents.Request{
		SystemPrompt: agents.SystemPrompt(),
		UserPrompt:   agents.BuildUserPrompt(meta.Root, files, contents, cfg.MaxFindings),
		MaxTokens:    8192,
	}

	ctx := context.Background()
	result := agents.Collect(ctx, agents.NewRegistry(), specs, req)

	for _, spec := range result.Failed {
		fmt.Fprintf(os.Stderr, "WARNING: %s failed: %v\n", spec, result.Errors[spec])
	}

	if len(result.Reviews) == 0 {
		if anyAuthError(result.Errors) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		fmt.Fprintln(os.Stderr, "Error: all agents failed, nothing to synthesize")
		return agents.CollectResult{}, false
	}

	return result, true
}

// loadContents reads and scrubs every listed file, skipping those over the
// size budget.
func loadContents(dir string, files []string, cfg config.Config) map[string]string {
	contents := make(map[string]string, len(files))
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f))
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if cfg.MaxFileBytes > 0 && info.Size() > int64(cfg.MaxFileBytes) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		content := string(data)
		if cfg.Privacy.RedactSecretsEnabled() {
			content = redact.Content(content, f, cfg.Privacy.RedactPaths)
		}
		contents[f] = content
	}
	return contents
}

// synthesizeAndWrite runs the consensus pipeline over collected reviews,
// renders the report, and applies the fail-on threshold. Returns the report
// so callers can forward it elsewhere (e.g. a PR comment).
func synthesizeAndWrite(dir string, reviews map[string]review.SourceReview, failed []string, cfg config.Config) *review.ConsensusReport {
	consCfg := review.ConsensusConfig{
		MinConsensusThreshold:       cfg.MinConsensusThreshold,
		IncludeSingleSourceFindings: cfg.IncludeSingleSourceFindings(),
	}

	report, err := consensus.Run(dir, reviews, failed, consCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if cfg.FailOn != "none" && cfg.FailOn != "" {
		if reportMeetsThreshold(report, cfg.FailOn) {
			exitCode = ExitFindings
		}
	}
	return report
}

func reportMeetsThreshold(report *review.ConsensusReport, failOn string) bool {
	for _, cf := range report.Consensus {
		if review.MeetsThreshold(cf.Severity, failOn) {
			return true
		}
	}
	for _, sf := range report.SingleSource {
		if review.MeetsThreshold(sf.Finding.Finding.Severity, failOn) {
			return true
		}
	}
	return false
}

func anyAuthError(errs map[string]error) bool {
	for _, err := range errs {
		if agents.IsAuthError(err) {
			return true
		}
	}
	return false
}

var flagInput string

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <dir>",
	Short: "Synthesize consensus from pre-collected review JSON",
	Long:  "Synthesize runs verification, grouping, and scoring over reviews already collected as JSON, without calling any agent. The input is a file or directory of files, each holding one source review keyed by source identifier.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		reviews, err := loadReviewInput(flagInput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		synthesizeAndWrite(args[0], reviews, nil, cfg)
		return nil
	},
}

// loadReviewInput reads source reviews from a JSON file or a directory of
// JSON files. Each file holds a map of source identifier to review.
func loadReviewInput(path string) (map[string]review.SourceReview, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	} else {
		paths = []string{path}
	}

	reviews := make(map[string]review.SourceReview)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var batch map[string]review.SourceReview
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		for source, sr := range batch {
			if _, dup := reviews[source]; dup {
				return nil, fmt.Errorf("duplicate source %q in %s", source, p)
			}
			reviews[source] = sr
		}
	}

	if len(reviews) == 0 {
		return nil, fmt.Errorf("no reviews found in %s", path)
	}
	return reviews, nil
}

func init() {
	addReviewFlags(reviewCmd)
	addReviewFlags(synthesizeCmd)
	synthesizeCmd.Flags().StringVar(&flagInput, "input", "", "JSON file or directory of review JSON files")
}
