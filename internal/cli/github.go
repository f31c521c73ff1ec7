package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dshills/verdict/internal/config"
	"github.com/dshills/verdict/internal/github"
	"github.com/dshills/verdict/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagGHOwner  string
	flagGHRepo   string
	flagGHDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number> [dir]",
	Short: "Review a checkout and post the consensus report to a pull request",
	Long:  "Run the multi-agent review over the local checkout and post the synthesized consensus report as a comment on the given pull request.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		dir := "."
		if len(args) == 2 {
			dir = args[1]
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		// Detect owner/repo if not provided
		owner, repo := flagGHOwner, flagGHRepo
		if owner == "" || repo == "" {
			detected, detectedRepo, err := github.DetectRepo()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if owner == "" {
				owner = detected
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		ghClient, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		result, ok := collectReviews(dir, cfg)
		if !ok {
			return nil
		}

		report := synthesizeAndWrite(dir, result.Reviews, result.Failed, cfg)
		if report == nil {
			return nil
		}

		if flagGHDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: %d consensus findings, not posting to GitHub.\n", len(report.Consensus))
			return nil
		}

		var body bytes.Buffer
		md, err := output.GetWriter("markdown")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := md.Write(&body, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stderr, "Posting consensus report to PR #%d...\n", prNumber)
		if err := ghClient.PostComment(context.Background(), owner, repo, prNumber, body.String()); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting comment: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stderr, "Report posted to PR #%d.\n", prNumber)
		return nil
	},
}

func init() {
	addReviewFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	githubCmd.Flags().BoolVar(&flagGHDryRun, "dry-run", false, "Run review but don't post to GitHub")
}
