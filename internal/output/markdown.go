package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/verdict/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.ConsensusReport) error {
	fmt.Fprintf(w, "## Verdict Consensus Review\n\n")

	fmt.Fprintf(w, "**Risk: %s** (%.2f) — %s\n\n", strings.ToUpper(string(report.Risk.Level)), report.Risk.Score, report.Risk.Summary)

	fmt.Fprintf(w, "| Section | Count |\n")
	fmt.Fprintf(w, "|---------|-------|\n")
	fmt.Fprintf(w, "| Consensus | %d |\n", len(report.Consensus))
	fmt.Fprintf(w, "| Single-source | %d |\n", len(report.SingleSource))
	fmt.Fprintf(w, "| Disagreements | %d |\n", len(report.Disagreements))
	fmt.Fprintf(w, "| Failed sources | %d |\n\n", len(report.FailedSources))

	if len(report.Consensus) == 0 && len(report.SingleSource) == 0 {
		fmt.Fprintln(w, "No findings survived verification. :white_check_mark:")
		return nil
	}

	if len(report.Consensus) > 0 {
		fmt.Fprintf(w, "<details>\n<summary>%s Consensus findings (%d)</summary>\n\n", mdRiskIcon(report.Risk.Level), len(report.Consensus))
		for _, f := range report.Consensus {
			fmt.Fprintf(w, "### %s %s\n\n", mdSeverityIcon(f.Severity), f.Description)
			fmt.Fprintf(w, "**`%s`** | %s | Score: %.2f | Sources: %s\n\n",
				formatLocation(f.Location), f.Severity, f.Score, strings.Join(f.Sources, ", "))
			if f.Suggestion != "" {
				fmt.Fprintf(w, "**Suggestion:**\n\n> %s\n\n", strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
			}
			fmt.Fprintf(w, "---\n\n")
		}
		fmt.Fprintf(w, "</details>\n\n")
	}

	if len(report.SingleSource) > 0 {
		fmt.Fprintf(w, "<details>\n<summary>:grey_question: Single-source findings (%d)</summary>\n\n", len(report.SingleSource))
		for _, s := range report.SingleSource {
			f := s.Finding
			fmt.Fprintf(w, "- %s **`%s`** (%s, `%s`, confidence %.0f%%, source %s): %s\n",
				mdSeverityIcon(f.Finding.Severity), formatLocation(f.Finding.Location),
				f.Finding.Severity, f.Outcome, s.Confidence*100, s.Source, f.Finding.Description)
		}
		fmt.Fprintf(w, "\n</details>\n\n")
	}

	if len(report.Disagreements) > 0 {
		fmt.Fprintf(w, "### Disagreements\n\n")
		for _, d := range report.Disagreements {
			fmt.Fprintf(w, "**Claim %s**\n\n", d.ClaimRef)
			for _, s := range d.Stances {
				mark := ":heavy_check_mark:"
				if !s.Agrees {
					mark = ":x:"
				}
				fmt.Fprintf(w, "- %s %s", mark, s.Source)
				if s.Reasoning != "" {
					fmt.Fprintf(w, ": %s", s.Reasoning)
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w)
		}
	}

	if len(report.FailedSources) > 0 {
		fmt.Fprintf(w, "*Failed sources: %s*\n\n", strings.Join(report.FailedSources, ", "))
	}

	fmt.Fprintf(w, "*Run %s*\n", report.RunID)
	return nil
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":bangbang:"
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	case review.SeverityInfo:
		return ":information_source:"
	default:
		return ":white_circle:"
	}
}

func mdRiskIcon(l review.RiskLevel) string {
	switch l {
	case review.RiskCritical, review.RiskHigh:
		return ":rotating_light:"
	case review.RiskMedium:
		return ":warning:"
	default:
		return ":mag:"
	}
}
