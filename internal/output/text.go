package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/verdict/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.ConsensusReport) error {
	ew := &errWriter{w: w}

	ew.printf("Verdict Consensus Review\n")
	ew.printf("Root: %s\n", report.Root)
	ew.printf("Sources: %d", report.TotalSources)
	if len(report.FailedSources) > 0 {
		ew.printf(" (%d failed: %s)", len(report.FailedSources), strings.Join(report.FailedSources, ", "))
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))
	ew.printf("Risk: %s (%.2f) — %s\n", strings.ToUpper(string(report.Risk.Level)), report.Risk.Score, report.Risk.Summary)
	ew.println(strings.Repeat("─", 60))

	if len(report.Consensus) == 0 && len(report.SingleSource) == 0 {
		ew.println("\nNo findings survived verification. Looks good!")
		return ew.err
	}

	if len(report.Consensus) > 0 {
		ew.printf("\nCONSENSUS FINDINGS (%d)\n", len(report.Consensus))
		ew.println(strings.Repeat("─", 40))
		for _, f := range report.Consensus {
			ew.printf("\n  %s %s  %s\n", severityIcon(f.Severity), formatLocation(f.Location), strings.ToUpper(string(f.Severity)))
			ew.printf("  Score: %.2f | Sources: %s\n", f.Score, strings.Join(f.Sources, ", "))
			for _, line := range wrapText(f.Description, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	if len(report.SingleSource) > 0 {
		ew.printf("\nSINGLE-SOURCE FINDINGS (%d)\n", len(report.SingleSource))
		ew.println(strings.Repeat("─", 40))
		for _, s := range report.SingleSource {
			f := s.Finding
			ew.printf("\n  %s %s  [%s]\n", severityIcon(f.Finding.Severity), formatLocation(f.Finding.Location), f.Outcome)
			ew.printf("  Source: %s | Confidence: %.0f%%\n", s.Source, s.Confidence*100)
			for _, line := range wrapText(f.Finding.Description, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	if len(report.Agreements) > 0 {
		ew.printf("\nAGREEMENTS (%d)\n", len(report.Agreements))
		ew.println(strings.Repeat("─", 40))
		writeDiscussions(ew, report.Agreements)
	}

	if len(report.Disagreements) > 0 {
		ew.printf("\nDISAGREEMENTS (%d)\n", len(report.Disagreements))
		ew.println(strings.Repeat("─", 40))
		writeDiscussions(ew, report.Disagreements)
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Run %s\n", report.RunID)

	return ew.err
}

func writeDiscussions(ew *errWriter, discussions []review.ClaimDiscussion) {
	for _, d := range discussions {
		ew.printf("\n  Claim %s:\n", d.ClaimRef)
		for _, s := range d.Stances {
			verb := "agrees"
			if !s.Agrees {
				verb = "disagrees"
			}
			ew.printf("    %s %s", s.Source, verb)
			if s.Reasoning != "" {
				ew.printf(": %s", s.Reasoning)
			}
			ew.println("")
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func formatLocation(loc *review.Location) string {
	if loc == nil {
		return "(no location)"
	}
	if loc.Lines.Start == 0 {
		return loc.Path
	}
	if loc.Lines.End == 0 || loc.Lines.End == loc.Lines.Start {
		return fmt.Sprintf("%s:%d", loc.Path, loc.Lines.Start)
	}
	return fmt.Sprintf("%s:%d-%d", loc.Path, loc.Lines.Start, loc.Lines.End)
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!!]"
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	case review.SeverityInfo:
		return "[i]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
