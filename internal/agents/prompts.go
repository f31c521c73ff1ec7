package agents

import (
	"fmt"
	"strings"
)

// SystemPrompt returns the shared system prompt for review agents.
func SystemPrompt() string {
	return `You are an expert code reviewer. Review the provided files and report issues.

Respond with ONLY a JSON object of this shape, no prose and no markdown fences:

{
  "findings": [
    {
      "severity": "info|low|medium|high|critical",
      "category": "bug|security|performance|correctness|style|maintainability|testing|docs",
      "description": "what is wrong and why it matters",
      "suggestion": "how to fix it (optional)",
      "confidence": 0.0,
      "path": "relative/path/to/file",
      "startLine": 0,
      "endLine": 0,
      "evidence": "the exact code you are citing (optional)"
    }
  ],
  "stances": [],
  "riskSummary": "one-sentence overall risk assessment"
}

Rules:
- Cite only files and lines that actually appear in the provided material.
- Quote evidence verbatim from the file when you cite a specific line.
- Use confidence in [0,1] for how certain you are the issue is real.
- Omit path/startLine for findings that apply to the codebase as a whole.`
}

// BuildUserPrompt assembles the review payload from file listings and
// contents.
func BuildUserPrompt(root string, files []string, contents map[string]string, maxFindings int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review the following codebase rooted at %s.\n", root)
	if maxFindings > 0 {
		fmt.Fprintf(&b, "Report at most %d findings, most important first.\n", maxFindings)
	}

	b.WriteString("\nFiles under review:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	for _, f := range files {
		content, ok := contents[f]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", f, content)
	}

	return b.String()
}
