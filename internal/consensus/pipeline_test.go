package consensus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/verdict/internal/review"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll error: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
	}
	return dir
}

func dbFile() string {
	var b strings.Builder
	for i := 1; i <= 60; i++ {
		if i == 42 {
			b.WriteString(`const q = "SELECT * FROM users WHERE id = " + userId;` + "\n")
			continue
		}
		fmt.Fprintf(&b, "// line %d\n", i)
	}
	return b.String()
}

func TestRun_CorroboratedFinding(t *testing.T) {
	dir := writeTree(t, map[string]string{"db.ts": dbFile()})

	reviews := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{{
				Severity:    review.SeverityHigh,
				Category:    review.CategorySecurity,
				Description: "sql injection via string concatenation",
				Confidence:  0.9,
				Location:    &review.Location{Path: "db.ts", Lines: review.LineRange{Start: 42}},
				Evidence:    `const q = "SELECT * FROM users WHERE id = " + userId;`,
			}},
		},
		"codex:gpt": {
			Findings: []review.Finding{{
				Severity:    review.SeverityHigh,
				Category:    review.CategorySecurity,
				Description: "sql injection via string concatenation",
				Confidence:  0.85,
				Location:    &review.Location{Path: "db.ts", Lines: review.LineRange{Start: 42}},
				Evidence:    `const q = "SELECT * FROM users WHERE id = " + userId;`,
			}},
		},
	}

	report, err := Run(dir, reviews, nil, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(report.Consensus) != 1 {
		t.Fatalf("len(Consensus) = %d, want 1", len(report.Consensus))
	}
	cf := report.Consensus[0]
	if cf.Score <= 0.7 {
		t.Errorf("Score = %v, want > 0.7 for a corroborated exact-evidence finding", cf.Score)
	}
	if len(cf.Sources) != 2 {
		t.Errorf("Sources = %v, want both", cf.Sources)
	}
	for _, m := range cf.Members {
		if m.Outcome != review.OutcomeVerifiedExact {
			t.Errorf("member outcome = %s, want %s", m.Outcome, review.OutcomeVerifiedExact)
		}
	}
	if report.TotalSources != 2 {
		t.Errorf("TotalSources = %d, want 2", report.TotalSources)
	}
	if report.Tool != "verdict" || report.RunID == "" {
		t.Errorf("Tool = %q, RunID = %q", report.Tool, report.RunID)
	}
}

func TestRun_TraversalFindingDropped(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a\n"})

	reviews := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{
				{
					Severity:    review.SeverityCritical,
					Description: "secrets in system file",
					Confidence:  1,
					Location:    &review.Location{Path: "../../etc/passwd", Lines: review.LineRange{Start: 1}},
				},
				{
					Severity:    review.SeverityLow,
					Description: "legit note about package a",
					Confidence:  0.5,
					Location:    &review.Location{Path: "a.go", Lines: review.LineRange{Start: 1}},
				},
			},
		},
	}

	report, err := Run(dir, reviews, nil, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// The traversal finding must not surface anywhere.
	for _, cf := range report.Consensus {
		if strings.Contains(cf.Description, "system file") {
			t.Error("traversal finding surfaced in consensus section")
		}
	}
	for _, sf := range report.SingleSource {
		if strings.Contains(sf.Finding.Finding.Description, "system file") {
			t.Error("traversal finding surfaced in single-source section")
		}
	}
	if len(report.SingleSource) != 1 {
		t.Fatalf("len(SingleSource) = %d, want only the legit finding", len(report.SingleSource))
	}
}

func TestRun_FailedSourceIsData(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a\n"})

	reviews := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{{
				Severity:    review.SeverityMedium,
				Description: "finding from the only surviving source",
				Confidence:  0.7,
				Location:    &review.Location{Path: "a.go", Lines: review.LineRange{Start: 1}},
			}},
		},
	}

	report, err := Run(dir, reviews, []string{"codex:gpt"}, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(report.Consensus) != 0 {
		t.Errorf("len(Consensus) = %d, want 0 with a single source", len(report.Consensus))
	}
	if len(report.SingleSource) != 1 {
		t.Errorf("len(SingleSource) = %d, want 1", len(report.SingleSource))
	}
	if len(report.FailedSources) != 1 || report.FailedSources[0] != "codex:gpt" {
		t.Errorf("FailedSources = %v", report.FailedSources)
	}
	// Failed sources do not count toward coverage.
	if report.TotalSources != 1 {
		t.Errorf("TotalSources = %d, want 1", report.TotalSources)
	}
}

func TestRun_NoSources(t *testing.T) {
	dir := writeTree(t, nil)
	_, err := Run(dir, nil, []string{"claude:sonnet", "codex:gpt"}, review.DefaultConsensusConfig())
	if !errors.Is(err, ErrNoSources) {
		t.Errorf("Run error = %v, want ErrNoSources", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	dir := writeTree(t, map[string]string{"db.ts": dbFile(), "a.go": "package a\nvar x int\n"})

	reviews := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{
				{
					Severity:    review.SeverityHigh,
					Description: "sql injection via string concatenation",
					Confidence:  0.9,
					Location:    &review.Location{Path: "db.ts", Lines: review.LineRange{Start: 42}},
					Evidence:    `const q = "SELECT * FROM users WHERE id = " + userId;`,
				},
				{
					Severity:    review.SeverityLow,
					Description: "unused variable x",
					Confidence:  0.5,
					Location:    &review.Location{Path: "a.go", Lines: review.LineRange{Start: 2}},
				},
			},
			Stances: []review.Stance{{ClaimRef: "claim-1", Agrees: true}},
		},
		"codex:gpt": {
			Findings: []review.Finding{{
				Severity:    review.SeverityHigh,
				Description: "sql injection via string concat",
				Confidence:  0.8,
				Location:    &review.Location{Path: "db.ts", Lines: review.LineRange{Start: 43}},
			}},
			Stances: []review.Stance{{ClaimRef: "claim-1", Agrees: false, Reasoning: "cannot reproduce"}},
		},
	}

	first, err := Run(dir, reviews, []string{"gemini:flash"}, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	second, err := Run(dir, reviews, []string{"gemini:flash"}, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs produced different reports")
	}
	if first.RunID != second.RunID {
		t.Errorf("RunID differs: %s vs %s", first.RunID, second.RunID)
	}
}

func TestRun_RunIDTracksInputs(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a\n"})

	base := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{{
				Severity:    review.SeverityLow,
				Description: "note",
				Confidence:  0.5,
			}},
		},
	}
	changed := map[string]review.SourceReview{
		"claude:sonnet": {
			Findings: []review.Finding{{
				Severity:    review.SeverityLow,
				Description: "a different note",
				Confidence:  0.5,
			}},
		},
	}

	r1, err := Run(dir, base, nil, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	r2, err := Run(dir, changed, nil, review.DefaultConsensusConfig())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if r1.RunID == r2.RunID {
		t.Error("RunID identical for different inputs")
	}
}
