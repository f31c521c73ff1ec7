package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/verdict/internal/review"
)

func sampleReport() *review.ConsensusReport {
	loc := &review.Location{Path: "db.go", Lines: review.LineRange{Start: 42, End: 44}}
	member := review.VerifiedFinding{
		Source: "claude:sonnet",
		Finding: review.Finding{
			Severity:    review.SeverityHigh,
			Category:    review.CategorySecurity,
			Description: "sql injection in query builder",
			Suggestion:  "use parameterized queries",
			Confidence:  0.9,
			Location:    loc,
		},
		Outcome:            review.OutcomeVerifiedExact,
		AdjustedConfidence: 0.99,
	}

	return &review.ConsensusReport{
		Tool:         "verdict",
		Version:      "0.3.0",
		RunID:        "abc123def456",
		Root:         "/work/repo",
		TotalSources: 2,
		Consensus: []review.ConsensusFinding{{
			Description: "sql injection in query builder",
			Severity:    review.SeverityHigh,
			Category:    review.CategorySecurity,
			Suggestion:  "use parameterized queries",
			Location:    loc,
			Score:       0.92,
			Sources:     []string{"claude:sonnet", "codex:gpt"},
			Members:     []review.VerifiedFinding{member},
		}},
		SingleSource: []review.SingleSourceFinding{{
			Source: "codex:gpt",
			Finding: review.VerifiedFinding{
				Source: "codex:gpt",
				Finding: review.Finding{
					Severity:    review.SeverityLow,
					Description: "magic number in timeout",
					Location:    &review.Location{Path: "client.go", Lines: review.LineRange{Start: 7}},
				},
				Outcome:            review.OutcomeVerifiedPartial,
				AdjustedConfidence: 0.4,
			},
			Confidence: 0.4,
		}},
		Disagreements: []review.ClaimDiscussion{{
			ClaimRef: "claim-1",
			Stances: []review.SourceStance{
				{Source: "claude:sonnet", Agrees: true},
				{Source: "codex:gpt", Agrees: false, Reasoning: "cannot reproduce"},
			},
		}},
		Risk:          review.AggregateRisk{Level: review.RiskHigh, Score: 0.73, Summary: "1 consensus finding(s) across 2 sources; highest severity high"},
		FailedSources: []string{"gemini:flash"},
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "markdown", "sarif"} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("GetWriter(xml) succeeded, want error")
	}
}

func TestJSONWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var got review.ConsensusReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.RunID != "abc123def456" {
		t.Errorf("RunID = %q", got.RunID)
	}
	if len(got.Consensus) != 1 || got.Consensus[0].Score != 0.92 {
		t.Errorf("Consensus = %+v", got.Consensus)
	}
	if got.Risk.Level != review.RiskHigh {
		t.Errorf("Risk.Level = %s", got.Risk.Level)
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Verdict Consensus Review",
		"Sources: 2",
		"gemini:flash",
		"CONSENSUS FINDINGS (1)",
		"db.go:42-44",
		"sql injection in query builder",
		"SINGLE-SOURCE FINDINGS (1)",
		"client.go:7",
		"verified_partial",
		"DISAGREEMENTS (1)",
		"cannot reproduce",
		"Run abc123def456",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestTextWriter_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	report := &review.ConsensusReport{
		TotalSources: 2,
		Risk:         review.AggregateRisk{Level: review.RiskMinimal, Summary: "no consensus findings across 2 sources"},
	}
	if err := (&TextWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "No findings survived verification") {
		t.Error("empty report missing the all-clear line")
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"## Verdict Consensus Review",
		"**Risk: HIGH**",
		"| Consensus | 1 |",
		"<details>",
		"sql injection in query builder",
		"Sources: claude:sonnet, codex:gpt",
		"Single-source findings (1)",
		"### Disagreements",
		":x: codex:gpt: cannot reproduce",
		"*Failed sources: gemini:flash*",
		"*Run abc123def456*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if log.Version != "2.1.0" {
		t.Errorf("Version = %q", log.Version)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("len(Runs) = %d, want 1", len(log.Runs))
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "verdict" {
		t.Errorf("Driver.Name = %q", run.Tool.Driver.Name)
	}

	// One result per consensus finding plus one per single-source finding.
	if len(run.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(run.Results))
	}

	consensus := run.Results[0]
	if consensus.Level != "error" {
		t.Errorf("consensus Level = %q, want error for high severity", consensus.Level)
	}
	if len(consensus.Locations) != 1 {
		t.Fatalf("consensus Locations = %d, want 1", len(consensus.Locations))
	}
	region := consensus.Locations[0].PhysicalLocation.Region
	if consensus.Locations[0].PhysicalLocation.ArtifactLocation.URI != "db.go" || region.StartLine != 42 {
		t.Errorf("consensus location = %+v", consensus.Locations[0])
	}
	if len(consensus.Fixes) != 1 {
		t.Errorf("consensus Fixes = %d, want 1 from suggestion", len(consensus.Fixes))
	}

	single := run.Results[1]
	if single.Level != "note" {
		t.Errorf("single-source Level = %q, want note for low severity", single.Level)
	}

	// Rules carry the section tags.
	foundConsensusTag := false
	for _, r := range run.Tool.Driver.Rules {
		for _, tag := range r.Properties.Tags {
			if tag == "consensus" {
				foundConsensusTag = true
			}
		}
	}
	if !foundConsensusTag {
		t.Error("no rule tagged consensus")
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  *review.Location
		want string
	}{
		{"nil", nil, "(no location)"},
		{"path only", &review.Location{Path: "a.go"}, "a.go"},
		{"single line", &review.Location{Path: "a.go", Lines: review.LineRange{Start: 5}}, "a.go:5"},
		{"same start and end", &review.Location{Path: "a.go", Lines: review.LineRange{Start: 5, End: 5}}, "a.go:5"},
		{"range", &review.Location{Path: "a.go", Lines: review.LineRange{Start: 5, End: 9}}, "a.go:5-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLocation(tt.loc); got != tt.want {
				t.Errorf("formatLocation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	short := wrapText("short line", 70)
	if len(short) != 1 || short[0] != "short line" {
		t.Errorf("wrapText(short) = %v", short)
	}

	long := wrapText(strings.Repeat("word ", 40), 20)
	if len(long) < 2 {
		t.Errorf("wrapText(long) = %d lines, want wrapping", len(long))
	}
	for _, line := range long {
		if len(line) > 20 {
			t.Errorf("line %q exceeds width", line)
		}
	}
}
