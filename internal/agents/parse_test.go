package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/dshills/verdict/internal/review"
)

const validResponse = `{
  "findings": [
    {
      "severity": "HIGH",
      "category": "security",
      "description": "  sql injection in query builder  ",
      "suggestion": "use parameterized queries",
      "confidence": 0.9,
      "path": "db.go",
      "startLine": 42,
      "endLine": 44,
      "evidence": "q := \"SELECT\" + id"
    },
    {
      "severity": "info",
      "description": "codebase-wide note",
      "confidence": 1.5
    }
  ],
  "stances": [
    {"claimRef": "claim-1", "agrees": false, "reasoning": "false positive"},
    {"claimRef": "  ", "agrees": true}
  ],
  "riskSummary": "moderate risk overall"
}`

func TestParse_Valid(t *testing.T) {
	sr, err := Parse("claude:sonnet", validResponse)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if sr.Source != "claude:sonnet" {
		t.Errorf("Source = %q", sr.Source)
	}
	if len(sr.Findings) != 2 {
		t.Fatalf("len(Findings) = %d, want 2", len(sr.Findings))
	}

	f := sr.Findings[0]
	if f.Severity != review.SeverityHigh {
		t.Errorf("Severity = %s, want high (case-normalized)", f.Severity)
	}
	if f.Description != "sql injection in query builder" {
		t.Errorf("Description = %q, want trimmed", f.Description)
	}
	if f.Location == nil || f.Location.Path != "db.go" || f.Location.Lines.Start != 42 || f.Location.Lines.End != 44 {
		t.Errorf("Location = %+v", f.Location)
	}
	if f.ID == "" {
		t.Error("ID not assigned")
	}

	// Finding without a path carries no location, and its confidence is
	// clamped into [0,1].
	g := sr.Findings[1]
	if g.Location != nil {
		t.Errorf("Location = %+v, want nil", g.Location)
	}
	if g.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", g.Confidence)
	}

	// The blank claimRef stance is dropped.
	if len(sr.Stances) != 1 {
		t.Fatalf("len(Stances) = %d, want 1", len(sr.Stances))
	}
	if sr.Stances[0].ClaimRef != "claim-1" || sr.Stances[0].Agrees {
		t.Errorf("Stances[0] = %+v", sr.Stances[0])
	}
	if sr.RiskSummary != "moderate risk overall" {
		t.Errorf("RiskSummary = %q", sr.RiskSummary)
	}
}

func TestParse_CodeFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	sr, err := Parse("codex:gpt", fenced)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(sr.Findings) != 2 {
		t.Errorf("len(Findings) = %d, want 2", len(sr.Findings))
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"not json", "here are my findings: ...", "invalid JSON"},
		{"unknown severity", `{"findings":[{"severity":"urgent","description":"x"}]}`, "unknown severity"},
		{"missing description", `{"findings":[{"severity":"low","description":"  "}]}`, "missing description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("s", tt.content)
			if err == nil {
				t.Fatal("Parse error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_StableIDs(t *testing.T) {
	a, err := Parse("s", validResponse)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	b, err := Parse("s", validResponse)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if a.Findings[0].ID != b.Findings[0].ID {
		t.Error("same input produced different finding IDs")
	}

	other, err := Parse("other-source", validResponse)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if a.Findings[0].ID == other.Findings[0].ID {
		t.Error("different sources produced identical finding IDs")
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec      string
		wantKind  string
		wantModel string
		wantErr   bool
	}{
		{"claude:claude-sonnet-4-6", "claude", "claude-sonnet-4-6", false},
		{"codex:gpt-5.2-codex", "codex", "gpt-5.2-codex", false},
		{"gemini:gemini-2.5-pro", "gemini", "gemini-2.5-pro", false},
		{"claude", "", "", true},
		{":model", "", "", true},
		{"kind:", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			kind, model, err := ParseSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if kind != tt.wantKind || model != tt.wantModel {
				t.Errorf("ParseSpec(%q) = (%q, %q), want (%q, %q)", tt.spec, kind, model, tt.wantKind, tt.wantModel)
			}
		})
	}
}

func TestRegistry_Kinds(t *testing.T) {
	r := NewRegistry()
	kinds := r.Kinds()
	want := []string{"claude", "codex", "gemini"}
	if len(kinds) != len(want) {
		t.Fatalf("Kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New(context.Background(), "mystery:model"); err == nil {
		t.Error("New for unknown kind succeeded, want error")
	}
}
