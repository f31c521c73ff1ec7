package agents

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/verdict/internal/review"
)

// rawReview is the JSON structure agents are instructed to return. Every
// field is untrusted until validated into the closed types of the review
// package.
type rawReview struct {
	Findings    []rawFinding `json:"findings"`
	Stances     []rawStance  `json:"stances"`
	RiskSummary string       `json:"riskSummary"`
}

type rawFinding struct {
	Severity    string  `json:"severity"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Suggestion  string  `json:"suggestion"`
	Confidence  float64 `json:"confidence"`
	Path        string  `json:"path"`
	StartLine   int     `json:"startLine"`
	EndLine     int     `json:"endLine"`
	Evidence    string  `json:"evidence"`
}

type rawStance struct {
	ClaimRef  string `json:"claimRef"`
	Agrees    bool   `json:"agrees"`
	Reasoning string `json:"reasoning"`
}

// Parse validates an agent's raw output into a well-typed SourceReview.
// This is the trust boundary for shape and vocabulary; the paths and line
// numbers inside remain untrusted and go through verification later.
func Parse(source, content string) (review.SourceReview, error) {
	content = stripCodeFences(content)

	var raw rawReview
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return review.SourceReview{}, fmt.Errorf("invalid JSON object: %w", err)
	}

	sr := review.SourceReview{
		Source:      source,
		RiskSummary: strings.TrimSpace(raw.RiskSummary),
	}

	for i, r := range raw.Findings {
		sev := review.Severity(strings.ToLower(strings.TrimSpace(r.Severity)))
		if !sev.IsValid() {
			return review.SourceReview{}, fmt.Errorf("finding %d: unknown severity %q", i, r.Severity)
		}
		if strings.TrimSpace(r.Description) == "" {
			return review.SourceReview{}, fmt.Errorf("finding %d: missing description", i)
		}

		f := review.Finding{
			Severity:    sev,
			Category:    review.Category(strings.ToLower(strings.TrimSpace(r.Category))),
			Description: strings.TrimSpace(r.Description),
			Suggestion:  strings.TrimSpace(r.Suggestion),
			Confidence:  review.ClampConfidence(r.Confidence),
			Evidence:    r.Evidence,
		}
		if r.Path != "" {
			f.Location = &review.Location{
				Path: r.Path,
				Lines: review.LineRange{
					Start: r.StartLine,
					End:   r.EndLine,
				},
			}
		}
		f.ID = findingID(source, f)
		sr.Findings = append(sr.Findings, f)
	}

	for _, s := range raw.Stances {
		if strings.TrimSpace(s.ClaimRef) == "" {
			continue
		}
		sr.Stances = append(sr.Stances, review.Stance{
			ClaimRef:  strings.TrimSpace(s.ClaimRef),
			Agrees:    s.Agrees,
			Reasoning: strings.TrimSpace(s.Reasoning),
		})
	}

	return sr, nil
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	start := 1
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// findingID is a stable hash of source, path, description, and line.
func findingID(source string, f review.Finding) string {
	var path string
	var line int
	if f.Location != nil {
		path = f.Location.Path
		line = f.Location.Lines.Start
	}
	data := fmt.Sprintf("%s:%s:%s:%d", source, path, f.Description, line)
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h[:8])
}
