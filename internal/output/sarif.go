package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/verdict/internal/review"
)

// SARIFWriter outputs consensus and single-source findings in SARIF v2.1.0.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.ConsensusReport) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

// sarifEntry flattens the report sections into a uniform result shape.
type sarifEntry struct {
	description string
	severity    review.Severity
	category    review.Category
	suggestion  string
	location    *review.Location
	tags        []string
}

func buildSARIF(report *review.ConsensusReport) sarifLog {
	var entries []sarifEntry
	for _, f := range report.Consensus {
		entries = append(entries, sarifEntry{
			description: f.Description,
			severity:    f.Severity,
			category:    f.Category,
			suggestion:  f.Suggestion,
			location:    f.Location,
			tags:        append([]string{"consensus"}, f.Sources...),
		})
	}
	for _, s := range report.SingleSource {
		f := s.Finding.Finding
		entries = append(entries, sarifEntry{
			description: f.Description,
			severity:    f.Severity,
			category:    f.Category,
			suggestion:  f.Suggestion,
			location:    f.Location,
			tags:        []string{"single-source", string(s.Finding.Outcome), s.Source},
		})
	}

	rulesMap := make(map[string]sarifRule)
	var ruleOrder []string
	var results []sarifResult

	for _, e := range entries {
		ruleID := generateRuleID(e)
		if _, ok := rulesMap[ruleID]; !ok {
			rulesMap[ruleID] = sarifRule{
				ID:               ruleID,
				Name:             string(e.category),
				ShortDescription: sarifMessage{Text: e.description},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(e.severity)},
				Properties:       sarifRuleProperties{Tags: e.tags},
			}
			ruleOrder = append(ruleOrder, ruleID)
		}

		result := sarifResult{
			RuleID:  ruleID,
			Level:   severityToLevel(e.severity),
			Message: sarifMessage{Text: e.description},
		}
		if e.location != nil {
			result.Locations = append(result.Locations, sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: e.location.Path},
					Region: sarifRegion{
						StartLine: e.location.Lines.Start,
						EndLine:   e.location.Lines.End,
					},
				},
			})
		}
		if e.suggestion != "" {
			result.Fixes = append(result.Fixes, sarifFix{
				Description: sarifMessage{Text: e.suggestion},
			})
		}
		results = append(results, result)
	}

	rules := make([]sarifRule, 0, len(ruleOrder))
	for _, rid := range ruleOrder {
		rules = append(rules, rulesMap[rid])
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           report.Tool,
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/verdict",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// severityToLevel maps verdict severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// generateRuleID creates a stable rule ID from category + description.
func generateRuleID(e sarifEntry) string {
	data := fmt.Sprintf("%s/%s", e.category, e.description)
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("verdict/%s/%x", e.category, h[:4])
}
