package review

// Severity represents the severity tier of a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a numeric rank for ordering (higher = more severe).
// This ordering is the single source of truth for the verifier, grouper,
// and scorer; nothing else may compare severities directly.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether s is a recognized severity tier.
func (s Severity) IsValid() bool {
	return SeverityRank(s) > 0
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Category represents the type of finding.
type Category string

const (
	CategoryBug             Category = "bug"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryCorrectness     Category = "correctness"
	CategoryStyle           Category = "style"
	CategoryMaintainability Category = "maintainability"
	CategoryTesting         Category = "testing"
	CategoryDocs            Category = "docs"
)

// LineRange represents a range of line numbers. A zero Start means the
// source did not cite a line.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Location is where a source claims a finding lives. The path is kept
// exactly as the source gave it and is untrusted until resolved by the
// file cache.
type Location struct {
	Path  string    `json:"path"`
	Lines LineRange `json:"lines"`
}

// Finding represents a single issue reported by one source.
type Finding struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Category    Category  `json:"category,omitempty"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion,omitempty"`
	Confidence  float64   `json:"confidence"`
	Location    *Location `json:"location,omitempty"`
	Evidence    string    `json:"evidence,omitempty"`
}

// Stance is one source's position on a previously raised claim.
type Stance struct {
	ClaimRef  string `json:"claimRef"`
	Agrees    bool   `json:"agrees"`
	Reasoning string `json:"reasoning,omitempty"`
}

// SourceReview is the full validated output of one review source.
type SourceReview struct {
	Source      string    `json:"source"`
	Findings    []Finding `json:"findings"`
	Stances     []Stance  `json:"stances,omitempty"`
	RiskSummary string    `json:"riskSummary,omitempty"`
}

// Outcome is the tagged result of checking a finding against the filesystem.
type Outcome string

const (
	OutcomeUnverifiable          Outcome = "unverifiable"
	OutcomeVerifiedExact         Outcome = "verified_exact"
	OutcomeVerifiedPartial       Outcome = "verified_partial"
	OutcomeFileNotFound          Outcome = "file_not_found"
	OutcomeLineOutOfRange        Outcome = "line_out_of_range"
	OutcomeEvidenceMismatch      Outcome = "evidence_mismatch"
	OutcomeRejectedPathTraversal Outcome = "rejected_path_traversal"
)

// Verified reports whether the outcome confirms the cited location.
func (o Outcome) Verified() bool {
	return o == OutcomeVerifiedExact || o == OutcomeVerifiedPartial
}

// VerifiedFinding is a finding plus its verification outcome and the
// confidence after decay or boost, always re-clamped to [0,1].
type VerifiedFinding struct {
	Source             string  `json:"source"`
	Finding            Finding `json:"finding"`
	Outcome            Outcome `json:"outcome"`
	AdjustedConfidence float64 `json:"adjustedConfidence"`
	ResolvedPath       string  `json:"resolvedPath,omitempty"`
}

// FindingGroup is a non-empty cluster of verified findings judged to
// describe one underlying issue. Representative fields come from the
// highest-confidence member.
type FindingGroup struct {
	Members        []VerifiedFinding `json:"members"`
	Representative VerifiedFinding   `json:"representative"`
	Sources        []string          `json:"sources"`
	Score          float64           `json:"score"`
	Scored         bool              `json:"scored"`
}

// DistinctSources returns the distinct source identifiers in member order.
func (g *FindingGroup) DistinctSources() []string {
	seen := make(map[string]bool, len(g.Members))
	var out []string
	for _, m := range g.Members {
		if !seen[m.Source] {
			seen[m.Source] = true
			out = append(out, m.Source)
		}
	}
	return out
}

// ConsensusConfig controls consensus promotion and report contents.
type ConsensusConfig struct {
	MinConsensusThreshold       float64 `json:"minConsensusThreshold"`
	IncludeSingleSourceFindings bool    `json:"includeSingleSourceFindings"`
}

// DefaultConsensusConfig returns the documented defaults.
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		MinConsensusThreshold:       0.3,
		IncludeSingleSourceFindings: true,
	}
}

// ConsensusFinding is one group promoted to the consensus section.
type ConsensusFinding struct {
	Description string            `json:"description"`
	Severity    Severity          `json:"severity"`
	Category    Category          `json:"category,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Location    *Location         `json:"location,omitempty"`
	Score       float64           `json:"score"`
	Sources     []string          `json:"sources"`
	Members     []VerifiedFinding `json:"members"`
}

// SingleSourceFinding is a finding no second source corroborated. It keeps
// its decayed, unboosted confidence and its verification outcome so the
// reader can audit why it was not promoted.
type SingleSourceFinding struct {
	Source     string          `json:"source"`
	Finding    VerifiedFinding `json:"finding"`
	Confidence float64         `json:"confidence"`
}

// SourceStance is one source's recorded position inside a merged claim.
type SourceStance struct {
	Source    string `json:"source"`
	Agrees    bool   `json:"agrees"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ClaimDiscussion merges every stance raised about one original claim.
// Conflicting stances are retained side by side, never averaged away.
type ClaimDiscussion struct {
	ClaimRef string         `json:"claimRef"`
	Stances  []SourceStance `json:"stances"`
}

// RiskLevel is the ordinal aggregate risk scale.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AggregateRisk summarizes overall risk across consensus findings.
type AggregateRisk struct {
	Level   RiskLevel `json:"level"`
	Score   float64   `json:"score"`
	Summary string    `json:"summary"`
}

// ConsensusReport is the top-level synthesized output. It is a pure value:
// any rendering must be reproducible from it alone.
type ConsensusReport struct {
	Tool          string                `json:"tool"`
	Version       string                `json:"version"`
	RunID         string                `json:"runId"`
	Root          string                `json:"root"`
	TotalSources  int                   `json:"totalSources"`
	Consensus     []ConsensusFinding    `json:"consensus"`
	SingleSource  []SingleSourceFinding `json:"singleSource,omitempty"`
	Agreements    []ClaimDiscussion     `json:"agreements,omitempty"`
	Disagreements []ClaimDiscussion     `json:"disagreements,omitempty"`
	Risk          AggregateRisk         `json:"risk"`
	FailedSources []string              `json:"failedSources,omitempty"`
}

// ClampConfidence clamps c into [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
