package review

import "testing"

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityCritical, 5},
		{SeverityHigh, 4},
		{SeverityMedium, 3},
		{SeverityLow, 2},
		{SeverityInfo, 1},
		{Severity("bogus"), 0},
		{Severity(""), 0},
	}

	for _, tt := range tests {
		if got := SeverityRank(tt.severity); got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}

	// Ordering must be strictly increasing across the five tiers.
	order := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if SeverityRank(order[i]) <= SeverityRank(order[i-1]) {
			t.Errorf("rank(%s) not above rank(%s)", order[i], order[i-1])
		}
	}
}

func TestSeverityIsValid(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false", s)
		}
	}
	if Severity("urgent").IsValid() {
		t.Error("IsValid(urgent) = true")
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityHigh, "high", true},
		{SeverityCritical, "high", true},
		{SeverityMedium, "high", false},
		{SeverityInfo, "low", false},
		{SeverityLow, "low", true},
		{SeverityCritical, "none", false},
		{SeverityCritical, "", false},
	}

	for _, tt := range tests {
		if got := MeetsThreshold(tt.severity, tt.threshold); got != tt.want {
			t.Errorf("MeetsThreshold(%s, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestOutcomeVerified(t *testing.T) {
	verified := []Outcome{OutcomeVerifiedExact, OutcomeVerifiedPartial}
	for _, o := range verified {
		if !o.Verified() {
			t.Errorf("Verified(%s) = false", o)
		}
	}
	unverified := []Outcome{OutcomeUnverifiable, OutcomeFileNotFound, OutcomeLineOutOfRange, OutcomeEvidenceMismatch, OutcomeRejectedPathTraversal}
	for _, o := range unverified {
		if o.Verified() {
			t.Errorf("Verified(%s) = true", o)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0, 0},
		{1, 1},
		{-0.3, 0},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDistinctSources(t *testing.T) {
	g := &FindingGroup{Members: []VerifiedFinding{
		{Source: "b"},
		{Source: "a"},
		{Source: "b"},
		{Source: "c"},
	}}

	got := g.DistinctSources()
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("DistinctSources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DistinctSources[%d] = %q, want %q (member order preserved)", i, got[i], want[i])
		}
	}
}

func TestDefaultConsensusConfig(t *testing.T) {
	cfg := DefaultConsensusConfig()
	if cfg.MinConsensusThreshold != 0.3 {
		t.Errorf("MinConsensusThreshold = %v, want 0.3", cfg.MinConsensusThreshold)
	}
	if !cfg.IncludeSingleSourceFindings {
		t.Error("IncludeSingleSourceFindings = false, want true")
	}
}
