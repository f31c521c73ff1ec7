package consensus

import "github.com/dshills/verdict/internal/review"

// Consensus score weights: source coverage, mean adjusted confidence,
// severity agreement. They sum to 1.
const (
	weightCoverage   = 0.5
	weightConfidence = 0.3
	weightAgreement  = 0.2
)

// Score computes the calibrated consensus score for a group. It is defined
// only for groups with members from at least two distinct sources; for
// single-source groups it returns (0, false) and the group stays unscored.
func Score(g *review.FindingGroup, totalSources int) (float64, bool) {
	sources := g.DistinctSources()
	if len(sources) < 2 || totalSources < 1 {
		return 0, false
	}

	coverage := float64(len(sources)) / float64(totalSources)
	if coverage > 1 {
		coverage = 1
	}

	var sum float64
	minRank, maxRank := 0, 0
	for i, m := range g.Members {
		sum += m.AdjustedConfidence
		r := review.SeverityRank(m.Finding.Severity)
		if i == 0 || r < minRank {
			minRank = r
		}
		if i == 0 || r > maxRank {
			maxRank = r
		}
	}
	avgConfidence := sum / float64(len(g.Members))

	// 1 when every member reports the same tier, falling toward 0 as the
	// ordinal spread widens across the five tiers.
	agreement := 1 - float64(maxRank-minRank)/4

	score := weightCoverage*coverage + weightConfidence*avgConfidence + weightAgreement*agreement
	return review.ClampConfidence(score), true
}

// ScoreAll scores every group in place.
func ScoreAll(groups []*review.FindingGroup, totalSources int) {
	for _, g := range groups {
		g.Score, g.Scored = Score(g, totalSources)
	}
}
