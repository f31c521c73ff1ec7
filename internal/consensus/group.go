package consensus

import (
	"sort"
	"strings"

	"github.com/dshills/verdict/internal/review"
)

const (
	// lineTolerance is how far apart two cited lines may be while still
	// describing the same issue.
	lineTolerance = 5
	// descOverlapThreshold is the minimum token-overlap ratio between two
	// descriptions for a cross-source match.
	descOverlapThreshold = 0.5
)

// Group partitions verified findings into clusters that each describe one
// underlying issue. Greedy first-fit over a stable (path, line, source)
// ordering: deterministic, not globally optimal.
func Group(findings []review.VerifiedFinding) []*review.FindingGroup {
	sorted := make([]review.VerifiedFinding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := findingPath(sorted[i]), findingPath(sorted[j])
		if pi != pj {
			return pi < pj
		}
		li, lj := findingLine(sorted[i]), findingLine(sorted[j])
		if li != lj {
			return li < lj
		}
		return sorted[i].Source < sorted[j].Source
	})

	assigned := make([]bool, len(sorted))
	var groups []*review.FindingGroup

	for i := range sorted {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		g := &review.FindingGroup{Members: []review.VerifiedFinding{sorted[i]}}
		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if matchesGroup(g, sorted[j]) {
				assigned[j] = true
				g.Members = append(g.Members, sorted[j])
			}
		}
		g.Representative = representative(g.Members)
		g.Sources = g.DistinctSources()
		groups = append(groups, g)
	}

	return groups
}

// matchesGroup tests candidate against every current member; one positive
// pairwise match admits it.
func matchesGroup(g *review.FindingGroup, candidate review.VerifiedFinding) bool {
	for _, m := range g.Members {
		if sameIssue(m, candidate) {
			return true
		}
	}
	return false
}

// sameIssue decides whether two verified findings describe one issue.
// Same-source findings only merge when they clearly restate each other at
// the identical location; otherwise they stay distinct claims.
func sameIssue(a, b review.VerifiedFinding) bool {
	if a.Source == b.Source {
		return identicalLocation(a, b)
	}
	if findingPath(a) != findingPath(b) {
		return false
	}
	if identicalLocation(a, b) && a.Finding.Severity == b.Finding.Severity {
		return true
	}
	la, lb := findingLine(a), findingLine(b)
	if la == 0 && lb == 0 {
		return descSimilar(a.Finding.Description, b.Finding.Description)
	}
	if la == 0 || lb == 0 {
		return false
	}
	if la-lb > lineTolerance || lb-la > lineTolerance {
		return false
	}
	return descSimilar(a.Finding.Description, b.Finding.Description)
}

// identicalLocation requires an actual cited location on both sides; a
// missing location is never "identical" to another missing one.
func identicalLocation(a, b review.VerifiedFinding) bool {
	if a.Finding.Location == nil || b.Finding.Location == nil {
		return false
	}
	if findingPath(a) != findingPath(b) {
		return false
	}
	return a.Finding.Location.Lines == b.Finding.Location.Lines
}

// descSimilar: >50% of the shorter description's words in common.
func descSimilar(a, b string) bool {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}
	overlap := 0
	for _, w := range wordsA {
		if setB[w] {
			overlap++
		}
	}
	minLen := len(wordsA)
	if len(wordsB) < minLen {
		minLen = len(wordsB)
	}
	return float64(overlap)/float64(minLen) > descOverlapThreshold
}

// representative picks the highest adjusted-confidence member; ties go to
// the earlier member in sorted order.
func representative(members []review.VerifiedFinding) review.VerifiedFinding {
	best := members[0]
	for _, m := range members[1:] {
		if m.AdjustedConfidence > best.AdjustedConfidence {
			best = m
		}
	}
	return best
}

func findingPath(f review.VerifiedFinding) string {
	if f.ResolvedPath != "" {
		return f.ResolvedPath
	}
	if f.Finding.Location != nil {
		return f.Finding.Location.Path
	}
	return ""
}

func findingLine(f review.VerifiedFinding) int {
	if f.Finding.Location != nil {
		return f.Finding.Location.Lines.Start
	}
	return 0
}
