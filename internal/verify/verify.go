package verify

import (
	"strings"

	"github.com/dshills/verdict/internal/fscache"
	"github.com/dshills/verdict/internal/review"
)

const (
	// decayFactor is applied to confidence when a cited file, line, or
	// quoted evidence fails to check out against the working tree.
	decayFactor = 0.2
	// boostFactor rewards an exact evidence match, capped at 1.
	boostFactor = 1.1
	// exactThreshold and partialThreshold bound the similarity bands for
	// evidence comparison.
	exactThreshold   = 0.8
	partialThreshold = 0.4
	// contextLines is how far around the cited line the snippet extends.
	contextLines = 3
)

// Verify checks one finding's location and evidence claims against the
// filesystem through the cache and returns it with a tagged outcome and an
// adjusted confidence. It is deterministic: the same finding against the
// same tree always yields the same result.
func Verify(source string, f review.Finding, cache *fscache.Cache) review.VerifiedFinding {
	vf := review.VerifiedFinding{
		Source:             source,
		Finding:            f,
		AdjustedConfidence: review.ClampConfidence(f.Confidence),
	}

	// No location: nothing to check. Not a pass, not a failure.
	if f.Location == nil || strings.TrimSpace(f.Location.Path) == "" {
		vf.Outcome = review.OutcomeUnverifiable
		return vf
	}

	resolved, err := cache.Resolve(f.Location.Path)
	if err != nil {
		// Security violation: the finding is dropped downstream, not
		// merely downgraded.
		vf.Outcome = review.OutcomeRejectedPathTraversal
		return vf
	}
	vf.ResolvedPath = resolved

	info, err := cache.Read(f.Location.Path)
	if err != nil {
		vf.Outcome = review.OutcomeRejectedPathTraversal
		return vf
	}
	if !info.Exists {
		vf.Outcome = review.OutcomeFileNotFound
		vf.AdjustedConfidence = review.ClampConfidence(vf.AdjustedConfidence * decayFactor)
		return vf
	}

	line := f.Location.Lines.Start
	if line != 0 && (line < 1 || line > info.LineCount) {
		vf.Outcome = review.OutcomeLineOutOfRange
		vf.AdjustedConfidence = review.ClampConfidence(vf.AdjustedConfidence * decayFactor)
		return vf
	}
	if end := f.Location.Lines.End; end != 0 && (end < line || end > info.LineCount) {
		vf.Outcome = review.OutcomeLineOutOfRange
		vf.AdjustedConfidence = review.ClampConfidence(vf.AdjustedConfidence * decayFactor)
		return vf
	}

	// Location exists but the specific claim is unconfirmed without both a
	// line and quoted evidence to compare.
	if line == 0 || strings.TrimSpace(f.Evidence) == "" {
		vf.Outcome = review.OutcomeVerifiedPartial
		return vf
	}

	snippet, err := cache.Snippet(f.Location.Path, line, contextLines)
	if err != nil {
		vf.Outcome = review.OutcomeVerifiedPartial
		return vf
	}

	sim := Similarity(f.Evidence, strings.Join(snippet, "\n"))
	switch {
	case sim >= exactThreshold:
		vf.Outcome = review.OutcomeVerifiedExact
		vf.AdjustedConfidence = review.ClampConfidence(vf.AdjustedConfidence * boostFactor)
	case sim >= partialThreshold:
		vf.Outcome = review.OutcomeVerifiedPartial
	default:
		vf.Outcome = review.OutcomeEvidenceMismatch
		vf.AdjustedConfidence = review.ClampConfidence(vf.AdjustedConfidence * decayFactor)
	}
	return vf
}

// All verifies every finding in every source review against one cache.
// Iteration order follows the input slice order within each review.
func All(reviews []review.SourceReview, cache *fscache.Cache) []review.VerifiedFinding {
	var out []review.VerifiedFinding
	for _, sr := range reviews {
		for _, f := range sr.Findings {
			out = append(out, Verify(sr.Source, f, cache))
		}
	}
	return out
}

// Similarity measures how closely the quoted evidence matches the cited
// snippet, after lowercasing and whitespace collapsing. A normalized
// substring in either direction counts as a full match; otherwise it is
// the token-overlap ratio against the shorter side.
func Similarity(evidence, snippet string) float64 {
	e := normalize(evidence)
	s := normalize(snippet)
	if e == "" || s == "" {
		return 0
	}
	if strings.Contains(s, e) || strings.Contains(e, s) {
		return 1
	}

	tokensE := strings.Fields(e)
	tokensS := strings.Fields(s)
	set := make(map[string]bool, len(tokensS))
	for _, t := range tokensS {
		set[t] = true
	}
	overlap := 0
	for _, t := range tokensE {
		if set[t] {
			overlap++
		}
	}
	minLen := len(tokensE)
	if len(tokensS) < minLen {
		minLen = len(tokensS)
	}
	if minLen == 0 {
		return 0
	}
	return float64(overlap) / float64(minLen)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
