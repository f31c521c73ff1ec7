package consensus

import (
	"fmt"
	"sort"

	"github.com/dshills/verdict/internal/review"
)

// Synthesize assembles the final report from scored groups, stance records,
// and the failed-source list. Partial source failure is data, never an
// error; callers guarantee at least one successful source.
func Synthesize(groups []*review.FindingGroup, reviews []review.SourceReview, cfg review.ConsensusConfig, failedSources []string, totalSources int) *review.ConsensusReport {
	report := &review.ConsensusReport{
		TotalSources:  totalSources,
		FailedSources: sortedCopy(failedSources),
	}

	for _, g := range groups {
		if g.Scored && g.Score >= cfg.MinConsensusThreshold {
			report.Consensus = append(report.Consensus, promote(g))
			continue
		}
		if !g.Scored && cfg.IncludeSingleSourceFindings {
			for _, m := range g.Members {
				report.SingleSource = append(report.SingleSource, review.SingleSourceFinding{
					Source:     m.Source,
					Finding:    m,
					Confidence: unboostedConfidence(m),
				})
			}
		}
	}

	sort.SliceStable(report.Consensus, func(i, j int) bool {
		ri := review.SeverityRank(report.Consensus[i].Severity)
		rj := review.SeverityRank(report.Consensus[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return report.Consensus[i].Score > report.Consensus[j].Score
	})

	sort.SliceStable(report.SingleSource, func(i, j int) bool {
		ri := review.SeverityRank(report.SingleSource[i].Finding.Finding.Severity)
		rj := review.SeverityRank(report.SingleSource[j].Finding.Finding.Severity)
		if ri != rj {
			return ri > rj
		}
		return report.SingleSource[i].Confidence > report.SingleSource[j].Confidence
	})

	report.Agreements, report.Disagreements = mergeStances(reviews)
	report.Risk = aggregateRisk(report.Consensus, totalSources)

	return report
}

// unboostedConfidence strips the exact-match reward: a finding no other
// source corroborates keeps its decays but does not earn the boost.
func unboostedConfidence(m review.VerifiedFinding) float64 {
	if m.Outcome == review.OutcomeVerifiedExact {
		return review.ClampConfidence(m.Finding.Confidence)
	}
	return m.AdjustedConfidence
}

func promote(g *review.FindingGroup) review.ConsensusFinding {
	rep := g.Representative
	return review.ConsensusFinding{
		Description: rep.Finding.Description,
		Severity:    rep.Finding.Severity,
		Category:    rep.Finding.Category,
		Suggestion:  rep.Finding.Suggestion,
		Location:    rep.Finding.Location,
		Score:       g.Score,
		Sources:     g.Sources,
		Members:     g.Members,
	}
}

// mergeStances folds every source's agree/disagree positions into one
// record per original claim. A claim with any dissent is a disagreement;
// every source's stance is retained either way.
func mergeStances(reviews []review.SourceReview) (agreements, disagreements []review.ClaimDiscussion) {
	byClaim := make(map[string][]review.SourceStance)
	for _, sr := range reviews {
		for _, st := range sr.Stances {
			byClaim[st.ClaimRef] = append(byClaim[st.ClaimRef], review.SourceStance{
				Source:    sr.Source,
				Agrees:    st.Agrees,
				Reasoning: st.Reasoning,
			})
		}
	}

	refs := make([]string, 0, len(byClaim))
	for ref := range byClaim {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	for _, ref := range refs {
		stances := byClaim[ref]
		sort.SliceStable(stances, func(i, j int) bool {
			return stances[i].Source < stances[j].Source
		})
		d := review.ClaimDiscussion{ClaimRef: ref, Stances: stances}
		conflicted := false
		for _, s := range stances {
			if !s.Agrees {
				conflicted = true
				break
			}
		}
		if conflicted {
			disagreements = append(disagreements, d)
		} else {
			agreements = append(agreements, d)
		}
	}
	return agreements, disagreements
}

// aggregateRisk derives the overall risk from the highest-severity
// consensus finding weighted by its score, mapped onto the fixed ordinal
// scale.
func aggregateRisk(consensus []review.ConsensusFinding, totalSources int) review.AggregateRisk {
	if len(consensus) == 0 {
		return review.AggregateRisk{
			Level:   review.RiskMinimal,
			Score:   0,
			Summary: fmt.Sprintf("no consensus findings across %d sources", totalSources),
		}
	}

	// Consensus is already ordered severity desc then score desc.
	top := consensus[0]
	score := review.ClampConfidence(float64(review.SeverityRank(top.Severity)) / 5 * top.Score)

	var level review.RiskLevel
	switch {
	case score >= 0.8:
		level = review.RiskCritical
	case score >= 0.6:
		level = review.RiskHigh
	case score >= 0.4:
		level = review.RiskMedium
	case score >= 0.2:
		level = review.RiskLow
	default:
		level = review.RiskMinimal
	}

	return review.AggregateRisk{
		Level: level,
		Score: score,
		Summary: fmt.Sprintf("%d consensus finding(s) across %d sources; highest severity %s",
			len(consensus), totalSources, top.Severity),
	}
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
