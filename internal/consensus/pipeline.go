package consensus

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/verdict/internal/fscache"
	"github.com/dshills/verdict/internal/review"
	"github.com/dshills/verdict/internal/verify"
)

const (
	toolName    = "verdict"
	toolVersion = "0.3.0"
)

// ErrNoSources is returned when every configured source failed: there is
// nothing to synthesize.
var ErrNoSources = errors.New("no successful sources to synthesize")

// Run executes the full pipeline over the given working directory root and
// per-source reviews: verify every claim against the tree, group findings
// across sources, score each group, and synthesize the report. Data flows
// strictly forward; all state is scoped to this one call.
func Run(root string, reviews map[string]review.SourceReview, failedSources []string, cfg review.ConsensusConfig) (*review.ConsensusReport, error) {
	if len(reviews) == 0 {
		return nil, ErrNoSources
	}

	cache, err := fscache.New(root)
	if err != nil {
		return nil, fmt.Errorf("opening working directory: %w", err)
	}

	ordered := orderReviews(reviews)
	prewarm(cache, ordered)

	verified := verify.All(ordered, cache)

	// Traversal-rejected findings are dropped entirely, never downgraded.
	kept := verified[:0:0]
	for _, vf := range verified {
		if vf.Outcome == review.OutcomeRejectedPathTraversal {
			continue
		}
		kept = append(kept, vf)
	}

	groups := Group(kept)
	ScoreAll(groups, len(reviews))

	report := Synthesize(groups, ordered, cfg, failedSources, len(reviews))
	report.Tool = toolName
	report.Version = toolVersion
	report.Root = cache.Root()
	report.RunID = runID(cache.Root(), ordered)
	return report, nil
}

// orderReviews returns reviews sorted by source identifier so the whole
// pass is deterministic regardless of map iteration order.
func orderReviews(reviews map[string]review.SourceReview) []review.SourceReview {
	ids := make([]string, 0, len(reviews))
	for id := range reviews {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]review.SourceReview, 0, len(ids))
	for _, id := range ids {
		sr := reviews[id]
		sr.Source = id
		out = append(out, sr)
	}
	return out
}

// prewarm issues the first read for every distinct cited path concurrently.
// The cache coalesces duplicate reads, so N findings citing one file cost
// one disk read.
func prewarm(cache *fscache.Cache, reviews []review.SourceReview) {
	seen := make(map[string]bool)
	var paths []string
	for _, sr := range reviews {
		for _, f := range sr.Findings {
			if f.Location == nil || f.Location.Path == "" || seen[f.Location.Path] {
				continue
			}
			seen[f.Location.Path] = true
			paths = append(paths, f.Location.Path)
		}
	}

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			// Traversal errors resurface during verification.
			_, _ = cache.Read(path)
		}(p)
	}
	wg.Wait()
}

// runID is a content hash of the inputs, so identical inputs always yield
// an identical report.
func runID(root string, reviews []review.SourceReview) string {
	h := sha256.New()
	h.Write([]byte(root))
	enc := json.NewEncoder(h)
	for _, sr := range reviews {
		_ = enc.Encode(sr)
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:16])
}
