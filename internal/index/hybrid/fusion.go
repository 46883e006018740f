// Package hybrid fuses lexical and dense search results via Reciprocal
// Rank Fusion, falling back to lexical-only with a warning when the dense
// path is unavailable.
package hybrid

import (
	"sort"

	"github.com/rexlit/rexlit/internal/index/dense"
	"github.com/rexlit/rexlit/internal/index/lexical"
)

const rrfK = 60

// Hit is one fused search result. LexicalScore and DenseScore are each
// document's raw RRF contribution from that ranking alone (0 when the
// document did not appear in that list); Score is their sum.
type Hit struct {
	SHA256       string
	Path         string
	Score        float64
	LexicalScore float64
	DenseScore   float64
	Strategy     string // "hybrid" or "lexical" (degraded mode)
}

// Warning is returned alongside Hits when the dense path was skipped.
type Warning struct {
	Reason string
}

// Fuse combines lexical.Hit and dense.SearchResult rankings via Reciprocal
// Rank Fusion (score 1/(k+rank), summed per document, k=60), tie-broken on
// ascending sha256. When dense is empty, results degrade to lexical rank
// order alone and a Warning is returned.
func Fuse(lexHits []lexical.Hit, denseHits []dense.SearchResult) ([]Hit, *Warning) {
	var warning *Warning
	if len(denseHits) == 0 {
		warning = &Warning{Reason: "dense index unavailable or empty; results are lexical-only"}
	}

	lexScores := make(map[string]float64)
	denseScores := make(map[string]float64)
	paths := make(map[string]string)

	for rank, h := range lexHits {
		lexScores[h.SHA256] += 1.0 / float64(rrfK+rank+1)
		paths[h.SHA256] = h.Path
	}
	for rank, h := range denseHits {
		denseScores[h.SHA256] += 1.0 / float64(rrfK+rank+1)
		if _, ok := paths[h.SHA256]; !ok {
			paths[h.SHA256] = ""
		}
	}

	seen := make(map[string]bool, len(lexScores)+len(denseScores))
	hits := make([]Hit, 0, len(lexScores)+len(denseScores))
	strategy := "hybrid"
	if len(denseHits) == 0 {
		strategy = "lexical"
	}
	for sha := range lexScores {
		seen[sha] = true
	}
	for sha := range denseScores {
		seen[sha] = true
	}
	for sha := range seen {
		lex, den := lexScores[sha], denseScores[sha]
		hits = append(hits, Hit{
			SHA256:       sha,
			Path:         paths[sha],
			Score:        lex + den,
			LexicalScore: lex,
			DenseScore:   den,
			Strategy:     strategy,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SHA256 < hits[j].SHA256
	})

	return hits, warning
}
