package hybrid

import (
	"testing"

	"github.com/rexlit/rexlit/internal/index/dense"
	"github.com/rexlit/rexlit/internal/index/lexical"
	"github.com/stretchr/testify/require"
)

func TestFuseCombinesRankingsViaRRF(t *testing.T) {
	lexHits := []lexical.Hit{
		{SHA256: "aaa", Path: "/a.txt"},
		{SHA256: "bbb", Path: "/b.txt"},
	}
	denseHits := []dense.SearchResult{
		{SHA256: "bbb"},
		{SHA256: "aaa"},
	}
	hits, warning := Fuse(lexHits, denseHits)
	require.Nil(t, warning)
	require.Len(t, hits, 2)
	// aaa: rank0 lexical + rank1 dense; bbb: rank1 lexical + rank0 dense.
	// Symmetric ranks give equal RRF scores; tie-break ascending sha256.
	require.Equal(t, "aaa", hits[0].SHA256)
	require.Equal(t, "bbb", hits[1].SHA256)
	require.Equal(t, "hybrid", hits[0].Strategy)
}

func TestFuseDegradesToLexicalWithWarningWhenDenseEmpty(t *testing.T) {
	lexHits := []lexical.Hit{{SHA256: "aaa", Path: "/a.txt"}}
	hits, warning := Fuse(lexHits, nil)
	require.NotNil(t, warning)
	require.Len(t, hits, 1)
	require.Equal(t, "lexical", hits[0].Strategy)
}

func TestFuseReportsSeparateLexicalAndDenseScores(t *testing.T) {
	lexHits := []lexical.Hit{{SHA256: "aaa", Path: "/a.txt"}}
	denseHits := []dense.SearchResult{{SHA256: "bbb"}}
	hits, _ := Fuse(lexHits, denseHits)
	require.Len(t, hits, 2)

	byHash := map[string]Hit{}
	for _, h := range hits {
		byHash[h.SHA256] = h
	}
	require.Greater(t, byHash["aaa"].LexicalScore, 0.0)
	require.Equal(t, 0.0, byHash["aaa"].DenseScore)
	require.Greater(t, byHash["bbb"].DenseScore, 0.0)
	require.Equal(t, 0.0, byHash["bbb"].LexicalScore)
	require.Equal(t, byHash["aaa"].LexicalScore+byHash["aaa"].DenseScore, byHash["aaa"].Score)
}

func TestFuseTieBreaksOnAscendingSHA256(t *testing.T) {
	lexHits := []lexical.Hit{
		{SHA256: "zzz", Path: "/z.txt"},
		{SHA256: "aaa", Path: "/a.txt"},
	}
	denseHits := []dense.SearchResult{
		{SHA256: "aaa"},
		{SHA256: "zzz"},
	}
	hits, _ := Fuse(lexHits, denseHits)
	require.Equal(t, hits[0].Score, hits[1].Score)
	require.Equal(t, "aaa", hits[0].SHA256)
	require.Equal(t, "zzz", hits[1].SHA256)
}
