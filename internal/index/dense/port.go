// Package dense implements the optional dense-vector retrieval path: an
// EmbeddingPort that turns text into float32 vectors, and a
// VectorStorePort that indexes and searches them. Both are explicit
// capability handles, never package-level singletons, so a run with no
// embedding backend configured degrades to NullEmbeddingPort rather than
// touching the network.
package dense

import (
	"context"
	"time"

	"github.com/rexlit/rexlit/internal/gate"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// EmbeddingPort generates vector embeddings for text, mirroring the
// Embed/EmbedBatch/Dimensions/Name capability set used throughout the
// pack's embedding engines.
type EmbeddingPort interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// NullEmbeddingPort reports zero dimensions and refuses every call. It is
// the default when no embedding backend is configured: the caller must
// detect Dimensions() == 0 and fall back to lexical-only search.
type NullEmbeddingPort struct{}

func (NullEmbeddingPort) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, rexerr.New(rexerr.KindConfigError, "no embedding backend configured", nil)
}

func (NullEmbeddingPort) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, rexerr.New(rexerr.KindConfigError, "no embedding backend configured", nil)
}

func (NullEmbeddingPort) Dimensions() int { return 0 }
func (NullEmbeddingPort) Name() string    { return "null" }

// StubOnlineEmbeddingPort is a network-backed embedding adapter whose every
// dial is gated: it never opens a socket unless gate.Gate.Require grants
// it, so it is safe to wire by default even in an offline-by-default
// deployment. RequestFunc is the injected HTTP call, matching the pack's
// convention of threading an http.Client (or equivalent) through rather
// than reading one from a global.
type StubOnlineEmbeddingPort struct {
	Gate        *gate.Gate
	Dimensions_ int
	Model       string
	RequestFunc func(ctx context.Context, model, text string) ([]float32, error)
}

func (s StubOnlineEmbeddingPort) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.Gate.Require("embedding"); err != nil {
		return nil, err
	}
	return s.RequestFunc(ctx, s.Model, text)
}

func (s StubOnlineEmbeddingPort) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.Gate.Require("embedding"); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.RequestFunc(ctx, s.Model, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s StubOnlineEmbeddingPort) Dimensions() int { return s.Dimensions_ }
func (s StubOnlineEmbeddingPort) Name() string    { return "online:" + s.Model }

// SearchResult is one hit from VectorStorePort.Search.
type SearchResult struct {
	SHA256   string
	Distance float32
}

// VectorStorePort indexes and searches dense vectors keyed by document
// sha256.
type VectorStorePort interface {
	Add(sha256 string, vector []float32) error
	Search(query []float32, k int) ([]SearchResult, error)
	Persist(dir, prefix string) error
	Count() int
}

// EmbeddingBatchReport summarizes one EmbedBatch call for audit logging:
// truncated identifiers (never full text) plus latency percentiles.
type EmbeddingBatchReport struct {
	EngineName string
	BatchSize  int
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
}
