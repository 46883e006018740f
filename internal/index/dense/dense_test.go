package dense

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rexlit/rexlit/internal/gate"
	"github.com/stretchr/testify/require"
)

func TestNullEmbeddingPortRefuses(t *testing.T) {
	var p NullEmbeddingPort
	_, err := p.Embed(context.Background(), "hello")
	require.Error(t, err)
	require.Equal(t, 0, p.Dimensions())
}

func TestStubOnlineEmbeddingPortRefusesWhenGateOffline(t *testing.T) {
	called := false
	port := StubOnlineEmbeddingPort{
		Gate:        gate.Init(false),
		Dimensions_: 8,
		Model:       "stub",
		RequestFunc: func(ctx context.Context, model, text string) ([]float32, error) {
			called = true
			return []float32{1, 2}, nil
		},
	}
	_, err := port.Embed(context.Background(), "hello")
	require.Error(t, err)
	require.False(t, called)
}

func TestStubOnlineEmbeddingPortCallsThroughWhenOnline(t *testing.T) {
	port := StubOnlineEmbeddingPort{
		Gate:        gate.Init(true),
		Dimensions_: 2,
		Model:       "stub",
		RequestFunc: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{0.1, 0.2}, nil
		},
	}
	v, err := port.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2}, v)
}

type recordingSink struct {
	inputs []string
	args   map[string]any
}

func (s *recordingSink) Log(operation string, inputs, outputs []string, args map[string]any) error {
	s.inputs = inputs
	s.args = args
	return nil
}

func TestBatchEmbedLogsTruncatedIDsNotText(t *testing.T) {
	port := StubOnlineEmbeddingPort{
		Gate:        gate.Init(true),
		Dimensions_: 2,
		Model:       "stub",
		RequestFunc: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{0.1, 0.2}, nil
		},
	}
	sink := &recordingSink{}
	sha := "abcdef0123456789abcdef0123456789"
	_, err := BatchEmbed(context.Background(), port, []string{sha}, []string{"very secret privileged text"}, sink)
	require.NoError(t, err)
	require.Equal(t, []string{"abcdef0123456789"}, sink.inputs)
	engine := sink.args["engine"]
	require.Equal(t, "online:stub", engine)
	require.Equal(t, 1, sink.args["batch_size"])
}

func TestLatencyPercentilesOrdered(t *testing.T) {
	samples := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 40 * time.Millisecond}
	p50, p95, p99 := latencyPercentiles(samples)
	require.LessOrEqual(t, p50, p95)
	require.LessOrEqual(t, p95, p99)
}

func TestFaissHNSWStoreAddSearchPersistRoundTrip(t *testing.T) {
	store, err := NewFaissHNSWStore(4)
	require.NoError(t, err)
	require.NoError(t, store.Add("aaa", []float32{1, 0, 0, 0}))
	require.NoError(t, store.Add("bbb", []float32{0, 1, 0, 0}))
	require.Equal(t, 2, store.Count())

	hits, err := store.Search([]float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "aaa", hits[0].SHA256)

	dir := t.TempDir()
	require.NoError(t, store.Persist(dir, "dense"))
	require.FileExists(t, filepath.Join(dir, "dense.meta.json"))
	require.FileExists(t, filepath.Join(dir, "dense.ids"))
	require.FileExists(t, filepath.Join(dir, "dense.vec"))
	require.FileExists(t, filepath.Join(dir, "dense.graph"))

	rebuilt, err := RebuildFromVectors(dir, "dense")
	require.NoError(t, err)
	require.Equal(t, 2, rebuilt.Count())
}
