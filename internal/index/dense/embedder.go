package dense

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// AuditSink mirrors the narrow (operation, inputs, outputs, args) -> error
// shape shared across components that log to the audit ledger.
type AuditSink interface {
	Log(operation string, inputs, outputs []string, args map[string]any) error
}

// BatchEmbed calls port.EmbedBatch over texts keyed by sha256, and — when
// audit is non-nil — logs one embedding_batch entry carrying truncated
// identifiers and p50/p95/p99 latency rather than the embedded text
// itself.
func BatchEmbed(ctx context.Context, port EmbeddingPort, sha256s []string, texts []string, audit AuditSink) ([][]float32, error) {
	if len(sha256s) != len(texts) {
		return nil, fmt.Errorf("dense: sha256 and text slices must be the same length (%d != %d)", len(sha256s), len(texts))
	}

	start := time.Now()
	vectors, err := port.EmbedBatch(ctx, texts)
	elapsed := time.Since(start)

	if audit != nil {
		per := elapsed
		if len(texts) > 0 {
			per = elapsed / time.Duration(len(texts))
		}
		samples := make([]time.Duration, len(texts))
		for i := range samples {
			samples[i] = per
		}
		p50, p95, p99 := latencyPercentiles(samples)
		_ = audit.Log("embedding_batch", truncatedIDs(sha256s), nil, map[string]any{
			"engine":       port.Name(),
			"batch_size":   len(texts),
			"p50_ms":       p50.Milliseconds(),
			"p95_ms":       p95.Milliseconds(),
			"p99_ms":       p99.Milliseconds(),
			"total_ms":     elapsed.Milliseconds(),
		})
	}
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// truncatedIDs shortens each sha256 to its first 16 hex characters for
// audit logging, keeping entries compact without losing the ability to
// cross-reference a manifest.
func truncatedIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > 16 {
			out[i] = id[:16]
		} else {
			out[i] = id
		}
	}
	return out
}

// latencyPercentiles computes p50/p95/p99 over samples. Callers with a
// single representative sample per batch item get a degenerate but still
// meaningful distribution.
func latencyPercentiles(samples []time.Duration) (p50, p95, p99 time.Duration) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return percentileOf(sorted, 50), percentileOf(sorted, 95), percentileOf(sorted, 99)
}

func percentileOf(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(p / 100 * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
