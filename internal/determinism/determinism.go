package determinism

import (
	"sort"
	"strings"
	"time"
)

// SortKey is implemented by any record that can be placed in the
// (sha256, path) total order used for manifests, index input batches, and
// Bates family grouping.
type SortKey interface {
	SHA256() string
	SortPath() string
}

// Sort orders records by (sha256, path) ascending, stable.
func Sort[T SortKey](records []T) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.SHA256() != b.SHA256() {
			return a.SHA256() < b.SHA256()
		}
		return a.SortPath() < b.SortPath()
	})
}

// ComputePlanID hashes a sorted, de-duplicated list of input identifiers
// (sha256 values, or sha256 values concatenated with a detector/model
// version) joined by "\n". Callers are responsible for sorting inputs
// first so the result is a pure function of the input set.
func ComputePlanID(inputs []string) string {
	return SHA256Hex([]byte(strings.Join(inputs, "\n")))
}

// SortedUnique returns a sorted copy of ss with duplicates removed.
func SortedUnique(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SchemaStamp carries the provenance fields every versioned record embeds.
type SchemaStamp struct {
	SchemaID      string    `json:"schema_id"`
	SchemaVersion string    `json:"schema_version"`
	Producer      string    `json:"producer"`
	ProducedAt    time.Time `json:"produced_at"`
	ContentHash   string    `json:"content_hash"`
}

// Stamp computes a SchemaStamp for body, a value that will be rendered via
// CanonicalJSON to derive ContentHash. now is passed in explicitly so
// callers (not this package) own the non-deterministic clock read.
func Stamp(body any, schemaID, schemaVersion, producer string, now time.Time) (SchemaStamp, error) {
	raw, err := CanonicalJSON(body)
	if err != nil {
		return SchemaStamp{}, err
	}
	return SchemaStamp{
		SchemaID:      schemaID,
		SchemaVersion: schemaVersion,
		Producer:      producer,
		ProducedAt:    now.UTC(),
		ContentHash:   SHA256Hex(raw),
	}, nil
}

// VerifyDeterminism runs build twice and reports whether the two returned
// artifact hashes are equal — the property any component claiming
// determinism must uphold.
func VerifyDeterminism(build func() (artifactHash string, err error)) (bool, error) {
	first, err := build()
	if err != nil {
		return false, err
	}
	second, err := build()
	if err != nil {
		return false, err
	}
	return first == second, nil
}
