package determinism

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rec struct {
	sha  string
	path string
}

func (r rec) SHA256() string   { return r.sha }
func (r rec) SortPath() string { return r.path }

func TestSortBySHAThenPath(t *testing.T) {
	records := []rec{
		{"bbb", "z.txt"},
		{"aaa", "b.txt"},
		{"aaa", "a.txt"},
	}
	Sort(records)
	require.Equal(t, []rec{{"aaa", "a.txt"}, {"aaa", "b.txt"}, {"bbb", "z.txt"}}, records)
}

func TestCanonicalJSONSortsKeysAndIsStable(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "nested": map[string]any{"z": 1, "y": 2}}
	out1, err := CanonicalJSON(a)
	require.NoError(t, err)
	out2, err := CanonicalJSON(a)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
	require.Equal(t, `{"a":2,"b":1,"nested":{"y":2,"z":1}}`, string(out1))
}

func TestComputePlanIDIsPureFunctionOfSortedInputs(t *testing.T) {
	inputs := SortedUnique([]string{"c", "a", "b", "a"})
	require.Equal(t, []string{"a", "b", "c"}, inputs)
	id1 := ComputePlanID(inputs)
	id2 := ComputePlanID(inputs)
	require.Equal(t, id1, id2)
	require.Len(t, id1, 64)
}

func TestStampComputesContentHash(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stamp, err := Stamp(map[string]any{"x": 1}, "rexlit.manifest", "1", "rexlit", now)
	require.NoError(t, err)
	require.Equal(t, "rexlit.manifest", stamp.SchemaID)
	require.Len(t, stamp.ContentHash, 64)
	require.Equal(t, now, stamp.ProducedAt)
}

func TestVerifyDeterminismDetectsDrift(t *testing.T) {
	ok, err := VerifyDeterminism(func() (string, error) { return "same", nil })
	require.NoError(t, err)
	require.True(t, ok)

	calls := 0
	ok, err = VerifyDeterminism(func() (string, error) {
		calls++
		if calls == 1 {
			return "a", nil
		}
		return "b", nil
	})
	require.NoError(t, err)
	require.False(t, ok)
}
