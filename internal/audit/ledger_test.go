package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.jsonl")
	l, err := Open(path, map[string]string{"rexlit": "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func TestGenesisEntryChainsToZeroHash(t *testing.T) {
	l, _ := openTestLedger(t)
	entry, err := l.Log("ingest", []string{"sha"}, []string{"path"}, nil)
	require.NoError(t, err)
	require.Equal(t, 64, len(entry.PreviousHash))
	for _, c := range entry.PreviousHash {
		require.Equal(t, byte('0'), byte(c))
	}
}

func TestVerifyHoldsOnFreshLedger(t *testing.T) {
	l, _ := openTestLedger(t)
	for i := 0; i < 10; i++ {
		_, err := l.Log("ingest", []string{"a"}, nil, map[string]any{"i": i})
		require.NoError(t, err)
	}
	res, err := l.Verify()
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, -1, res.FirstBadIndex)
}

// TestChainBreakDetection seeds 100 entries, deletes entry 50, and checks
// that Verify reports (false, 50).
func TestChainBreakDetection(t *testing.T) {
	l, path := openTestLedger(t)
	for i := 0; i < 100; i++ {
		_, err := l.Log("ingest", []string{"a"}, nil, map[string]any{"i": i})
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(data)
	require.Len(t, lines, 100)

	rebuilt := append(append([][]byte{}, lines[:50]...), lines[51:]...)
	rebuiltJoined := joinLines(rebuilt)
	require.NoError(t, os.WriteFile(path, rebuiltJoined, 0o644))

	l2, err := Open(path, map[string]string{"rexlit": "test"})
	require.NoError(t, err)
	defer l2.Close()

	res, err := l2.Verify()
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, 50, res.FirstBadIndex)
}

func TestTamperingWithEntryBreaksVerification(t *testing.T) {
	l, path := openTestLedger(t)
	for i := 0; i < 5; i++ {
		_, err := l.Log("ingest", []string{"a"}, nil, nil)
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []Entry
	for _, line := range splitLines(data) {
		var e Entry
		require.NoError(t, json.Unmarshal(line, &e))
		entries = append(entries, e)
	}
	entries[2].Operation = "tampered"
	out, err := Fprint(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, out, 0o644))

	l2, err := Open(path, map[string]string{"rexlit": "test"})
	require.NoError(t, err)
	defer l2.Close()
	res, err := l2.Verify()
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, 2, res.FirstBadIndex)
}

func TestTailReturnsLastN(t *testing.T) {
	l, _ := openTestLedger(t)
	for i := 0; i < 5; i++ {
		_, err := l.Log("ingest", []string{"a"}, nil, map[string]any{"i": i})
		require.NoError(t, err)
	}
	tail, err := l.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, float64(3), tail[0].Args["i"])
	require.Equal(t, float64(4), tail[1].Args["i"])
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	return lines
}

func joinLines(lines [][]byte) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}
