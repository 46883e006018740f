package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSymlinkEscapeIsRejected covers a root containing evidence/a.txt and
// a symlink evidence/leak -> /etc/hostname.
// Only a.txt should be accepted; the symlink must be reported as a
// boundary violation and its target's content must never be read.
func TestSymlinkEscapeIsRejected(t *testing.T) {
	root := t.TempDir()
	evidence := filepath.Join(root, "evidence")
	require.NoError(t, os.MkdirAll(evidence, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(evidence, "a.txt"), []byte("hello"), 0o644))

	outside := t.TempDir()
	target := filepath.Join(outside, "hostname")
	require.NoError(t, os.WriteFile(target, []byte("secret-host"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(evidence, "leak")))

	res, err := Walk(root, Options{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Contains(t, res.Entries[0].Path, "a.txt")
	require.Len(t, res.Violations, 1)
	require.Contains(t, res.Violations[0].Candidate, "leak")
}

func TestHiddenFilesSkippedByDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".secret"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o644))

	res, err := Walk(root, Options{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	res, err = Walk(root, Options{IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
}

func TestDeterministicAscendingOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	res, err := Walk(root, Options{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	require.True(t, res.Entries[0].Path < res.Entries[1].Path)
	require.True(t, res.Entries[1].Path < res.Entries[2].Path)
}

func TestOversizedFileSkippedWithWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte("0123456789"), 0o644))
	res, err := Walk(root, Options{MaxFileSize: 5})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Len(t, res.Warnings, 1)
}
