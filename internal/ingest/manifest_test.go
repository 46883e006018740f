package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "doc.txt")
	require.NoError(t, os.WriteFile(f, []byte("hello world"), 0o644))

	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	records, _, err := Run(Options{Root: root, Producer: "t", Now: now})
	require.NoError(t, err)
	require.Len(t, records, 1)

	manifestPath := filepath.Join(root, "manifest.jsonl")
	require.NoError(t, WriteManifest(manifestPath, records))

	readBack, err := ReadManifest(manifestPath)
	require.NoError(t, err)
	require.Equal(t, records, readBack)
}
