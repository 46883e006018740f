package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunProducesSortedManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "custodianB"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "custodianA"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "custodianB", "b.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "custodianA", "a.md"), []byte("# Title\ntext"), 0o644))

	records, walkRes, err := Run(Options{
		Root:     root,
		Producer: "rexlit-test",
		Now:      func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	require.Empty(t, walkRes.Violations)
	require.Len(t, records, 2)

	for i := 1; i < len(records); i++ {
		require.True(t, records[i-1].SHA256 < records[i].SHA256 ||
			(records[i-1].SHA256 == records[i].SHA256 && records[i-1].Path < records[i].Path))
	}

	for _, r := range records {
		require.Len(t, r.SHA256, 64)
		require.Equal(t, "rexlit.manifest", r.SchemaStamp.SchemaID)
		require.NotEmpty(t, r.Custodian)
	}
}

func TestRunIsIdempotentOnSameInputs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.txt"), []byte("stable content"), 0o644))

	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	r1, _, err := Run(Options{Root: root, Producer: "t", Now: now})
	require.NoError(t, err)
	r2, _, err := Run(Options{Root: root, Producer: "t", Now: now})
	require.NoError(t, err)

	require.Equal(t, len(r1), len(r2))
	require.Equal(t, r1[0].SHA256, r2[0].SHA256)
	require.Equal(t, r1[0].ContentHash, r2[0].ContentHash)
}

func TestDoctypeAndCustodianHeuristics(t *testing.T) {
	require.Equal(t, "pdf", Doctype("PDF"))
	require.Equal(t, "markdown", Doctype("md"))
	require.Equal(t, "unknown", Doctype("xyz"))

	root := "/case"
	require.Equal(t, "Smith Co", Custodian(root, "/case/smith_co/file.txt"))
}

func TestFamilyIDNormalizesReplyPrefixes(t *testing.T) {
	a := familyID("Subject: Re: Contract Review\nbody")
	b := familyID("Subject: Fwd: Re: Contract Review\nbody")
	require.Equal(t, a, b)
	require.NotEmpty(t, a)
}
