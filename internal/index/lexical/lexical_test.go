package lexical

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rexlit/rexlit/internal/model"
	"github.com/stretchr/testify/require"
)

func record(sha, path, custodian, doctype, text string) model.ManifestRecord {
	rec, err := model.NewManifestRecord(model.Document{
		SHA256:    sha,
		Path:      path,
		Custodian: custodian,
		Doctype:   doctype,
		Text:      text,
	}, "test", time.Unix(0, 0))
	if err != nil {
		panic(err)
	}
	return rec
}

func TestBuildAndSearchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := []model.ManifestRecord{
		record("a1", "/root/alpha.txt", "Smith Co", "text", "the quarterly earnings call discussed revenue growth"),
		record("b2", "/root/beta.txt", "Jones LLC", "text", "a memo about office supplies"),
	}

	res, err := Build(context.Background(), records, BuildOptions{
		IndexDir:          filepath.Join(dir, "idx"),
		MetadataCachePath: filepath.Join(dir, "metadata_cache.json"),
		Workers:           2,
		BatchSize:         1,
		CommitEvery:       1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.DocCount)

	ix, err := Open(filepath.Join(dir, "idx"))
	require.NoError(t, err)
	defer ix.Close()

	hits, err := ix.Search(SearchOptions{Query: "earnings"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a1", hits[0].SHA256)
	require.Equal(t, "lexical", hits[0].Strategy)
}

func TestSearchFiltersByCustodianAndDoctype(t *testing.T) {
	dir := t.TempDir()
	records := []model.ManifestRecord{
		record("a1", "/root/a.txt", "Smith Co", "text", "revenue growth report"),
		record("b2", "/root/b.pdf", "Jones LLC", "pdf", "revenue growth summary"),
	}
	_, err := Build(context.Background(), records, BuildOptions{
		IndexDir:          filepath.Join(dir, "idx"),
		MetadataCachePath: filepath.Join(dir, "metadata_cache.json"),
	})
	require.NoError(t, err)

	ix, err := Open(filepath.Join(dir, "idx"))
	require.NoError(t, err)
	defer ix.Close()

	hits, err := ix.Search(SearchOptions{Query: "revenue", Doctype: "pdf"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "b2", hits[0].SHA256)
}

func TestSearchTieBreaksOnAscendingSHA256(t *testing.T) {
	dir := t.TempDir()
	records := []model.ManifestRecord{
		record("zzz", "/root/z.txt", "Smith Co", "text", "identical wording here"),
		record("aaa", "/root/a.txt", "Smith Co", "text", "identical wording here"),
	}
	_, err := Build(context.Background(), records, BuildOptions{
		IndexDir:          filepath.Join(dir, "idx"),
		MetadataCachePath: filepath.Join(dir, "metadata_cache.json"),
	})
	require.NoError(t, err)

	ix, err := Open(filepath.Join(dir, "idx"))
	require.NoError(t, err)
	defer ix.Close()

	hits, err := ix.Search(SearchOptions{Query: "identical wording"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "aaa", hits[0].SHA256)
	require.Equal(t, "zzz", hits[1].SHA256)
}
