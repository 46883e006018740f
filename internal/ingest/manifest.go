package ingest

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rexlit/rexlit/internal/model"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// WriteManifest writes records, one JSON object per line, to path,
// creating parent directories as needed and fsyncing before return so a
// reader never observes a partially written manifest. Callers are
// expected to pass records already sorted by (sha256, path), as Run
// returns them.
func WriteManifest(path string, records []model.ManifestRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rexerr.Wrap(rexerr.KindGeneric, "creating manifest directory", err, map[string]any{"path": path})
	}

	f, err := os.Create(path)
	if err != nil {
		return rexerr.Wrap(rexerr.KindGeneric, "creating manifest file", err, map[string]any{"path": path})
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return rexerr.Wrap(rexerr.KindGeneric, "marshaling manifest record", err, map[string]any{"sha256": rec.Document.SHA256})
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadManifest reads back a manifest written by WriteManifest.
func ReadManifest(path string) ([]model.ManifestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "opening manifest file", err, map[string]any{"path": path})
	}
	defer f.Close()

	var records []model.ManifestRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.ManifestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, rexerr.Wrap(rexerr.KindGeneric, "parsing manifest record", err, nil)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordsBySHA256 indexes records by their SHA256, the lookup shape
// redaction.Apply and redaction.DriftCheck take as the current record set.
func RecordsBySHA256(records []model.ManifestRecord) map[string]model.ManifestRecord {
	out := make(map[string]model.ManifestRecord, len(records))
	for _, r := range records {
		out[r.Document.SHA256] = r
	}
	return out
}
