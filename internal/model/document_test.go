package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManifestRecordRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rec, err := NewManifestRecord(Document{
		SHA256:    "abc123",
		Path:      "/root/a.txt",
		Size:      11,
		MimeType:  "text/plain",
		Custodian: "alice",
		Doctype:   "txt",
		Text:      "hello world",
	}, "rexlit/test", now)
	require.NoError(t, err)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded ManifestRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, rec.Document, decoded.Document)
	require.Equal(t, rec.SchemaStamp, decoded.SchemaStamp)
}

func TestManifestRecordPreservesUnknownFieldsAcrossSchemaVersions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rec, err := NewManifestRecord(Document{SHA256: "abc123", Path: "/root/a.txt"}, "rexlit/test", now)
	require.NoError(t, err)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var withFuture map[string]any
	require.NoError(t, json.Unmarshal(raw, &withFuture))
	withFuture["privilege_flag"] = true
	raw, err = json.Marshal(withFuture)
	require.NoError(t, err)

	var decoded ManifestRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded.Extra, "privilege_flag")

	reemitted, err := json.Marshal(decoded)
	require.NoError(t, err)
	var reparsed map[string]any
	require.NoError(t, json.Unmarshal(reemitted, &reparsed))
	require.Equal(t, true, reparsed["privilege_flag"])
}
