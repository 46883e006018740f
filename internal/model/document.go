// Package model defines the record types that cross component boundaries:
// Document, Manifest Record, and the schema envelope they share.
package model

import (
	"encoding/json"
	"time"

	"github.com/rexlit/rexlit/internal/determinism"
)

// ManifestSchemaID is the schema_id stamped on every manifest record.
const ManifestSchemaID = "rexlit.manifest"

// ManifestSchemaVersion is the current manifest schema version this
// implementation produces and understands.
const ManifestSchemaVersion = "1"

// Document is the immutable, content-addressed unit of ingest. Identity
// is SHA256; all downstream artifacts (index, Bates, redaction) reference
// documents only by that hash.
type Document struct {
	SHA256        string `json:"sha256"`
	Path          string `json:"path"` // absolute, resolved, within root
	Size          int64  `json:"size"`
	ModTime       time.Time `json:"mtime"`
	MimeType      string `json:"mime_type"`
	Custodian     string `json:"custodian"`
	Doctype       string `json:"doctype"`
	Text          string `json:"text"`
	PageCount     int    `json:"page_count,omitempty"`
	Language      string `json:"language,omitempty"`
	FamilyID      string `json:"family_id,omitempty"`
	ExtractFailed bool   `json:"extract_failed,omitempty"`
	ExtractError  string `json:"extract_error,omitempty"`
}


// ManifestRecord is one JSONL line of the manifest: the Document fields
// plus the schema envelope and a content hash over the record body.
type ManifestRecord struct {
	Document
	determinism.SchemaStamp
	Extra map[string]json.RawMessage `json:"-"`
}

// NewManifestRecord stamps a Document into a ManifestRecord at producedAt.
func NewManifestRecord(d Document, producer string, producedAt time.Time) (ManifestRecord, error) {
	stamp, err := determinism.Stamp(d, ManifestSchemaID, ManifestSchemaVersion, producer, producedAt)
	if err != nil {
		return ManifestRecord{}, err
	}
	return ManifestRecord{Document: d, SchemaStamp: stamp}, nil
}

// manifestWire is the flattened JSON shape written to disk: Document fields
// plus schema envelope fields (schema_id, schema_version, producer,
// produced_at, content_hash) at the top level.
type manifestWire struct {
	Document
	SchemaID      string    `json:"schema_id"`
	SchemaVersion string    `json:"schema_version"`
	Producer      string    `json:"producer"`
	ProducedAt    time.Time `json:"produced_at"`
	ContentHash   string    `json:"content_hash"`
}

// MarshalJSON flattens the embedded schema stamp alongside the document
// fields, and re-emits any unknown fields preserved from a prior decode.
func (m ManifestRecord) MarshalJSON() ([]byte, error) {
	wire := manifestWire{
		Document:      m.Document,
		SchemaID:      m.SchemaStamp.SchemaID,
		SchemaVersion: m.SchemaStamp.SchemaVersion,
		Producer:      m.SchemaStamp.Producer,
		ProducedAt:    m.SchemaStamp.ProducedAt,
		ContentHash:   m.SchemaStamp.ContentHash,
	}
	base, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes known fields strictly and stashes any remaining
// fields in Extra so a future schema_version can round-trip unknown data.
func (m *ManifestRecord) UnmarshalJSON(data []byte) error {
	var wire manifestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	known, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	var knownFields map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownFields); err != nil {
		return err
	}
	extra := make(map[string]json.RawMessage)
	for k, v := range all {
		if _, ok := knownFields[k]; !ok {
			extra[k] = v
		}
	}
	m.Document = wire.Document
	m.SchemaStamp = determinism.SchemaStamp{
		SchemaID:      wire.SchemaID,
		SchemaVersion: wire.SchemaVersion,
		Producer:      wire.Producer,
		ProducedAt:    wire.ProducedAt,
		ContentHash:   wire.ContentHash,
	}
	if len(extra) > 0 {
		m.Extra = extra
	}
	return nil
}
