// Package ingest implements content addressing and text extraction: for
// every accepted path it streams the file, computes an incremental
// SHA-256, dispatches to a format-appropriate extractor, and produces a
// Document plus Manifest Record.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rexlit/rexlit/internal/boundary"
	"github.com/rexlit/rexlit/internal/determinism"
	"github.com/rexlit/rexlit/internal/ingest/extract"
	"github.com/rexlit/rexlit/internal/model"
	"go.uber.org/zap"
)

// AuditSink receives one ingest event per accepted file. It is the same
// shape internal/audit.Ledger.Log takes, expressed structurally here so
// this package does not need to import audit directly (avoiding a
// dependency a file-format extractor has no business taking).
type AuditSink interface {
	Log(operation string, inputs, outputs []string, args map[string]any) error
}

// Options configures a Run.
type Options struct {
	Root          string
	Producer      string
	Registry      *extract.Registry // defaults to extract.DefaultRegistry()
	IncludeHidden bool
	MaxFileSize   int64
	Now           func() time.Time // defaults to time.Now; overridable for deterministic tests
	Audit         AuditSink        // optional
	Logger        *zap.Logger      // optional, defaults to a no-op logger
}

// Run walks Options.Root, extracts every accepted file, and returns the
// resulting manifest records sorted by (sha256, path) for deterministic
// output, plus the boundary violations and per-file warnings encountered
// along the way.
func Run(opts Options) ([]model.ManifestRecord, boundary.Result, error) {
	if opts.Registry == nil {
		opts.Registry = extract.DefaultRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	walkRes, err := boundary.Walk(opts.Root, boundary.Options{
		IncludeHidden: opts.IncludeHidden,
		MaxFileSize:   opts.MaxFileSize,
	})
	if err != nil {
		return nil, walkRes, err
	}
	for _, v := range walkRes.Violations {
		opts.Logger.Warn("boundary violation",
			zap.String("candidate", v.Candidate), zap.String("resolved", v.Resolved), zap.String("root", v.Root))
	}

	records := make([]model.ManifestRecord, 0, len(walkRes.Entries))
	for _, entry := range walkRes.Entries {
		rec, err := ingestOne(opts, entry)
		if err != nil {
			opts.Logger.Warn("extraction failure", zap.String("path", entry.Path), zap.Error(err))
			continue
		}
		records = append(records, rec)

		if opts.Audit != nil {
			if err := opts.Audit.Log("ingest", []string{rec.SHA256}, []string{rec.Path}, map[string]any{
				"custodian": rec.Custodian,
				"doctype":   rec.Doctype,
				"failed":    rec.ExtractFailed,
			}); err != nil {
				opts.Logger.Error("audit log failed", zap.Error(err))
			}
		}
	}

	sortManifestRecords(records)
	return records, walkRes, nil
}

// manifestRecordKey adapts a ManifestRecord to determinism.SortKey.
// ManifestRecord can't implement SHA256()/SortPath() directly since it
// embeds Document, which already has a SHA256 field of that name.
type manifestRecordKey struct{ rec model.ManifestRecord }

func (k manifestRecordKey) SHA256() string   { return k.rec.Document.SHA256 }
func (k manifestRecordKey) SortPath() string { return k.rec.Document.Path }

// sortManifestRecords orders records by (sha256, path) in place.
func sortManifestRecords(records []model.ManifestRecord) {
	keys := make([]manifestRecordKey, len(records))
	for i, r := range records {
		keys[i] = manifestRecordKey{r}
	}
	determinism.Sort(keys)
	for i, k := range keys {
		records[i] = k.rec
	}
}

func ingestOne(opts Options, entry boundary.Entry) (model.ManifestRecord, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return model.ManifestRecord{}, err
	}
	defer f.Close()

	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(f, h))
	if err != nil {
		return model.ManifestRecord{}, err
	}
	sum := hex.EncodeToString(h.Sum(nil))

	ext := Ext(entry.Path)
	doctype := Doctype(ext)
	custodian := Custodian(opts.Root, entry.Path)

	doc := model.Document{
		SHA256:    sum,
		Path:      entry.Path,
		Size:      entry.Size,
		ModTime:   time.Unix(0, entry.ModTime).UTC(),
		MimeType:  extract.SniffMime(data),
		Custodian: custodian,
		Doctype:   doctype,
	}

	res, exErr := opts.Registry.Extract(ext, data)
	if exErr != nil {
		doc.ExtractFailed = true
		doc.ExtractError = exErr.Error()
	} else {
		doc.Text = res.Text
		doc.PageCount = res.PageCount
		doc.Language = res.Language
	}

	if doctype == "email" {
		doc.FamilyID = familyID(doc.Text)
	}

	return model.NewManifestRecord(doc, opts.Producer, opts.Now())
}

var messageIDPattern = regexp.MustCompile(`(?im)^(?:message-id|thread-id):\s*(.+)$`)
var subjectPattern = regexp.MustCompile(`(?im)^subject:\s*(.+)$`)

// familyID derives a thread identity for emails from a normalized
// Message-Id header, falling back to a normalized Subject line when no
// Message-Id is present. Non-email documents carry no family id.
func familyID(text string) string {
	if m := messageIDPattern.FindStringSubmatch(text); m != nil {
		return determinism.SHA256Hex([]byte(normalizeSubject(m[1])))
	}
	if m := subjectPattern.FindStringSubmatch(text); m != nil {
		return determinism.SHA256Hex([]byte(normalizeSubject(m[1])))
	}
	return ""
}

var rePrefix = regexp.MustCompile(`(?i)^(re|fwd|fw):\s*`)

func normalizeSubject(s string) string {
	for {
		trimmed := rePrefix.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return s
}
