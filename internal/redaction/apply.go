package redaction

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rexlit/rexlit/internal/model"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// AuditSink mirrors the narrow Log(operation, inputs, outputs, args) shape
// shared across components that write to the audit ledger.
type AuditSink interface {
	Log(operation string, inputs, outputs []string, args map[string]any) error
}

// ApplyOptions configures Apply.
type ApplyOptions struct {
	Root        string // redacted copies are written under <root>/redaction/applied
	Force       bool
	DryRun      bool
	Audit       AuditSink
	ResolvePath func(sha256, originalPath string) string // defaults to originalPath
	Redact      func(text string, spans []Span) string   // defaults to blackOutSpans
}

// ApplyResult summarizes one Apply call.
type ApplyResult struct {
	Plan    Plan
	Written []string // output paths, empty in dry-run mode
	DryRun  bool
	Drifted []Drift // entries whose current content_hash no longer matches the plan
}

// Drift describes one document whose recorded identity no longer matches
// its current state: either it has vanished from the current set
// (re-ingest produced a different sha256 for that path) or its content
// hash has changed while sha256 stayed the same (a manifest re-stamp).
type Drift struct {
	SHA256       string `json:"sha256"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
}

// DriftCheck compares plan's captured content hashes against current,
// keyed by sha256, and reports every entry whose document has changed
// since the plan was computed.
func DriftCheck(plan Plan, current map[string]model.ManifestRecord) []Drift {
	var drifted []Drift
	for _, e := range plan.Entries {
		rec, ok := current[e.SHA256]
		switch {
		case !ok:
			drifted = append(drifted, Drift{SHA256: e.SHA256, ExpectedHash: e.ContentHash, ActualHash: ""})
		case rec.SchemaStamp.ContentHash != e.ContentHash:
			drifted = append(drifted, Drift{SHA256: e.SHA256, ExpectedHash: e.ContentHash, ActualHash: rec.SchemaStamp.ContentHash})
		}
	}
	sort.Slice(drifted, func(i, j int) bool { return drifted[i].SHA256 < drifted[j].SHA256 })
	return drifted
}

// Apply redacts every entry in plan against current document state,
// aborting on any content drift unless Force is set. A forced apply over
// drifted documents proceeds using the plan's originally detected spans —
// which may no longer align with the current text — and records a
// redaction_force_override audit entry so the discrepancy is traceable.
func Apply(plan Plan, current map[string]model.ManifestRecord, opts ApplyOptions) (ApplyResult, error) {
	drifted := DriftCheck(plan, current)
	if len(drifted) > 0 && !opts.Force {
		return ApplyResult{}, rexerr.New(rexerr.KindHashMismatch, "redaction plan is stale: document content has changed since spans were detected", map[string]any{
			"plan_id": plan.PlanID,
			"drifted": drifted,
		})
	}
	if len(drifted) > 0 && opts.Audit != nil {
		_ = opts.Audit.Log("redaction_force_override", []string{plan.PlanID}, nil, map[string]any{
			"drifted": drifted,
		})
	}

	if opts.DryRun {
		return ApplyResult{Plan: plan, DryRun: true, Drifted: drifted}, nil
	}

	redact := opts.Redact
	if redact == nil {
		redact = blackOutSpans
	}

	outDir := filepath.Join(opts.Root, "redaction", "applied")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ApplyResult{}, rexerr.Wrap(rexerr.KindGeneric, "creating redaction output directory", err, nil)
	}

	var written []string
	for _, e := range plan.Entries {
		rec, ok := current[e.SHA256]
		if !ok {
			continue
		}
		redacted := redact(rec.Document.Text, e.Spans)
		outPath := filepath.Join(outDir, e.SHA256+".txt")
		if err := writeAtomic(outPath, []byte(redacted)); err != nil {
			return ApplyResult{}, err
		}
		written = append(written, outPath)
	}

	if opts.Audit != nil {
		ids := make([]string, len(plan.Entries))
		for i, e := range plan.Entries {
			ids[i] = e.SHA256
		}
		_ = opts.Audit.Log("redaction_apply", ids, written, map[string]any{
			"plan_id":          plan.PlanID,
			"detector_version": plan.DetectorVersion,
		})
	}

	return ApplyResult{Plan: plan, Written: written, Drifted: drifted}, nil
}

// writeAtomic writes data to a temp file in the same directory as path and
// renames it into place, so a reader never observes a partially written
// redacted document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".redact-*")
	if err != nil {
		return rexerr.Wrap(rexerr.KindGeneric, "creating temp file for redacted output", err, map[string]any{"path": path})
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return rexerr.Wrap(rexerr.KindGeneric, "writing redacted output", err, map[string]any{"path": path})
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return rexerr.Wrap(rexerr.KindGeneric, "syncing redacted output", err, map[string]any{"path": path})
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return rexerr.Wrap(rexerr.KindGeneric, "closing redacted output", err, map[string]any{"path": path})
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return rexerr.Wrap(rexerr.KindGeneric, "renaming redacted output into place", err, map[string]any{"path": path})
	}
	return nil
}

// blackOutSpans replaces each span's text with a run of the same byte
// length of '#' characters, preserving offsets for any downstream
// consumer that still expects span boundaries to line up with the
// original text.
func blackOutSpans(text string, spans []Span) string {
	b := []byte(text)
	for _, s := range spans {
		if s.Start < 0 || s.End > len(b) || s.Start >= s.End {
			continue
		}
		for i := s.Start; i < s.End; i++ {
			b[i] = '#'
		}
	}
	return string(b)
}
