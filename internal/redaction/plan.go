package redaction

import (
	"github.com/rexlit/rexlit/internal/determinism"
	"github.com/rexlit/rexlit/internal/model"
)

// PlanEntry is one document's detected spans, bound to the exact content
// hash the detection ran over.
type PlanEntry struct {
	SHA256      string `json:"sha256"`
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"` // ManifestRecord.ContentHash at plan time
	Spans       []Span `json:"spans"`
}

// Plan is the deterministic output of Planner.Plan.
type Plan struct {
	PlanID          string      `json:"plan_id"`
	DetectorVersion string      `json:"detector_version"`
	Entries         []PlanEntry `json:"entries"`
}

// Planner runs a Detector over a document set to produce a Plan.
type Planner struct {
	Detector Detector
	// Layouts optionally supplies per-document page boundaries keyed by
	// sha256, for PDF-aware span detection. A document with no entry gets
	// the zero PageLayout (single page).
	Layouts map[string]PageLayout
}

// Plan detects spans across records and returns a Plan whose PlanID is a
// pure function of each record's (sha256, content_hash) pair plus the
// detector version — so a later re-run over unchanged documents with the
// same detector reproduces an identical plan_id, and any change to either
// the document content or the detector invalidates it. A per-document
// detection failure aborts the whole Plan call; callers that need
// per-record fault isolation should filter their input set first.
func (p Planner) Plan(records []model.ManifestRecord) (Plan, error) {
	ordered := append([]model.ManifestRecord(nil), records...)
	sortBySHA256(ordered)

	entries := make([]PlanEntry, 0, len(ordered))
	planInputs := make([]string, 0, len(ordered)+1)
	planInputs = append(planInputs, p.Detector.Version())

	for _, rec := range ordered {
		spans, err := p.Detector.Detect(rec.Document.Text, p.Layouts[rec.Document.SHA256])
		if err != nil {
			return Plan{}, err
		}
		entries = append(entries, PlanEntry{
			SHA256:      rec.Document.SHA256,
			Path:        rec.Document.Path,
			ContentHash: rec.SchemaStamp.ContentHash,
			Spans:       spans,
		})
		planInputs = append(planInputs, rec.Document.SHA256+":"+rec.SchemaStamp.ContentHash)
	}

	return Plan{
		PlanID:          determinism.ComputePlanID(planInputs),
		DetectorVersion: p.Detector.Version(),
		Entries:         entries,
	}, nil
}

// sortBySHA256 orders records by (sha256, path) ascending, stable.
func sortBySHA256(records []model.ManifestRecord) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && lessRecord(records[j], records[j-1]); j-- {
			records[j-1], records[j] = records[j], records[j-1]
		}
	}
}

func lessRecord(a, b model.ManifestRecord) bool {
	if a.Document.SHA256 != b.Document.SHA256 {
		return a.Document.SHA256 < b.Document.SHA256
	}
	return a.Document.Path < b.Document.Path
}
