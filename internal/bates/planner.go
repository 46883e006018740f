// Package bates implements Bates numbering: a two-phase plan/apply
// workflow over a document set, a collision-checking registry of
// previously assigned ranges, and a pdfcpu-backed stamper that burns
// numbers into page footers.
package bates

import (
	"fmt"

	"github.com/rexlit/rexlit/internal/determinism"
	"github.com/rexlit/rexlit/internal/model"
)

// Entry is one document's assigned Bates range within a Plan.
type Entry struct {
	SHA256   string `json:"sha256"`
	Path     string `json:"path"`
	FamilyID string `json:"family_id,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Pages    int    `json:"pages"`
}

// Plan is the deterministic output of Planner.Plan: a content-addressed
// assignment of Bates numbers to every document in a production set.
type Plan struct {
	PlanID  string  `json:"plan_id"`
	Prefix  string  `json:"prefix"`
	Width   int     `json:"width"`
	Start   int     `json:"start"`
	Entries []Entry `json:"entries"`
}

// Planner assigns sequential Bates numbers to a document set.
type Planner struct {
	Prefix string
	Width  int // zero-pad width; default 6
	Start  int // first number in the range; default 1
}

func (p *Planner) applyDefaults() {
	if p.Width <= 0 {
		p.Width = 6
	}
	if p.Start <= 0 {
		p.Start = 1
	}
}

// pageCount reports the burnable page count for a document; production
// documents with PageCount==0 (e.g. plain text) are treated as 1 page.
func pageCount(d model.Document) int {
	if d.PageCount > 0 {
		return d.PageCount
	}
	return 1
}

// sortKey adapts a model.ManifestRecord for family-aware Bates ordering:
// (family_id or sha256, sha256, path), so members of one email thread
// receive contiguous ranges.
type sortKey struct {
	rec model.ManifestRecord
}

func familyOrSHA(rec model.ManifestRecord) string {
	if rec.Document.FamilyID != "" {
		return rec.Document.FamilyID
	}
	return rec.Document.SHA256
}

// Plan assigns Bates ranges to records in family-aware order and returns a
// Plan whose PlanID is a pure function of the sorted input identities, the
// prefix, width, and start — unchanged inputs always produce an identical
// plan.
func (p *Planner) Plan(records []model.ManifestRecord) Plan {
	p.applyDefaults()

	ordered := append([]model.ManifestRecord(nil), records...)
	sortFamilyAware(ordered)

	entries := make([]Entry, 0, len(ordered))
	n := p.Start
	planInputs := make([]string, 0, len(ordered)+3)
	planInputs = append(planInputs, p.Prefix, fmt.Sprintf("%d", p.Width), fmt.Sprintf("%d", p.Start))

	for _, rec := range ordered {
		pages := pageCount(rec.Document)
		startNum := n
		endNum := n + pages - 1
		entries = append(entries, Entry{
			SHA256:   rec.Document.SHA256,
			Path:     rec.Document.Path,
			FamilyID: rec.Document.FamilyID,
			Start:    formatBates(p.Prefix, p.Width, startNum),
			End:      formatBates(p.Prefix, p.Width, endNum),
			Pages:    pages,
		})
		n = endNum + 1
		planInputs = append(planInputs, rec.Document.SHA256)
	}

	return Plan{
		PlanID:  determinism.ComputePlanID(planInputs),
		Prefix:  p.Prefix,
		Width:   p.Width,
		Start:   p.Start,
		Entries: entries,
	}
}

func formatBates(prefix string, width, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// sortFamilyAware orders records by (family_id or sha256, sha256, path)
// ascending, stable, so every document in one email thread lands in a
// contiguous Bates range even though threads are keyed by hash, not time.
func sortFamilyAware(records []model.ManifestRecord) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && lessFamilyAware(records[j], records[j-1]); j-- {
			records[j-1], records[j] = records[j], records[j-1]
		}
	}
}

func lessFamilyAware(a, b model.ManifestRecord) bool {
	fa, fb := familyOrSHA(a), familyOrSHA(b)
	if fa != fb {
		return fa < fb
	}
	if a.Document.SHA256 != b.Document.SHA256 {
		return a.Document.SHA256 < b.Document.SHA256
	}
	return a.Document.Path < b.Document.Path
}
