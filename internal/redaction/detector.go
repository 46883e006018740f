// Package redaction implements the plan/apply PII redaction workflow:
// detect spans in extracted text, hash-bind a plan to the exact document
// content it was computed over, and apply only when that binding still
// holds.
package redaction

import "regexp"

// Span is one detected region of sensitive text, given as byte offsets
// into the document's extracted text.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"` // e.g. "ssn", "email", "phone", "credit_card"
}

// PageLayout carries the byte offsets (into the document's extracted text)
// where each PDF page begins, so a Detector — or the preview overlay that
// consumes its spans — can map a text span back to the page it falls on.
// A nil or empty PageLayout means the caller has no page boundaries (e.g.
// the document is plain text) and every span is treated as page 1.
type PageLayout struct {
	PageBreaks []int
}

// PageOf returns the 1-indexed page containing byte offset pos.
func (l PageLayout) PageOf(pos int) int {
	page := 1
	for _, brk := range l.PageBreaks {
		if pos < brk {
			break
		}
		page++
	}
	return page
}

// Detector finds sensitive spans in text.
type Detector interface {
	Detect(text string, layout PageLayout) ([]Span, error)
	// Version identifies this detector's ruleset; it is folded into the
	// redaction plan id so a detector upgrade invalidates stale plans.
	Version() string
}

var (
	ssnPattern    = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern  = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	ccPattern     = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
)

// RegexDetectorAdapter is a reference PII detector built on a fixed set of
// regular expressions. It trades recall for determinism and offline
// operation: no model call, same input always yields the same spans.
type RegexDetectorAdapter struct{}

func (RegexDetectorAdapter) Version() string { return "regex-v1" }

func (RegexDetectorAdapter) Detect(text string, _ PageLayout) ([]Span, error) {
	var spans []Span
	spans = append(spans, matchAll(text, ssnPattern, "ssn")...)
	spans = append(spans, matchAll(text, emailPattern, "email")...)
	spans = append(spans, matchAll(text, phonePattern, "phone")...)
	spans = append(spans, matchAll(text, ccPattern, "credit_card")...)
	return mergeOverlapping(spans), nil
}

func matchAll(text string, re *regexp.Regexp, typ string) []Span {
	var out []Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		out = append(out, Span{Start: loc[0], End: loc[1], Type: typ})
	}
	return out
}

// mergeOverlapping collapses overlapping spans (e.g. a phone number
// pattern subsuming part of an email match) into one span covering their
// union. Spans are first sorted by ascending Start then Type, and a merged
// span keeps the Type of its first span in that order, so the result is
// deterministic regardless of detection order.
func mergeOverlapping(spans []Span) []Span {
	sortSpans(spans)
	var out []Span
	for _, s := range spans {
		if len(out) > 0 && s.Start < out[len(out)-1].End {
			if s.End > out[len(out)-1].End {
				out[len(out)-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func sortSpans(spans []Span) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0; j-- {
			a, b := spans[j-1], spans[j]
			if a.Start < b.Start || (a.Start == b.Start && a.Type <= b.Type) {
				break
			}
			spans[j-1], spans[j] = spans[j], spans[j-1]
		}
	}
}
