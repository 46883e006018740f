// Package extract implements a polymorphic extractor capability set —
// detect, extract text, count pages — over PDF, DOCX, plain/UTF-8, and
// Markdown variants.
package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Result is what an Extractor returns for one document's bytes.
type Result struct {
	Text      string
	PageCount int // 0 when the format has no page concept
	Language  string
}

// Extractor is the capability set every format adapter implements.
type Extractor interface {
	// Detect reports whether this extractor can handle data with the
	// given file extension and/or sniffed MIME type.
	Detect(ext, mimeType string) bool
	// ExtractText returns normalized UTF-8 text for data.
	ExtractText(data []byte) (Result, error)
}

// Registry dispatches to the first matching Extractor, falling back to the
// PlainText extractor for anything unrecognized — ingest never aborts a
// run over one file's format; ExtractionFailure is reserved for
// extractors that match but fail while decoding.
type Registry struct {
	extractors []Extractor
}

// DefaultRegistry wires the four built-in extractor variants.
func DefaultRegistry() *Registry {
	return &Registry{extractors: []Extractor{
		PDFExtractor{},
		DOCXExtractor{},
		MarkdownExtractor{},
		PlainTextExtractor{}, // catch-all; must stay last
	}}
}

// SniffMime returns the MIME type mimetype detects for data.
func SniffMime(data []byte) string {
	return mimetype.Detect(data).String()
}

// Extract dispatches data (with the given lowercase file extension, no
// leading dot) to the first matching extractor.
func (r *Registry) Extract(ext string, data []byte) (Result, error) {
	mt := SniffMime(data)
	for _, e := range r.extractors {
		if e.Detect(ext, mt) {
			return e.ExtractText(data)
		}
	}
	return PlainTextExtractor{}.ExtractText(data)
}

// normalizeText decodes as UTF-8 with replacement, collapses NULs, and
// retains line structure.
func normalizeText(data []byte) string {
	data = bytes.ReplaceAll(data, []byte{0}, nil)
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		b.WriteRune(r)
		data = data[size:]
	}
	return b.String()
}
