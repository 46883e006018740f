// Package lexical implements the BM25 full-text index builder and
// searcher, backed by bleve/v2. The teacher's retrieval package shelled
// out to ripgrep for ad-hoc keyword search; a persisted, scored index at
// corpus scale calls for a real inverted-index engine instead, and bleve
// is the library the rest of the pack reaches for whenever it needs
// BM25-scored full-text search over a Go corpus.
package lexical

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// FieldSHA256, FieldPath, ... name the stored/indexed fields every
// document carries.
const (
	FieldSHA256    = "sha256"
	FieldPath      = "path"
	FieldCustodian = "custodian"
	FieldDoctype   = "doctype"
	FieldText      = "text"
)

// indexDoc is the flattened shape handed to bleve for each document.
type indexDoc struct {
	SHA256    string `json:"sha256"`
	Path      string `json:"path"`
	Custodian string `json:"custodian"`
	Doctype   string `json:"doctype"`
	Text      string `json:"text"`
}

// buildMapping constructs the index mapping: sha256/path/custodian/doctype
// are keyword (unanalyzed, exact-match + filterable) fields; text uses
// bleve's standard analyzer, which scores matches via bleve's inverted
// index and its BM25-family similarity scoring.
func buildMapping() *mapping.IndexMappingImpl { //nolint:staticcheck // mapping.IndexMappingImpl is bleve's concrete type
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name
	keywordField.Store = true
	keywordField.IncludeInAll = false

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.IncludeInAll = true

	docMapping.AddFieldMappingsAt(FieldSHA256, keywordField)
	docMapping.AddFieldMappingsAt(FieldPath, keywordField)
	docMapping.AddFieldMappingsAt(FieldCustodian, keywordField)
	docMapping.AddFieldMappingsAt(FieldDoctype, keywordField)
	docMapping.AddFieldMappingsAt(FieldText, textField)

	im.DefaultMapping = docMapping
	return im
}
