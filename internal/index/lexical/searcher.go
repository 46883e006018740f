package lexical

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// Hit is one ranked result from Search.
type Hit struct {
	SHA256    string
	Path      string
	Custodian string
	Doctype   string
	Score     float64
	Snippet   string
	Strategy  string // always "lexical" for results from this package
}

// SearchOptions configures Search. Zero-value filter fields are not
// applied.
type SearchOptions struct {
	Query     string
	Custodian string
	Doctype   string
	Limit     int // 0 means a default of 20
}

// Index wraps an opened bleve index for searching.
type Index struct {
	bi bleve.Index
}

// Open opens a previously built index directory for searching.
func Open(indexDir string) (*Index, error) {
	bi, err := bleve.Open(indexDir)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "opening lexical index", err, map[string]any{"index_dir": indexDir})
	}
	return &Index{bi: bi}, nil
}

// Close releases the underlying index handle.
func (ix *Index) Close() error { return ix.bi.Close() }

// Search runs a BM25-scored query against the text field, intersected with
// any supplied keyword filters, and returns hits ordered by descending
// score with an ascending sha256 tie-break so results are deterministic
// across runs over an unchanged index.
func (ix *Index) Search(opts SearchOptions) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	conjuncts := []query.Query{}
	if strings.TrimSpace(opts.Query) != "" {
		mq := bleve.NewMatchQuery(opts.Query)
		mq.SetField(FieldText)
		conjuncts = append(conjuncts, mq)
	} else {
		conjuncts = append(conjuncts, bleve.NewMatchAllQuery())
	}
	if opts.Custodian != "" {
		conjuncts = append(conjuncts, termQuery(FieldCustodian, opts.Custodian))
	}
	if opts.Doctype != "" {
		conjuncts = append(conjuncts, termQuery(FieldDoctype, opts.Doctype))
	}

	var q query.Query
	if len(conjuncts) == 1 {
		q = conjuncts[0]
	} else {
		q = bleve.NewConjunctionQuery(conjuncts...)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{FieldSHA256, FieldPath, FieldCustodian, FieldDoctype, FieldText}
	req.IncludeLocations = true

	res, err := ix.bi.Search(req)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "searching lexical index", err, nil)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		text, _ := h.Fields[FieldText].(string)
		hits = append(hits, Hit{
			SHA256:    fieldString(h.Fields, FieldSHA256),
			Path:      fieldString(h.Fields, FieldPath),
			Custodian: fieldString(h.Fields, FieldCustodian),
			Doctype:   fieldString(h.Fields, FieldDoctype),
			Score:     h.Score,
			Snippet:   snippet(text, h),
			Strategy:  "lexical",
		})
	}
	sortHits(hits)
	return hits, nil
}

func fieldString(fields map[string]any, name string) string {
	v, _ := fields[name].(string)
	return v
}

func termQuery(field, value string) query.Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return tq
}

// snippet returns plain text, never an HTML-formatted fragment: the bytes
// of text from 80 bytes before to 80 bytes after the first matched term
// location, or the first 160 bytes when no match location is recorded.
// The match offsets themselves are not returned and no highlight markers
// are inserted.
func snippet(text string, h *search.DocumentMatch) string {
	const window = 80
	start, end := 0, len(text)
	if frags, ok := h.Locations[FieldText]; ok {
		for _, locs := range frags {
			for _, loc := range locs {
				s := int(loc.Start)
				e := int(loc.End)
				start = s - window
				if start < 0 {
					start = 0
				}
				end = e + window
				if end > len(text) {
					end = len(text)
				}
				return text[start:end]
			}
		}
	}
	if end > 2*window {
		end = 2 * window
	}
	return text[start:end]
}

func sortHits(hits []Hit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0; j-- {
			a, b := hits[j-1], hits[j]
			if a.Score > b.Score || (a.Score == b.Score && a.SHA256 <= b.SHA256) {
				break
			}
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
}
