package extract

import "strings"

// PlainTextExtractor handles arbitrary UTF-8/text files and acts as the
// catch-all fallback extractor.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Detect(ext, mimeType string) bool {
	if ext == "txt" || ext == "eml" || ext == "log" || ext == "csv" {
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}

func (PlainTextExtractor) ExtractText(data []byte) (Result, error) {
	return Result{Text: normalizeText(data)}, nil
}

// MarkdownExtractor handles Markdown documents. Text is preserved verbatim
// (no rendering) since downstream indexing wants the source text, not
// rendered HTML.
type MarkdownExtractor struct{}

func (MarkdownExtractor) Detect(ext, mimeType string) bool {
	return ext == "md" || ext == "markdown"
}

func (MarkdownExtractor) ExtractText(data []byte) (Result, error) {
	return Result{Text: normalizeText(data)}, nil
}
