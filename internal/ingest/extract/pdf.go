package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts text and page count from PDF documents via
// ledongthuc/pdf, an in-memory, pure-Go PDF text extraction port.
type PDFExtractor struct{}

func (PDFExtractor) Detect(ext, mimeType string) bool {
	return ext == "pdf" || mimeType == "application/pdf"
}

func (PDFExtractor) ExtractText(data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("opening pdf: %w", err)
	}

	pageCount := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			// A single unreadable page does not abort extraction of the
			// rest of the document; downstream page attribution simply
			// loses that page's text.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return Result{Text: normalizeText([]byte(sb.String())), PageCount: pageCount}, nil
}
