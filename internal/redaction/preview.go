package redaction

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/types"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// Box is one redaction mark to composite onto a PDF page, in PDF points
// measured from the page's bottom-left corner — the same coordinate
// origin pdfcpu's watermark offsets use.
type Box struct {
	Page   int
	X, Y   float64
	Width  float64
	Height float64
}

// Previewer composites opaque black boxes over a PDF via pdfcpu's
// watermark/stamp machinery, for reviewer sign-off before Apply commits a
// redaction. It renders a preview only; it never modifies extracted text.
type Previewer struct {
	FillColor string // pdfcpu color description, default "0 0 0" (black)
}

func (p Previewer) applyDefaults() Previewer {
	if p.FillColor == "" {
		p.FillColor = "0 0 0"
	}
	return p
}

// RenderOverlay writes a preview copy of inPath to outPath with boxes
// composited as opaque fills. Each Box becomes one watermark stamp scaled
// and positioned from the page's bottom-left corner; pdfcpu's watermark
// mini-language works in named anchors and offsets rather than arbitrary
// rectangles, so Width drives an absolute scale and X/Y drive an offset
// from the bottom-left anchor; Height is not used.
func (p Previewer) RenderOverlay(inPath, outPath string, boxes []Box) error {
	p = p.applyDefaults()

	conf := model.NewDefaultConfiguration()
	for _, b := range boxes {
		desc := fmt.Sprintf(
			"fillColor:%s, points:1, pos:bl, offset:%.2f %.2f, scale:%.2f abs, rot:0, opacity:1",
			p.FillColor, b.X, b.Y, b.Width,
		)
		wm, err := api.TextWatermark(blockGlyph(b), desc, true, false, types.POINTS)
		if err != nil {
			return rexerr.Wrap(rexerr.KindGeneric, "building redaction overlay watermark", err, map[string]any{"page": b.Page})
		}
		selected := []string{fmt.Sprintf("%d", b.Page)}
		if err := api.AddWatermarksFile(inPath, outPath, selected, wm, conf); err != nil {
			return rexerr.Wrap(rexerr.KindGeneric, "compositing redaction overlay", err, map[string]any{
				"in": inPath, "out": outPath, "page": b.Page,
			})
		}
		// Subsequent boxes layer onto the just-written preview, not the
		// original, so multiple marks on one page accumulate.
		inPath = outPath
	}
	return nil
}

// defaultPageWidth and defaultPageHeight are US Letter in PDF points,
// the assumed page geometry when no layout-aware PDF text extractor has
// supplied exact glyph rectangles. Mapping a byte-offset span to its exact
// on-page rectangle requires a PDF layout provider (glyph positions per
// character), an external collaborator out of scope for this module; this
// reference preview instead marks the whole width of every page a
// detected span falls on, which is enough for a reviewer to see which
// pages were touched before Apply commits.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
	stripHeight       = 14.0
)

// BoxesForEntry derives one full-width preview strip per page touched by
// entry's spans, using layout to map each span's byte offset to a page
// number. Pages are deduplicated and returned in ascending order.
func BoxesForEntry(entry PlanEntry, layout PageLayout) []Box {
	seen := make(map[int]bool)
	var pages []int
	for _, s := range entry.Spans {
		page := layout.PageOf(s.Start)
		if !seen[page] {
			seen[page] = true
			pages = append(pages, page)
		}
	}
	sortInts(pages)

	boxes := make([]Box, 0, len(pages))
	for _, page := range pages {
		boxes = append(boxes, Box{
			Page:   page,
			X:      0,
			Y:      defaultPageHeight / 2,
			Width:  defaultPageWidth,
			Height: stripHeight,
		})
	}
	return boxes
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// blockGlyph renders a run of full-block characters wide enough to cover
// Width/Height at the given FontSize-independent scale; pdfcpu scales the
// glyph run to the requested absolute size regardless of character count,
// so a short fixed run is sufficient.
func blockGlyph(b Box) string {
	return "████████"
}
