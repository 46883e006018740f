package bates

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/types"
	"github.com/rexlit/rexlit/internal/rexerr"
)

// marginPoints is the spec-mandated 0.5in safe-area margin, in PDF points
// (72 points per inch).
const marginPoints = 36.0

// Anchor is one of the three preset Bates stamp positions, named in
// pdfcpu's own position mini-language and measured within the page's
// visual (as-displayed, post-rotation) safe area.
type Anchor string

const (
	AnchorBottomRight  Anchor = "br"
	AnchorBottomCenter Anchor = "bc"
	AnchorTopRight     Anchor = "tr"
)

// Rectangle is an axis-aligned box in PDF points, in the page's visual
// coordinate frame (origin bottom-left, as the page is displayed once its
// declared rotation is applied).
type Rectangle struct {
	X0, Y0, X1, Y1 float64
}

// PageResult records what was actually stamped onto one page of a
// document: its label, the page's detected rotation, and the safe-area
// rectangle the label was anchored within.
type PageResult struct {
	Page      int       `json:"page"`
	Label     string    `json:"label"`
	Rotation  int       `json:"rotation"`
	Rectangle Rectangle `json:"rectangle"`
}

// StampResult is the outcome of stamping one document, one entry per page.
type StampResult struct {
	Pages []PageResult `json:"pages"`
}

// Stamper burns Bates identifiers into PDF page footers via pdfcpu's
// watermark/stamp machinery. Each page of a document receives its own
// sequential number, not the document's overall range.
type Stamper struct {
	// FontSize and Anchor follow pdfcpu's watermark description
	// mini-language; defaults mirror a conventional bottom-right Bates
	// stamp.
	FontSize int
	Anchor   Anchor  // default AnchorBottomRight
	Margin   float64 // safe-area inset from the page edge, in points; default marginPoints (0.5in)

	// Background draws a white rectangle behind the glyphs, for
	// legibility against scanned page backgrounds.
	Background bool
}

func (s Stamper) applyDefaults() Stamper {
	if s.FontSize <= 0 {
		s.FontSize = 9
	}
	if s.Anchor == "" {
		s.Anchor = AnchorBottomRight
	}
	if s.Margin <= 0 {
		s.Margin = marginPoints
	}
	return s
}

// pageGeometry is read directly from the PDF's own page objects via
// ledongthuc/pdf (already used for text extraction in
// internal/ingest/extract), independent of pdfcpu's rendering path: raw
// MediaBox dimensions and the page's declared /Rotate value, normalized
// to one of {0, 90, 180, 270}.
type pageGeometry struct {
	Width, Height float64
	Rotation      int
}

// readPageGeometry opens path and reads each page's MediaBox and
// rotation; it never touches page content, only the page dictionary.
func readPageGeometry(path string) ([]pageGeometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	out := make([]pageGeometry, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		// US Letter is the fallback when a page omits its own MediaBox
		// (legal, since MediaBox is inheritable from a parent Pages node
		// that ledongthuc/pdf does not walk for us).
		geo := pageGeometry{Width: 612, Height: 792}
		if !page.V.IsNull() {
			if mb := page.V.Key("MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
				llx, lly := mb.Index(0).Float64(), mb.Index(1).Float64()
				urx, ury := mb.Index(2).Float64(), mb.Index(3).Float64()
				geo.Width, geo.Height = urx-llx, ury-lly
			}
			geo.Rotation = normalizeRotation(int(page.V.Key("Rotate").Int64()))
		}
		out[i-1] = geo
	}
	return out, nil
}

// normalizeRotation folds a PDF /Rotate value into [0, 360).
func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// stampBox estimates the glyph bounding box for label at fontSize. This is
// a conservative width heuristic (Helvetica averages under 0.6em per
// character), not exact font metrics, used only to keep the stamp inside
// the safe area rather than to lay out glyphs precisely.
func stampBox(label string, fontSize int) (w, h float64) {
	return float64(fontSize) * 0.6 * float64(len(label)), float64(fontSize) * 1.2
}

// anchorRectangle computes the stamp's bounding box, inset by margin from
// the visual page edges, for one of the three preset anchors.
func anchorRectangle(visW, visH, stampW, stampH float64, anchor Anchor, margin float64) Rectangle {
	var x0, y0 float64
	switch anchor {
	case AnchorBottomCenter:
		x0 = (visW - stampW) / 2
		y0 = margin
	case AnchorTopRight:
		x0 = visW - margin - stampW
		y0 = visH - margin - stampH
	default: // AnchorBottomRight
		x0 = visW - margin - stampW
		y0 = margin
	}
	return Rectangle{X0: x0, Y0: y0, X1: x0 + stampW, Y1: y0 + stampH}
}

// anchorOffset returns the pdfcpu description offset (in points) that
// insets pdfcpu's own pos:<anchor> corner by margin, so the safe area's
// 0.5in margin is actually respected rather than flush against the edge.
func anchorOffset(anchor Anchor, margin float64) (int, int) {
	m := int(math.Round(margin))
	switch anchor {
	case AnchorBottomCenter:
		return 0, m
	case AnchorTopRight:
		return -m, -m
	default: // AnchorBottomRight
		return -m, m
	}
}

// StampFile stamps one Bates number per page onto inPath, writing the
// result to outPath. startNum is the number assigned to page 1; page i
// (1-indexed) receives startNum+i-1, formatted exactly as Planner formats
// it (same prefix and zero-pad width), so the footer on each page matches
// that page's own entry in the Bates registry rather than repeating the
// document's overall range.
func (s Stamper) StampFile(inPath, outPath string, startNum int, prefix string, width int) (StampResult, error) {
	s = s.applyDefaults()

	geometry, err := readPageGeometry(inPath)
	if err != nil {
		return StampResult{}, rexerr.Wrap(rexerr.KindGeneric, "reading PDF page geometry", err, map[string]any{"path": inPath})
	}
	if len(geometry) == 0 {
		return StampResult{}, rexerr.New(rexerr.KindGeneric, "PDF has no pages to stamp", map[string]any{"path": inPath})
	}

	conf := model.NewDefaultConfiguration()
	currentIn := inPath
	result := StampResult{Pages: make([]PageResult, len(geometry))}

	for i, geo := range geometry {
		pageNr := i + 1
		label := formatBates(prefix, width, startNum+i)

		visW, visH := geo.Width, geo.Height
		if geo.Rotation == 90 || geo.Rotation == 270 {
			visW, visH = visH, visW
		}
		stampW, stampH := stampBox(label, s.FontSize)
		rect := anchorRectangle(visW, visH, stampW, stampH, s.Anchor, s.Margin)
		result.Pages[i] = PageResult{Page: pageNr, Label: label, Rotation: geo.Rotation, Rectangle: rect}

		dx, dy := anchorOffset(s.Anchor, s.Margin)
		desc := fmt.Sprintf("font:Helvetica, points:%d, pos:%s, offset:%d %d, scale:1 abs", s.FontSize, string(s.Anchor), dx, dy)
		if s.Background {
			desc += ", bgColor: 1 1 1"
		}

		wm, err := api.TextWatermark(label, desc, true, false, types.POINTS)
		if err != nil {
			return StampResult{}, rexerr.Wrap(rexerr.KindGeneric, "building Bates watermark description", err, map[string]any{"label": label, "page": pageNr})
		}

		stepOut := outPath
		if pageNr != len(geometry) {
			stepOut = fmt.Sprintf("%s.page%d.tmp", outPath, pageNr)
		}
		if err := api.AddWatermarksFile(currentIn, stepOut, []string{strconv.Itoa(pageNr)}, wm, conf); err != nil {
			return StampResult{}, rexerr.Wrap(rexerr.KindGeneric, "stamping Bates number onto PDF page", err, map[string]any{
				"in": currentIn, "out": stepOut, "label": label, "page": pageNr,
			})
		}
		if currentIn != inPath {
			_ = os.Remove(currentIn) // drop the previous page's intermediate file
		}
		currentIn = stepOut
	}

	return result, nil
}
