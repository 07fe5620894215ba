package ingest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/fusion"
)

// Glyph placement heuristics, as fractions of the font size
const (
	ascentRatio    = 0.8
	descentRatio   = 0.2
	wordGapRatio   = 0.25
	sameLineRatio  = 0.5
	defaultPDFSize = 12.0
)

// PageSize is a page's width and height in PDF points
type PageSize struct {
	Width  float64
	Height float64
}

// PageSizes reads the media box size of every page with pdfcpu
func PageSizes(path string) ([]PageSize, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	sizes := make([]PageSize, len(dims))
	for i, d := range dims {
		sizes[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}

// LoadPDF builds tokens from the text layer of a PDF. Coordinates are
// converted to a top-left origin in points so they match image-based
// producers.
func LoadPDF(path string) (*Document, error) {
	sizes, sizeErr := PageSizes(path)

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	b := NewBuilder()
	line := 0

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)

		size, ok := PageSize{}, false
		if sizeErr == nil && i <= len(sizes) {
			size, ok = sizes[i-1], true
		}
		if !ok && !page.V.IsNull() {
			size, ok = mediaBoxSize(page)
		}
		if !ok {
			return nil, fmt.Errorf("page %d: unknown page size: %v", i, sizeErr)
		}

		b.StartPage(size.Width, size.Height)
		if page.V.IsNull() {
			continue
		}

		for _, w := range wordsFromGlyphs(page.Content().Text, size.Height) {
			if err := b.AddWord(line+w.line, w.box, w.text); err != nil {
				return nil, err
			}
		}
		// keep line numbers unique across pages
		line += 1 << 16
	}

	name := filepath.Base(path)
	return b.Build(name, strings.TrimSuffix(name, filepath.Ext(name)), path), nil
}

func mediaBoxSize(page pdf.Page) (PageSize, bool) {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return PageSize{}, false
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return PageSize{}, false
	}
	return PageSize{Width: w, Height: h}, true
}

type pdfWord struct {
	line int
	box  document.BoundingBox
	text string
}

// wordsFromGlyphs joins positioned glyphs into words. A glyph starts a new
// word after whitespace, after a horizontal gap, or on a new baseline; a new
// baseline also starts a new line.
func wordsFromGlyphs(glyphs []pdf.Text, pageHeight float64) []pdfWord {
	var words []pdfWord
	var current *pdfWord
	line := 0
	lastY := math.NaN()
	lastRight := math.Inf(-1)

	flush := func() {
		if current != nil && current.text != "" {
			words = append(words, *current)
		}
		current = nil
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = defaultPDFSize
		}

		if math.IsNaN(lastY) || math.Abs(g.Y-lastY) > size*sameLineRatio {
			flush()
			if !math.IsNaN(lastY) {
				line++
			}
			lastY = g.Y
			lastRight = math.Inf(-1)
		}

		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			lastRight = g.X + g.W
			continue
		}

		if current != nil && g.X-lastRight > size*wordGapRatio {
			flush()
		}

		box := document.BoundingBox{
			Top:    pageHeight - (g.Y + size*ascentRatio),
			Left:   g.X,
			Right:  g.X + g.W,
			Bottom: pageHeight - (g.Y - size*descentRatio),
		}
		if current == nil {
			current = &pdfWord{line: line, box: box}
		} else {
			current.box = fusion.Union(current.box, box)
		}
		current.text += g.S
		lastRight = g.X + g.W
	}
	flush()

	return words
}
