package ingest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// ParseDocumentAI converts a Document AI Document, serialized as JSON, into
// pages of tokens. Token boxes use the page dimension's units, taken from
// absolute vertices when present and normalized vertices otherwise.
func ParseDocumentAI(data []byte, source string) (*Document, error) {
	var doc documentaipb.Document
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode Document AI JSON: %w", err)
	}
	if len(doc.GetPages()) == 0 {
		return nil, fmt.Errorf("document AI output has no pages")
	}

	text := []rune(doc.GetText())
	b := NewBuilder()
	lineBase := 0

	for _, page := range doc.GetPages() {
		dim := page.GetDimension()
		width, height := float64(dim.GetWidth()), float64(dim.GetHeight())
		b.StartPage(width, height)

		lines := page.GetLines()
		for _, tok := range page.GetTokens() {
			layout := tok.GetLayout()
			start, word := anchorText(layout.GetTextAnchor(), text)
			box, ok := layoutBox(layout.GetBoundingPoly(), width, height)
			if !ok {
				continue
			}
			if err := b.AddWord(lineBase+lineOf(start, lines), box, word); err != nil {
				return nil, err
			}
		}
		lineBase += len(lines) + 1
	}

	name := filepath.Base(source)
	return b.Build(name, strings.TrimSuffix(name, filepath.Ext(name)), source), nil
}

// LoadDocumentAI reads and parses a Document AI JSON file
func LoadDocumentAI(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read Document AI file: %w", err)
	}
	return ParseDocumentAI(data, path)
}

// anchorText returns the first offset and the trimmed text of an anchor
func anchorText(anchor *documentaipb.Document_TextAnchor, text []rune) (int, string) {
	var b strings.Builder
	first := -1
	for _, seg := range anchor.GetTextSegments() {
		start := clamp(int(seg.GetStartIndex()), 0, len(text))
		end := clamp(int(seg.GetEndIndex()), start, len(text))
		if first < 0 {
			first = start
		}
		b.WriteString(string(text[start:end]))
	}
	return first, strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// lineOf returns the index of the line whose anchor contains offset
func lineOf(offset int, lines []*documentaipb.Document_Page_Line) int {
	for i, line := range lines {
		for _, seg := range line.GetLayout().GetTextAnchor().GetTextSegments() {
			if int64(offset) >= seg.GetStartIndex() && int64(offset) < seg.GetEndIndex() {
				return i
			}
		}
	}
	return len(lines)
}

func layoutBox(poly *documentaipb.BoundingPoly, width, height float64) (document.BoundingBox, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}

	switch {
	case len(poly.GetVertices()) > 0:
		for _, v := range poly.GetVertices() {
			add(float64(v.GetX()), float64(v.GetY()))
		}
	case len(poly.GetNormalizedVertices()) > 0:
		for _, v := range poly.GetNormalizedVertices() {
			add(float64(v.GetX())*width, float64(v.GetY())*height)
		}
	default:
		return document.BoundingBox{}, false
	}

	return document.BoundingBox{Top: minY, Left: minX, Right: maxX, Bottom: maxY}, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
