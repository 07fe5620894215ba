// Package fusion turns token ranges into the rectangles drawn over a page.
//
// Tokens selected by a range are grouped by their Line and each group is
// replaced by the union of its boxes, so a highlight is one rectangle per
// text line instead of one per word.
package fusion

import (
	"math"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/interval"
)

// RectanglePadding is the margin added around every drawn rectangle, in
// page-original units
const RectanglePadding = 6.0

// Rectangle is a fused box tagged with the annotation it belongs to
type Rectangle struct {
	document.BoundingBox
	Topic string `json:"topic"`
	Index int    `json:"index"`
}

// TokensToRectangles unions the boxes of tokens sharing a line. Lines are
// emitted in the order they first occur.
func TokensToRectangles(tokens []document.Token) []document.BoundingBox {
	if len(tokens) == 0 {
		return nil
	}

	byLine := make(map[int]int)
	var rectangles []document.BoundingBox

	for _, tok := range tokens {
		pos, ok := byLine[tok.Line]
		if !ok {
			byLine[tok.Line] = len(rectangles)
			rectangles = append(rectangles, tok.BoundingBox)
			continue
		}
		rectangles[pos] = Union(rectangles[pos], tok.BoundingBox)
	}

	return rectangles
}

// Union returns the smallest box covering a and b
func Union(a, b document.BoundingBox) document.BoundingBox {
	return document.BoundingBox{
		Top:    math.Min(a.Top, b.Top),
		Left:   math.Min(a.Left, b.Left),
		Right:  math.Max(a.Right, b.Right),
		Bottom: math.Max(a.Bottom, b.Bottom),
	}
}

// RangeToRectangles fuses the tokens covered by a page fragment's character
// bounds. Either bound may be an open sentinel.
func RangeToRectangles(characterStart, characterEnd int, tokens []document.Token) []document.BoundingBox {
	start, end, ok := interval.TokenRange(characterStart, characterEnd, tokens)
	if !ok {
		return nil
	}
	return TokensToRectangles(tokens[start : end+1])
}

// AnnotationsToRectangles fuses every annotation fragment on a page and tags
// each rectangle with its annotation's topic and index
func AnnotationsToRectangles(annotations []document.IndexedAnnotation, tokens []document.Token) []Rectangle {
	if len(tokens) == 0 {
		return nil
	}

	var rectangles []Rectangle
	for _, a := range annotations {
		for _, box := range RangeToRectangles(a.CharacterStart, a.CharacterEnd, tokens) {
			rectangles = append(rectangles, Rectangle{BoundingBox: box, Topic: a.Topic, Index: a.Index})
		}
	}
	return rectangles
}

// SearchResultsToRectangles fuses every search-result fragment on a page
func SearchResultsToRectangles(results []document.SearchResult, tokens []document.Token) []document.BoundingBox {
	if len(tokens) == 0 {
		return nil
	}

	var rectangles []document.BoundingBox
	for _, r := range results {
		rectangles = append(rectangles, RangeToRectangles(r.CharacterStart, r.CharacterEnd, tokens)...)
	}
	return rectangles
}

// SelectionToRectangles fuses the tokens of a page-local selection. A nil
// selection draws nothing.
func SelectionToRectangles(selection *document.PageSelection, tokens []document.Token) []document.BoundingBox {
	if selection == nil {
		return nil
	}
	start, end, ok := interval.IndexRange(selection.IndexStart, selection.IndexEnd, tokens)
	if !ok {
		return nil
	}
	return TokensToRectangles(tokens[start : end+1])
}

// Pad grows a box by margin on every side
func Pad(box document.BoundingBox, margin float64) document.BoundingBox {
	return document.BoundingBox{
		Top:    box.Top - margin,
		Left:   box.Left - margin,
		Right:  box.Right + margin,
		Bottom: box.Bottom + margin,
	}
}

// Shrink is the inverse of Pad
func Shrink(box document.BoundingBox, margin float64) document.BoundingBox {
	return Pad(box, -margin)
}
