package viewer

import (
	"math"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/spatial"
)

// SelectionInPage says which part of a mouse selection a page holds
type SelectionInPage int

const (
	// SelectionNone means the drag does not touch the page
	SelectionNone SelectionInPage = iota
	// SelectionStart means the drag starts on the page and ends below it
	SelectionStart
	// SelectionEnd means the drag starts above the page and ends on it
	SelectionEnd
	// SelectionBoth means the whole drag is on the page
	SelectionBoth
)

func (s SelectionInPage) String() string {
	switch s {
	case SelectionStart:
		return "start"
	case SelectionEnd:
		return "end"
	case SelectionBoth:
		return "both"
	default:
		return "none"
	}
}

// Classify places a mouse selection relative to a page spanning
// [top, bottom] vertically. Edges belong to the page.
func Classify(ms *MouseSelection, top, bottom float64) SelectionInPage {
	if ms == nil {
		return SelectionNone
	}
	y1, y2 := ms.Start.Y, ms.End.Y
	startIn := top <= y1 && y1 <= bottom
	endIn := top <= y2 && y2 <= bottom

	switch {
	case startIn && endIn:
		return SelectionBoth
	case startIn && y2 > bottom:
		return SelectionStart
	case endIn && y1 < top:
		return SelectionEnd
	default:
		return SelectionNone
	}
}

// ToPage converts a content point into page-original units for a page image
// drawn at image
func ToPage(p Point, image Rect, originalWidth, originalHeight float64) Point {
	if image.Width <= 0 || image.Height <= 0 {
		return Point{}
	}
	return Point{
		X: (p.X - image.Left) * originalWidth / image.Width,
		Y: (p.Y - image.Top) * originalHeight / image.Height,
	}
}

// endpointUpdate is a pending change to one selection endpoint
type endpointUpdate struct {
	set   bool
	value *document.Selection
}

func setTo(s *document.Selection) endpointUpdate { return endpointUpdate{set: true, value: s} }

// pageResolution is what a page's pass over the mouse selection decided.
// defaultStart is applied before end.
type pageResolution struct {
	kind         SelectionInPage
	defaultStart endpointUpdate
	start        endpointUpdate
	end          endpointUpdate
}

// resolvePage maps a mouse selection onto a page's tokens. live is the
// page-local form of the currently resolved selection, and currentStart the
// resolved start endpoint. A start query that hits no token clears the start
// only when currentStart lies on this page.
func resolvePage(
	page int,
	ms *MouseSelection,
	box Rect,
	size PageSize,
	tokens []document.Token,
	index *spatial.Index,
	live *document.PageSelection,
	currentStart *document.Selection,
) pageResolution {
	kind := Classify(ms, box.Top, box.Bottom())
	res := pageResolution{kind: kind}
	if kind == SelectionNone || index.Len() == 0 {
		return res
	}

	p1 := ToPage(ms.Start, box, size.Width, size.Height)
	p2 := ToPage(ms.End, box, size.Width, size.Height)
	inf := math.Inf(1)

	selection := func(i int) *document.Selection {
		return &document.Selection{Index: i, Page: page, Token: tokens[i]}
	}

	switch kind {
	case SelectionStart:
		lo, _, ok := index.MinMax(p1.X, p1.Y, inf, inf)
		switch {
		case ok:
			res.start = setTo(selection(lo))
		case currentStart != nil && currentStart.Page == page:
			res.start = setTo(nil)
		}

	case SelectionEnd:
		_, hi, ok := index.MinMax(-inf, -inf, p2.X, p2.Y)
		if !ok {
			res.end = setTo(nil)
			break
		}
		if live == nil {
			res.defaultStart = setTo(selection(0))
		}
		res.end = setTo(selection(hi))

	case SelectionBoth:
		lo, hi, ok := index.MinMax(p1.X, p1.Y, p2.X, p2.Y)
		if !ok {
			res.start = setTo(nil)
			res.end = setTo(nil)
			break
		}
		res.start = setTo(selection(lo))
		res.end = setTo(selection(hi))
	}

	return res
}
