// Package spatial implements a static packed R-tree over token bounding boxes.
//
// Items are sorted along a Hilbert curve and packed bottom-up into nodes of
// a fixed size, so the tree is built once in O(n log n) and then only
// queried. There are no insertions or deletions; a page whose tokens change
// gets a new index.
//
// Boxes use seehuhn.de/go/geom/rect.Rect with LLx/LLy as the minimum corner
// and URx/URy as the maximum corner, independent of which way y grows.
package spatial

import (
	"math"
	"sort"

	"seehuhn.de/go/geom/rect"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// DefaultNodeSize is the fan-out of each tree node
const DefaultNodeSize = 16

const hilbertMax = 1<<16 - 1

// Index is an immutable packed R-tree
type Index struct {
	nodeSize    int
	numItems    int
	boxes       []rect.Rect // leaves first, then each upper level, root last
	indices     []int       // leaf: item index; inner node: position of first child
	levelBounds []int       // end position (exclusive) of each level in boxes
}

// Build packs boxes into an index. A nodeSize below 2 uses DefaultNodeSize.
// It returns nil for an empty input.
func Build(boxes []rect.Rect, nodeSize int) *Index {
	n := len(boxes)
	if n == 0 {
		return nil
	}
	if nodeSize < 2 {
		nodeSize = DefaultNodeSize
	}

	// compute level sizes up front so the arrays are allocated once
	numNodes := n
	levelBounds := []int{n}
	for count := n; count > 1; {
		count = (count + nodeSize - 1) / nodeSize
		numNodes += count
		levelBounds = append(levelBounds, numNodes)
	}

	idx := &Index{
		nodeSize:    nodeSize,
		numItems:    n,
		boxes:       make([]rect.Rect, numNodes),
		indices:     make([]int, numNodes),
		levelBounds: levelBounds,
	}

	bounds := rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	for i, b := range boxes {
		idx.boxes[i] = b
		idx.indices[i] = i
		bounds = union(bounds, b)
	}

	if n > nodeSize {
		idx.sortLeaves(bounds)
	}

	// pack each level into the next
	pos := 0
	for level := 0; level < len(levelBounds)-1; level++ {
		end := levelBounds[level]
		for pos < end {
			first := pos
			box := idx.boxes[pos]
			for j := 0; j < nodeSize && pos < end; j++ {
				box = union(box, idx.boxes[pos])
				pos++
			}
			parent := levelBounds[level] + (first-levelStart(levelBounds, level))/nodeSize
			idx.boxes[parent] = box
			idx.indices[parent] = first
		}
	}

	return idx
}

// FromTokens indexes each token's bounding box, keyed by token position
func FromTokens(tokens []document.Token) *Index {
	if len(tokens) == 0 {
		return nil
	}
	boxes := make([]rect.Rect, len(tokens))
	for i, tok := range tokens {
		boxes[i] = FromBoundingBox(tok.BoundingBox)
	}
	return Build(boxes, DefaultNodeSize)
}

// FromBoundingBox converts a page box into the index's rectangle form
func FromBoundingBox(b document.BoundingBox) rect.Rect {
	return rect.Rect{
		LLx: math.Min(b.Left, b.Right),
		LLy: math.Min(b.Top, b.Bottom),
		URx: math.Max(b.Left, b.Right),
		URy: math.Max(b.Top, b.Bottom),
	}
}

// Len returns the number of indexed items
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.numItems
}

// Search returns the positions of all items whose box intersects the query
// rectangle, edges included. Bounds may be infinite. Result order is
// unspecified.
func (idx *Index) Search(minX, minY, maxX, maxY float64) []int {
	if idx == nil {
		return nil
	}
	query := rect.Rect{LLx: minX, LLy: minY, URx: maxX, URy: maxY}

	var results []int
	root := len(idx.boxes) - 1
	if !intersects(idx.boxes[root], query) {
		return nil
	}
	if idx.numItems == 1 {
		return []int{idx.indices[0]}
	}

	type frame struct{ pos, level int }
	stack := []frame{{pos: idx.indices[root], level: len(idx.levelBounds) - 2}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		end := min(f.pos+idx.nodeSize, idx.levelBounds[f.level])
		for i := f.pos; i < end; i++ {
			if !intersects(idx.boxes[i], query) {
				continue
			}
			if f.level == 0 {
				results = append(results, idx.indices[i])
			} else {
				stack = append(stack, frame{pos: idx.indices[i], level: f.level - 1})
			}
		}
	}

	return results
}

// MinMax returns the smallest and largest item index intersecting the query
func (idx *Index) MinMax(minX, minY, maxX, maxY float64) (lo, hi int, ok bool) {
	found := idx.Search(minX, minY, maxX, maxY)
	if len(found) == 0 {
		return 0, 0, false
	}
	lo, hi = found[0], found[0]
	for _, i := range found[1:] {
		lo = min(lo, i)
		hi = max(hi, i)
	}
	return lo, hi, true
}

func levelStart(levelBounds []int, level int) int {
	if level == 0 {
		return 0
	}
	return levelBounds[level-1]
}

func (idx *Index) sortLeaves(bounds rect.Rect) {
	width := bounds.URx - bounds.LLx
	height := bounds.URy - bounds.LLy
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}

	values := make([]uint64, idx.numItems)
	for i := 0; i < idx.numItems; i++ {
		b := idx.boxes[i]
		x := uint32(hilbertMax * ((b.LLx+b.URx)/2 - bounds.LLx) / width)
		y := uint32(hilbertMax * ((b.LLy+b.URy)/2 - bounds.LLy) / height)
		values[i] = hilbert(x, y)
	}

	sort.Stable(leafSorter{idx: idx, values: values})
}

type leafSorter struct {
	idx    *Index
	values []uint64
}

func (s leafSorter) Len() int           { return len(s.values) }
func (s leafSorter) Less(i, j int) bool { return s.values[i] < s.values[j] }
func (s leafSorter) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.idx.boxes[i], s.idx.boxes[j] = s.idx.boxes[j], s.idx.boxes[i]
	s.idx.indices[i], s.idx.indices[j] = s.idx.indices[j], s.idx.indices[i]
}

// hilbert returns the distance of (x, y) along a Hilbert curve filling a
// 2^16 x 2^16 grid
func hilbert(x, y uint32) uint64 {
	const n = 1 << 16
	var d uint64
	for s := uint32(n / 2); s > 0; s /= 2 {
		var rx, ry uint32
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += uint64(s) * uint64(s) * uint64((3*rx)^ry)
		if ry == 0 {
			if rx == 1 {
				x = n - 1 - x
				y = n - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}

func union(a, b rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: math.Min(a.LLx, b.LLx),
		LLy: math.Min(a.LLy, b.LLy),
		URx: math.Max(a.URx, b.URx),
		URy: math.Max(a.URy, b.URy),
	}
}

func intersects(a, b rect.Rect) bool {
	return a.LLx <= b.URx && b.LLx <= a.URx && a.LLy <= b.URy && b.LLy <= a.URy
}
