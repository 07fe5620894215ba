package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/rect"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

func bruteForce(boxes []rect.Rect, q rect.Rect) []int {
	var out []int
	for i, b := range boxes {
		if intersects(b, q) {
			out = append(out, i)
		}
	}
	return out
}

func sorted(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	return out
}

func randomBoxes(r *rand.Rand, n int) []rect.Rect {
	boxes := make([]rect.Rect, n)
	for i := range boxes {
		x := r.Float64() * 1000
		y := r.Float64() * 1400
		boxes[i] = rect.Rect{LLx: x, LLy: y, URx: x + 5 + r.Float64()*60, URy: y + 8 + r.Float64()*12}
	}
	return boxes
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inf := math.Inf(1)

	for _, n := range []int{1, 2, 15, 16, 17, 255, 256, 257, 1000} {
		boxes := randomBoxes(r, n)
		idx := Build(boxes, DefaultNodeSize)
		require.Equal(t, n, idx.Len())

		queries := []rect.Rect{
			{LLx: -inf, LLy: -inf, URx: inf, URy: inf},
			{LLx: 300, LLy: 400, URx: inf, URy: inf},
			{LLx: -inf, LLy: -inf, URx: 500, URy: 700},
			{LLx: 2000, LLy: 2000, URx: 3000, URy: 3000},
		}
		for i := 0; i < 50; i++ {
			x, y := r.Float64()*1000, r.Float64()*1400
			queries = append(queries, rect.Rect{LLx: x, LLy: y, URx: x + r.Float64()*200, URy: y + r.Float64()*200})
		}

		for _, q := range queries {
			got := sorted(idx.Search(q.LLx, q.LLy, q.URx, q.URy))
			want := bruteForce(boxes, q)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("n=%d query=%v mismatch (-want +got):\n%s", n, q, diff)
			}
		}
	}
}

func TestSearch_InclusiveEdges(t *testing.T) {
	idx := Build([]rect.Rect{{LLx: 10, LLy: 10, URx: 20, URy: 20}}, 0)

	assert.Equal(t, []int{0}, idx.Search(20, 20, 30, 30), "touching corner")
	assert.Equal(t, []int{0}, idx.Search(0, 0, 10, 10), "touching opposite corner")
	assert.Empty(t, idx.Search(20.01, 0, 30, 30))
}

func TestFromTokens(t *testing.T) {
	assert.Nil(t, FromTokens(nil))
	assert.Equal(t, 0, FromTokens(nil).Len())
	assert.Nil(t, FromTokens(nil).Search(0, 0, 1, 1))

	tokens := []document.Token{
		{BoundingBox: document.BoundingBox{Left: 0, Top: 0, Right: 40, Bottom: 10}},
		{BoundingBox: document.BoundingBox{Left: 50, Top: 0, Right: 90, Bottom: 10}},
		{BoundingBox: document.BoundingBox{Left: 0, Top: 20, Right: 40, Bottom: 30}},
	}
	idx := FromTokens(tokens)
	require.NotNil(t, idx)

	inf := math.Inf(1)
	lo, _, ok := idx.MinMax(45, 5, inf, inf)
	require.True(t, ok)
	assert.Equal(t, 1, lo, "start query from inside the gap picks the next token")

	_, hi, ok := idx.MinMax(-inf, -inf, 45, 5)
	require.True(t, ok)
	assert.Equal(t, 0, hi)

	_, _, ok = idx.MinMax(100, 100, 200, 200)
	assert.False(t, ok)
}
