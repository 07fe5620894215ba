package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	handler PointerHandler
	opened  int
	closed  int
}

func (s *fakeSource) Subscribe(h PointerHandler) Subscription {
	s.handler = h
	s.opened++
	return fakeSub{s}
}

type fakeSub struct{ s *fakeSource }

func (f fakeSub) Close() { f.s.closed++ }

type nopHandler struct{}

func (nopHandler) PointerMove(Point) {}
func (nopHandler) PointerUp()        {}

func TestController_IgnoredPresses(t *testing.T) {
	c := NewController(nil, nopHandler{})

	_, handled := c.Press(PressEvent{Point: Point{1, 1}, Button: 2})
	assert.False(t, handled, "secondary button")

	_, handled = c.Press(PressEvent{Point: Point{1, 1}, OnPicker: true})
	assert.False(t, handled, "press on the topic picker")

	assert.Equal(t, DragIdle, c.State())
	assert.False(t, c.Move(Point{5, 5}), "moves without a press are ignored")
}

func TestController_Drag(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, nopHandler{})

	reset, handled := c.Press(PressEvent{Point: Point{10, 50}})
	require.True(t, handled)
	assert.True(t, reset)
	assert.Equal(t, DragPressing, c.State())
	assert.Nil(t, c.Selection(), "no end point yet")
	assert.Equal(t, 1, src.opened)

	assert.True(t, c.Move(Point{30, 20}))
	assert.False(t, c.Move(Point{30, 20}), "same point")
	assert.Equal(t, DragDragging, c.State())

	ms := c.Selection()
	require.NotNil(t, ms)
	assert.Equal(t, Point{30, 20}, ms.Start, "smaller y first")
	assert.Equal(t, Point{10, 50}, ms.End)

	assert.True(t, c.Release())
	assert.Equal(t, DragIdle, c.State())
	assert.Equal(t, 1, src.closed)
	assert.NotNil(t, c.Selection(), "points survive release")
}

func TestController_ShiftExtends(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, nopHandler{})

	reset, _ := c.Press(PressEvent{Point: Point{10, 10}, Shift: true})
	assert.True(t, reset, "shift without an anchor starts a new selection")
	c.Move(Point{20, 20})
	c.Release()

	reset, handled := c.Press(PressEvent{Point: Point{40, 90}, Shift: true})
	require.True(t, handled)
	assert.False(t, reset)
	assert.Equal(t, DragExtending, c.State())

	start, end := c.Points()
	assert.Equal(t, Point{10, 10}, *start, "anchor is kept")
	assert.Equal(t, Point{40, 90}, *end)
}

func TestController_ScrollCompensation(t *testing.T) {
	c := NewController(nil, nopHandler{})
	assert.False(t, c.Scroll(0, 100), "idle scroll only records the position")

	c.Press(PressEvent{Point: Point{10, 200}})
	assert.True(t, c.Scroll(0, 150))

	_, end := c.Points()
	require.NotNil(t, end)
	assert.Equal(t, Point{10, 250}, *end, "anchor shifted when no end yet")

	c.Move(Point{30, 300})
	assert.True(t, c.Scroll(5, 170))
	_, end = c.Points()
	assert.Equal(t, Point{35, 320}, *end)

	c.Release()
	assert.False(t, c.Scroll(5, 400))
	_, end = c.Points()
	assert.Equal(t, Point{35, 320}, *end)
}

func TestController_SingleSubscription(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, nopHandler{})

	c.Press(PressEvent{Point: Point{0, 0}})
	c.Press(PressEvent{Point: Point{5, 5}})
	assert.Equal(t, 1, src.opened)

	c.Reset()
	assert.Equal(t, 1, src.closed)
	assert.Nil(t, c.Selection())
	start, _ := c.Points()
	assert.Nil(t, start)
}
