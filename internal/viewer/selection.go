package viewer

// Point is a pointer position in content coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p moved by (dx, dy)
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// MouseSelection is a drag rectangle ordered so that Start is the endpoint
// with the smaller y. The x coordinates are not reordered.
type MouseSelection struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// ButtonPrimary is the only button that starts a selection
const ButtonPrimary = 0

// PressEvent describes a pointer press over the page list
type PressEvent struct {
	Point  Point
	Button int
	Shift  bool
	// OnPicker is set when the press lands inside the topic picker, which
	// handles its own pointer input
	OnPicker bool
}

// PointerHandler receives document-wide pointer input during a drag
type PointerHandler interface {
	PointerMove(p Point)
	PointerUp()
}

// Subscription ends a pointer subscription
type Subscription interface {
	Close()
}

// PointerSource lets a drag follow the pointer outside the page list, the
// way a browser drag listens on the whole document until release.
// Subscribe must not deliver events before it returns.
type PointerSource interface {
	Subscribe(h PointerHandler) Subscription
}

// DragState is the selection controller's state
type DragState int

const (
	// DragIdle has no pointer held
	DragIdle DragState = iota
	// DragPressing has just started a selection and has no end point yet
	DragPressing
	// DragDragging tracks a moving end point
	DragDragging
	// DragExtending moves the end of an existing selection after a shift press
	DragExtending
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragPressing:
		return "pressing"
	case DragDragging:
		return "dragging"
	case DragExtending:
		return "extending"
	default:
		return "unknown"
	}
}

// Controller turns pointer input into a mouse selection. It is not safe for
// concurrent use; the Viewer serialises access.
type Controller struct {
	source  PointerSource
	handler PointerHandler
	sub     Subscription

	state      DragState
	mouseStart *Point
	mouseEnd   *Point
	scrollX    float64
	scrollY    float64
}

// NewController creates a controller. source may be nil when the host
// delivers every pointer event itself; handler receives the subscribed
// events.
func NewController(source PointerSource, handler PointerHandler) *Controller {
	return &Controller{source: source, handler: handler}
}

// State returns the current drag state
func (c *Controller) State() DragState { return c.state }

// Selecting reports whether the pointer is held
func (c *Controller) Selecting() bool { return c.state != DragIdle }

// Press handles a pointer press. It returns reset=true when the press
// starts a new selection, which discards the resolved selection endpoints,
// and handled=false when the press is ignored.
func (c *Controller) Press(ev PressEvent) (reset, handled bool) {
	if ev.Button != ButtonPrimary || ev.OnPicker {
		return false, false
	}

	p := ev.Point
	if ev.Shift && c.mouseStart != nil {
		c.mouseEnd = &p
		c.state = DragExtending
		c.subscribe()
		return false, true
	}

	c.mouseStart = &p
	c.mouseEnd = nil
	c.state = DragPressing
	c.subscribe()
	return true, true
}

// Move updates the end point while the pointer is held. It reports whether
// the mouse selection changed.
func (c *Controller) Move(p Point) bool {
	if c.state == DragIdle {
		return false
	}
	if c.mouseEnd != nil && *c.mouseEnd == p {
		return false
	}
	c.mouseEnd = &p
	if c.state == DragPressing {
		c.state = DragDragging
	}
	return true
}

// Release ends the drag and drops the pointer subscription
func (c *Controller) Release() bool {
	if c.state == DragIdle {
		return false
	}
	c.state = DragIdle
	c.unsubscribe()
	return true
}

// Scroll records a new scroll position. While the pointer is held the end
// point moves with the content so the selection follows the pointer.
// It reports whether the mouse selection changed.
func (c *Controller) Scroll(x, y float64) bool {
	dx, dy := x-c.scrollX, y-c.scrollY
	c.scrollX, c.scrollY = x, y

	if c.state == DragIdle || (dx == 0 && dy == 0) || c.mouseStart == nil {
		return false
	}

	end := *c.mouseStart
	if c.mouseEnd != nil {
		end = *c.mouseEnd
	}
	end = end.Add(dx, dy)
	c.mouseEnd = &end
	return true
}

// Points returns the raw press and end points
func (c *Controller) Points() (start, end *Point) {
	return c.mouseStart, c.mouseEnd
}

// Selection returns the ordered mouse selection, or nil until both points
// are known
func (c *Controller) Selection() *MouseSelection {
	if c.mouseStart == nil || c.mouseEnd == nil {
		return nil
	}
	start, end := *c.mouseStart, *c.mouseEnd
	if end.Y < start.Y {
		start, end = end, start
	}
	return &MouseSelection{Start: start, End: end}
}

// Reset forgets both points and ends any drag
func (c *Controller) Reset() {
	c.mouseStart = nil
	c.mouseEnd = nil
	c.state = DragIdle
	c.unsubscribe()
}

func (c *Controller) subscribe() {
	if c.source == nil || c.sub != nil {
		return
	}
	c.sub = c.source.Subscribe(c.handler)
}

func (c *Controller) unsubscribe() {
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}
