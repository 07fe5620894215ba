package viewer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Zoom and layout constants, in screen pixels
const (
	WholePageZoom            = "whole-page-zoom"
	DefaultZoom              = "75%"
	DefaultLazyLoadingWindow = 2

	LabelsWidth      = 200.0
	LabelsMarginLeft = 6.0

	listPadding    = 8.0
	itemPadding    = 8.0
	itemMarginLeft = 12.0
	scrollbarWidth = 15.0

	// ScrollDuration is the length of a programmatic smooth scroll
	ScrollDuration = 200 * time.Millisecond

	locationMargin = 20.0
)

// Rect is an axis-aligned rectangle in content coordinates: pixels relative
// to the top-left corner of the page list, independent of scrolling
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	return r.Left <= p.X && p.X <= r.Right() && r.Top <= p.Y && p.Y <= r.Bottom()
}

// PageBox is the computed placement of one page
type PageBox struct {
	// Item is the list entry including its vertical padding
	Item Rect `json:"item"`
	// Wrapper holds the page image and its annotation labels
	Wrapper Rect `json:"wrapper"`
	// Image is where the page image and its overlays are drawn
	Image Rect `json:"image"`
	// Labels is the annotation label column
	Labels Rect `json:"labels"`
}

// Layout places every page of a document for a container size and zoom
type Layout struct {
	ContainerWidth  float64   `json:"containerWidth"`
	ContainerHeight float64   `json:"containerHeight"`
	Zoom            string    `json:"zoom"`
	Pages           []PageBox `json:"pages"`
	ContentWidth    float64   `json:"contentWidth"`
	ContentHeight   float64   `json:"contentHeight"`
}

// ValidateZoom accepts WholePageZoom or a positive percentage like "75%"
func ValidateZoom(zoom string) error {
	if zoom == WholePageZoom {
		return nil
	}
	if _, err := zoomPercent(zoom); err != nil {
		return err
	}
	return nil
}

func zoomPercent(zoom string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(zoom), "%"), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid zoom %q: want a positive percentage or %q", zoom, WholePageZoom)
	}
	return value, nil
}

// WrapperSize returns the page wrapper size. Whole-page zoom fits the page
// height to the container; a percentage sizes the wrapper to that share of
// the container width. Both include the label column.
func WrapperSize(containerWidth, containerHeight, originalWidth, originalHeight float64, zoom string) (width, height float64) {
	labels := LabelsWidth + LabelsMarginLeft
	if originalWidth <= 0 || originalHeight <= 0 {
		return labels, 0
	}

	if zoom == WholePageZoom {
		height = containerHeight
		return containerHeight*(originalWidth/originalHeight) + labels, height
	}

	percent, err := zoomPercent(zoom)
	if err != nil {
		percent, _ = zoomPercent(DefaultZoom)
	}
	imageWidth := math.Max(containerWidth*(percent/100)-labels, 0)
	return imageWidth + labels, imageWidth * (originalHeight / originalWidth)
}

// ComputeLayout stacks pages vertically, each centred in its list item
func ComputeLayout(containerWidth, containerHeight float64, zoom string, pages []PageSize) Layout {
	layout := Layout{
		ContainerWidth:  containerWidth,
		ContainerHeight: containerHeight,
		Zoom:            zoom,
		Pages:           make([]PageBox, len(pages)),
	}

	itemWidth := math.Max(containerWidth-scrollbarWidth, 0)
	top := listPadding
	right := 0.0

	for i, p := range pages {
		wrapperWidth, wrapperHeight := WrapperSize(containerWidth, containerHeight, p.Width, p.Height, zoom)
		left := itemMarginLeft + math.Max((itemWidth-wrapperWidth)/2, 0)
		imageWidth := wrapperWidth - LabelsWidth - LabelsMarginLeft

		box := PageBox{
			Item:    Rect{Left: itemMarginLeft, Top: top, Width: itemWidth, Height: wrapperHeight + 2*itemPadding},
			Wrapper: Rect{Left: left, Top: top + itemPadding, Width: wrapperWidth, Height: wrapperHeight},
			Image:   Rect{Left: left, Top: top + itemPadding, Width: imageWidth, Height: wrapperHeight},
			Labels: Rect{
				Left:   left + imageWidth + LabelsMarginLeft,
				Top:    top + itemPadding,
				Width:  LabelsWidth,
				Height: wrapperHeight,
			},
		}
		layout.Pages[i] = box

		top = box.Item.Bottom()
		right = math.Max(right, math.Max(box.Item.Right(), box.Wrapper.Right()))
	}

	layout.ContentHeight = top + listPadding
	layout.ContentWidth = right
	return layout
}

// PageSize is a page's original size
type PageSize struct {
	Width  float64
	Height float64
}

// Viewport tracks the scroll position over a layout, the current page and
// programmatic smooth scrolling
type Viewport struct {
	layout     Layout
	scrollX    float64
	scrollY    float64
	current    int
	lazyWindow int

	scrolling bool
	seq       uint64
	anim      *scrollAnimation
}

type scrollAnimation struct {
	seq            uint64
	start          time.Time
	startX, startY float64
	endX, endY     float64
}

// NewViewport creates a viewport showing page 1
func NewViewport(lazyWindow int) *Viewport {
	if lazyWindow < 0 {
		lazyWindow = DefaultLazyLoadingWindow
	}
	return &Viewport{current: 1, lazyWindow: lazyWindow}
}

// SetLayout replaces the layout and clamps the scroll position to it
func (v *Viewport) SetLayout(layout Layout) {
	v.layout = layout
	v.scrollX, v.scrollY = v.clamp(v.scrollX, v.scrollY)
}

// Layout returns the current layout
func (v *Viewport) Layout() Layout { return v.layout }

// NumPages returns the number of laid out pages
func (v *Viewport) NumPages() int { return len(v.layout.Pages) }

// Page returns the placement of a 1-based page
func (v *Viewport) Page(page int) (PageBox, bool) {
	if page < 1 || page > len(v.layout.Pages) {
		return PageBox{}, false
	}
	return v.layout.Pages[page-1], true
}

// Scroll returns the scroll offsets
func (v *Viewport) Scroll() (x, y float64) { return v.scrollX, v.scrollY }

// SetScroll moves the viewport, clamped to the scrollable range, and returns
// the applied delta
func (v *Viewport) SetScroll(x, y float64) (dx, dy float64) {
	x, y = v.clamp(x, y)
	dx, dy = x-v.scrollX, y-v.scrollY
	v.scrollX, v.scrollY = x, y
	return dx, dy
}

// MaxScroll returns the largest valid scroll offsets
func (v *Viewport) MaxScroll() (x, y float64) {
	return math.Max(v.layout.ContentWidth-v.layout.ContainerWidth, 0),
		math.Max(v.layout.ContentHeight-v.layout.ContainerHeight, 0)
}

func (v *Viewport) clamp(x, y float64) (float64, float64) {
	maxX, maxY := v.MaxScroll()
	return math.Min(math.Max(x, 0), maxX), math.Min(math.Max(y, 0), maxY)
}

// CurrentPage returns the 1-based page reported as current
func (v *Viewport) CurrentPage() int { return v.current }

// SetCurrentPage records the current page. It returns false when the page is
// out of range or unchanged.
func (v *Viewport) SetCurrentPage(page int) bool {
	if page == v.current || page < 1 || page > len(v.layout.Pages) {
		return false
	}
	v.current = page
	return true
}

// PageInView scans from the top for the first page whose bottom edge is at
// or below the viewport's vertical middle. Past the last page it returns the
// last page; an empty layout yields 0.
func (v *Viewport) PageInView() int {
	if len(v.layout.Pages) == 0 {
		return 0
	}
	middle := v.scrollY + v.layout.ContainerHeight/2
	for i, p := range v.layout.Pages {
		if p.Item.Bottom() >= middle {
			return i + 1
		}
	}
	return len(v.layout.Pages)
}

// LazyWindow returns how many pages around the current one may load
func (v *Viewport) LazyWindow() int { return v.lazyWindow }

// ShouldLoad reports whether a page may fetch tokens and show overlays
func (v *Viewport) ShouldLoad(page int) bool {
	if v.scrolling {
		return false
	}
	d := page - v.current
	if d < 0 {
		d = -d
	}
	return d <= v.lazyWindow
}

// Scrolling reports whether a programmatic scroll is running
func (v *Viewport) Scrolling() bool { return v.scrolling }

// StartScroll begins a smooth scroll towards (endX, endY), preempting any
// running one. It returns the sequence number of the new scroll.
func (v *Viewport) StartScroll(now time.Time, endX, endY float64) uint64 {
	v.seq++
	endX, endY = v.clamp(endX, endY)
	v.anim = &scrollAnimation{
		seq:    v.seq,
		start:  now,
		startX: v.scrollX,
		startY: v.scrollY,
		endX:   endX,
		endY:   endY,
	}
	v.scrolling = true
	return v.seq
}

// Frame advances the running scroll to time now. It returns the new
// position and, once the scroll has arrived, the sequence number it was
// started with.
func (v *Viewport) Frame(now time.Time) (x, y float64, finished bool, seq uint64) {
	a := v.anim
	if a == nil {
		return v.scrollX, v.scrollY, false, 0
	}

	t := float64(now.Sub(a.start)) / float64(ScrollDuration)
	if t < 1 {
		progress := easeOut(math.Max(t, 0))
		return a.startX + progress*(a.endX-a.startX), a.startY + progress*(a.endY-a.startY), false, a.seq
	}

	v.anim = nil
	return a.endX, a.endY, true, a.seq
}

// Deadline returns when the running scroll will arrive
func (v *Viewport) Deadline() (time.Time, bool) {
	if v.anim == nil {
		return time.Time{}, false
	}
	return v.anim.start.Add(ScrollDuration), true
}

// FinishScroll runs a scroll's completion. Only the most recent scroll may
// clear the scrolling flag; a preempted one is ignored.
func (v *Viewport) FinishScroll(seq uint64) bool {
	if seq != v.seq {
		return false
	}
	v.scrolling = false
	return true
}

func easeOut(t float64) float64 {
	return (2 - t) * t
}

// Reset returns to the top of page 1 and drops any running scroll. It
// reports whether the current page changed.
func (v *Viewport) Reset() bool {
	v.seq++
	v.anim = nil
	v.scrolling = false
	v.scrollX, v.scrollY = 0, 0
	changed := v.current != 1
	v.current = 1
	return changed
}
