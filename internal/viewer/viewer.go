// Package viewer is a headless document viewer: it lays out scanned pages,
// lazily loads their OCR tokens, turns pointer drags into token selections
// and turns annotations, search results and selections into rectangles
// ready to draw over the page images.
//
// A Viewer is driven by explicit events (Press, Move, Release, Scroll,
// AnimationFrame) and reports changes through Callbacks. Callbacks run after
// the viewer's lock is released, so they may call back into the viewer.
package viewer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/fusion"
	"github.com/a3tai/mcp-doc-viewer/internal/document/partition"
	"github.com/a3tai/mcp-doc-viewer/internal/document/spatial"
	"github.com/a3tai/mcp-doc-viewer/internal/tokens"
)

// Default container size used when Options leaves it unset
const (
	DefaultWidth  = 1280.0
	DefaultHeight = 800.0
)

// Callbacks are the viewer's outputs. Nil callbacks are skipped.
type Callbacks struct {
	OnSelectionStart   func(*document.Selection)
	OnSelectionEnd     func(*document.Selection)
	OnAnnotationCreate func(document.Annotation)
	OnAnnotationDelete func(document.Annotation)
	OnPageChange       func(page int)
}

// Options configures a Viewer
type Options struct {
	Width  float64
	Height float64
	Zoom   string
	// LazyLoadingWindow is how many pages on either side of the current one
	// load tokens. Negative selects DefaultLazyLoadingWindow.
	LazyLoadingWindow int

	Fetcher *tokens.Fetcher
	Pointer PointerSource
	Logger  *log.Logger
	Now     func() time.Time

	Callbacks Callbacks
}

// Handle is the imperative interface a host uses to steer the viewer
type Handle interface {
	ScrollToPage(page int)
	ScrollToLocation(page int, left, top float64)
	ScrollToAnnotation(index int)
	FocusAnnotation(index int)
}

var _ Handle = (*Viewer)(nil)

// Viewer holds one open document
type Viewer struct {
	mu        sync.Mutex
	callbacks Callbacks
	logger    *log.Logger
	now       func() time.Time
	width     float64
	height    float64
	zoom      string

	ctx    context.Context
	cancel context.CancelFunc
	loader *tokens.Loader
	images sync.WaitGroup

	documentID string
	pages      []*pageState
	viewport   *Viewport
	controller *Controller

	annotations       []document.IndexedAnnotation
	pageAnnotations   map[int][]document.IndexedAnnotation
	searchResults     []document.SearchResult
	pageSearchResults map[int][]document.SearchResult

	selectionStart *document.Selection
	selectionEnd   *document.Selection
	focused        int
	focusing       bool
	expanded       map[labelKey]bool

	imageSeq uint64
	pending  []func()
	closed   bool
}

type labelKey struct{ page, group int }

type pageState struct {
	page document.Page
	size PageSize

	tokens  []document.Token
	index   *spatial.Index
	loaded  bool
	loading bool
	gen     uint64
	err     error

	imageURL     string
	imageLoading bool
	imageFailed  bool
	imageSeq     uint64
}

// New creates an empty viewer
func New(opts Options) *Viewer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Zoom == "" || ValidateZoom(opts.Zoom) != nil {
		opts.Zoom = DefaultZoom
	}
	if opts.LazyLoadingWindow < 0 {
		opts.LazyLoadingWindow = DefaultLazyLoadingWindow
	}
	if opts.Fetcher == nil {
		opts.Fetcher = tokens.NewFetcher(tokens.DefaultTimeout, tokens.DefaultCacheSize)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		callbacks:         opts.Callbacks,
		logger:            opts.Logger,
		now:               opts.Now,
		width:             opts.Width,
		height:            opts.Height,
		zoom:              opts.Zoom,
		ctx:               ctx,
		cancel:            cancel,
		loader:            tokens.NewLoader(opts.Fetcher),
		viewport:          NewViewport(opts.LazyLoadingWindow),
		pageAnnotations:   map[int][]document.IndexedAnnotation{},
		pageSearchResults: map[int][]document.SearchResult{},
	}
	v.controller = NewController(opts.Pointer, pointer{v})
	v.relayout()
	return v
}

// run applies fn under the lock and then delivers the callbacks it queued
func (v *Viewer) run(fn func()) {
	v.mu.Lock()
	fn()
	pending := v.pending
	v.pending = nil
	v.mu.Unlock()

	for _, emit := range pending {
		emit()
	}
}

func (v *Viewer) emit(fn func()) {
	v.pending = append(v.pending, fn)
}

// SetPages loads a document. A new id resets the pointer and selection
// state and returns to page 1; the same id only refreshes the pages.
func (v *Viewer) SetPages(id string, pages []document.Page) {
	v.run(func() {
		if v.closed {
			return
		}
		for i, st := range v.pages {
			if st.loading {
				v.loader.Cancel(i + 1)
			}
		}

		old := v.pages
		v.pages = make([]*pageState, len(pages))
		for i, p := range pages {
			st := &pageState{page: p, size: PageSize{Width: p.OriginalWidth, Height: p.OriginalHeight}}
			// a failed URL stays failed until the page is remounted or its URL changes
			if id == v.documentID && i < len(old) && old[i].err != nil && old[i].page.Tokens.Same(p.Tokens) {
				st.err = old[i].err
			}
			v.pages[i] = st
		}
		v.relayout()
		v.pageAnnotations = partition.AnnotationsPerPage(v.annotations, len(v.pages))
		v.pageSearchResults = partition.SearchResultsPerPage(v.searchResults, len(v.pages))

		if id != v.documentID {
			v.documentID = id
			v.controller.Reset()
			v.setStart(nil)
			v.setEnd(nil)
			v.expanded = nil
			if v.viewport.Reset() {
				v.emitPageChange(1)
			}
			v.controller.Scroll(v.viewport.Scroll())
		}

		v.syncLoads()
	})
}

// DocumentID returns the id given to the last SetPages
func (v *Viewer) DocumentID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.documentID
}

// NumPages returns the number of pages
func (v *Viewer) NumPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pages)
}

// SetAnnotations replaces the host's annotations. They are sorted and
// reindexed, and the focused index is clamped into the new list.
func (v *Viewer) SetAnnotations(annotations []document.Annotation) {
	v.run(func() {
		v.annotations = document.IndexAnnotations(annotations)
		v.pageAnnotations = partition.AnnotationsPerPage(v.annotations, len(v.pages))
		if v.focused >= len(v.annotations) {
			v.focused = document.ClampIndex(v.focused, len(v.annotations))
		}
	})
}

// Annotations returns the annotations in index order
func (v *Viewer) Annotations() []document.Annotation {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]document.Annotation, len(v.annotations))
	for i, a := range v.annotations {
		out[i] = a.Strip()
	}
	return out
}

// SetSearchResults replaces the highlighted search results
func (v *Viewer) SetSearchResults(results []document.SearchResult) {
	v.run(func() {
		v.searchResults = append([]document.SearchResult(nil), results...)
		v.pageSearchResults = partition.SearchResultsPerPage(v.searchResults, len(v.pages))
	})
}

// SetZoom changes the zoom level
func (v *Viewer) SetZoom(zoom string) error {
	if err := ValidateZoom(zoom); err != nil {
		return err
	}
	v.run(func() {
		v.zoom = zoom
		v.relayout()
		v.resolveSelection()
	})
	return nil
}

// Resize changes the container size
func (v *Viewer) Resize(width, height float64) {
	v.run(func() {
		if width > 0 {
			v.width = width
		}
		if height > 0 {
			v.height = height
		}
		v.relayout()
		v.resolveSelection()
	})
}

func (v *Viewer) relayout() {
	sizes := make([]PageSize, len(v.pages))
	for i, st := range v.pages {
		sizes[i] = st.size
	}
	v.viewport.SetLayout(ComputeLayout(v.width, v.height, v.zoom, sizes))
}

// Layout returns the current page placement
func (v *Viewer) Layout() Layout {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport.Layout()
}

// CurrentPage returns the 1-based current page
func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport.CurrentPage()
}

// ScrollPosition returns the scroll offsets
func (v *Viewer) ScrollPosition() (x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport.Scroll()
}

// Scrolling reports whether a programmatic scroll is running
func (v *Viewer) Scrolling() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport.Scrolling()
}

// Selection returns the resolved selection endpoints
func (v *Viewer) Selection() (start, end *document.Selection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selectionStart, v.selectionEnd
}

// MouseSelection returns the ordered drag rectangle, nil without one
func (v *Viewer) MouseSelection() *MouseSelection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controller.Selection()
}

// DragState returns the selection controller's state
func (v *Viewer) DragState() DragState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controller.State()
}

// Focus returns the focused annotation index and whether focus is shown
func (v *Viewer) Focus() (index int, focusing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused, v.focusing
}

// Press handles a pointer press over the page list
func (v *Viewer) Press(ev PressEvent) {
	v.run(func() {
		reset, handled := v.controller.Press(ev)
		if reset {
			v.setStart(nil)
			v.setEnd(nil)
		}
		if handled {
			v.resolveSelection()
		}
	})
}

// Move handles pointer movement. It is ignored unless a drag is active.
func (v *Viewer) Move(p Point) {
	v.run(func() {
		if v.controller.Move(p) {
			v.resolveSelection()
		}
	})
}

// Release ends a drag
func (v *Viewer) Release() {
	v.run(func() {
		v.controller.Release()
	})
}

// pointer receives subscribed document-wide pointer events
type pointer struct{ v *Viewer }

func (p pointer) PointerMove(pt Point) { p.v.Move(pt) }
func (p pointer) PointerUp()           { p.v.Release() }

// Scroll handles a scroll of the page list to (x, y)
func (v *Viewer) Scroll(x, y float64) {
	v.run(func() {
		v.viewport.SetScroll(x, y)
		v.afterScroll()
	})
}

// AnimationFrame advances a running programmatic scroll to now
func (v *Viewer) AnimationFrame(now time.Time) {
	v.run(func() {
		v.frame(now)
	})
}

// SettleScroll completes a running programmatic scroll immediately
func (v *Viewer) SettleScroll() {
	v.run(func() {
		if deadline, ok := v.viewport.Deadline(); ok {
			v.frame(deadline)
		}
	})
}

func (v *Viewer) frame(now time.Time) {
	x, y, finished, seq := v.viewport.Frame(now)
	if seq == 0 {
		return
	}
	v.viewport.SetScroll(x, y)
	v.afterScroll()

	if finished && v.viewport.FinishScroll(seq) {
		v.changePage(v.viewport.PageInView())
		v.syncLoads()
	}
}

func (v *Viewer) afterScroll() {
	if !v.viewport.Scrolling() {
		v.changePage(v.viewport.PageInView())
	}
	if v.controller.Scroll(v.viewport.Scroll()) {
		v.resolveSelection()
	}
}

func (v *Viewer) changePage(page int) {
	if v.viewport.SetCurrentPage(page) {
		v.emitPageChange(page)
		v.syncLoads()
	}
}

func (v *Viewer) emitPageChange(page int) {
	if cb := v.callbacks.OnPageChange; cb != nil {
		v.emit(func() { cb(page) })
	}
}

// ScrollToPage smoothly scrolls a page to the top of the viewport. The
// current page and out-of-range pages are ignored.
func (v *Viewer) ScrollToPage(page int) {
	v.run(func() {
		v.scrollToPage(page)
	})
}

func (v *Viewer) scrollToPage(page int) {
	if page == v.viewport.CurrentPage() {
		return
	}
	box, ok := v.viewport.Page(page)
	if !ok {
		return
	}
	x, _ := v.viewport.Scroll()
	v.viewport.StartScroll(v.now(), x, box.Item.Top)
	v.syncLoads()
}

// ScrollToLocation smoothly scrolls to a point given in page-original units,
// leaving a small margin above and to the left of it
func (v *Viewer) ScrollToLocation(page int, left, top float64) {
	v.run(func() {
		v.scrollToLocation(page, left, top)
	})
}

func (v *Viewer) scrollToLocation(page int, left, top float64) {
	box, ok := v.viewport.Page(page)
	if !ok {
		return
	}
	size := v.pages[page-1].size
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	x := box.Image.Left + left*box.Image.Width/size.Width - locationMargin
	y := box.Image.Top + top*box.Image.Height/size.Height - locationMargin
	v.viewport.StartScroll(v.now(), x, y)
	v.syncLoads()
}

// ScrollToAnnotation scrolls to the anchor of an annotation
func (v *Viewer) ScrollToAnnotation(index int) {
	v.run(func() {
		if index < 0 || index >= len(v.annotations) {
			return
		}
		a := v.annotations[index]
		v.scrollToLocation(a.PageStart, a.Left, a.Top)
	})
}

// FocusAnnotation highlights an annotation and its label
func (v *Viewer) FocusAnnotation(index int) {
	v.run(func() {
		if index < 0 || index >= len(v.annotations) {
			return
		}
		v.focused = index
		v.focusing = true
	})
}

// Navigate jumps to a page, as the page navigation bar does. It reports
// whether the page exists.
func (v *Viewer) Navigate(page int) bool {
	ok := false
	v.run(func() {
		if page < 1 || page > len(v.pages) {
			return
		}
		ok = true
		v.scrollToPage(page)
	})
	return ok
}

// Click handles a click on the page list. A click on an annotation focuses
// it; any other click drops focus. Expanded label groups collapse. It returns
// the clicked annotation index, or -1.
func (v *Viewer) Click(p Point) int {
	hit := -1
	v.run(func() {
		v.focusing = false
		v.expanded = nil

		for i, st := range v.pages {
			page := i + 1
			box, _ := v.viewport.Page(page)
			if !box.Image.Contains(p) || !st.loaded || !v.viewport.ShouldLoad(page) {
				continue
			}
			pt := ToPage(p, box.Image, st.size.Width, st.size.Height)
			rects := fusion.AnnotationsToRectangles(v.pageAnnotations[page], st.tokens)
			for j := len(rects) - 1; j >= 0; j-- {
				r := fusion.Pad(rects[j].BoundingBox, fusion.RectanglePadding)
				if r.Left <= pt.X && pt.X <= r.Right && r.Top <= pt.Y && pt.Y <= r.Bottom {
					hit = rects[j].Index
					break
				}
			}
			break
		}

		if hit >= 0 {
			v.focused = hit
			v.focusing = true
		}
	})
	return hit
}

// ExpandLabels toggles the "more" button of a label group
func (v *Viewer) ExpandLabels(page, group int) bool {
	ok := false
	v.run(func() {
		st, exists := v.page(page)
		if !exists {
			return
		}
		box, _ := v.viewport.Page(page)
		groups := GroupLabels(v.pageAnnotations[page], page, box.Wrapper.Height, st.size.Height)
		if group < 0 || group >= len(groups) || !groups[group].HasMore() {
			return
		}
		if v.expanded == nil {
			v.expanded = make(map[labelKey]bool)
		}
		key := labelKey{page: page, group: group}
		v.expanded[key] = !v.expanded[key]
		ok = true
	})
	return ok
}

// CommitSelection turns the resolved selection into an annotation with the
// given topic and clears the selection. It reports false when the selection
// is incomplete or reversed.
func (v *Viewer) CommitSelection(topic string) (document.Annotation, bool) {
	var (
		a  document.Annotation
		ok bool
	)
	v.run(func() {
		a, ok = document.AnnotationFromSelection(v.selectionStart, v.selectionEnd, topic)
		if !ok {
			return
		}
		if cb := v.callbacks.OnAnnotationCreate; cb != nil {
			created := a
			v.emit(func() { cb(created) })
		}
		v.controller.Reset()
		v.setStart(nil)
		v.setEnd(nil)
	})
	return a, ok
}

// DeleteAnnotation asks the host to delete an annotation by index
func (v *Viewer) DeleteAnnotation(index int) (document.Annotation, bool) {
	var (
		a  document.Annotation
		ok bool
	)
	v.run(func() {
		if index < 0 || index >= len(v.annotations) {
			return
		}
		a, ok = v.annotations[index].Strip(), true
		if cb := v.callbacks.OnAnnotationDelete; cb != nil {
			deleted := a
			v.emit(func() { cb(deleted) })
		}
	})
	return a, ok
}

func (v *Viewer) setStart(s *document.Selection) bool {
	if s.Equal(v.selectionStart) {
		return false
	}
	v.selectionStart = s
	if cb := v.callbacks.OnSelectionStart; cb != nil {
		v.emit(func() { cb(s) })
	}
	return true
}

func (v *Viewer) setEnd(s *document.Selection) bool {
	if s.Equal(v.selectionEnd) {
		return false
	}
	v.selectionEnd = s
	if cb := v.callbacks.OnSelectionEnd; cb != nil {
		v.emit(func() { cb(s) })
	}
	return true
}

func (v *Viewer) apply(u endpointUpdate, set func(*document.Selection) bool) bool {
	if !u.set {
		return false
	}
	return set(u.value)
}

// resolveSelection maps the mouse selection onto every loaded page in
// ascending order, repeating until no endpoint changes. A page's result
// depends on the selection other pages produced, so one pass is not enough
// for drags that cross pages.
func (v *Viewer) resolveSelection() {
	ms := v.controller.Selection()
	if ms == nil {
		return
	}

	n := len(v.pages)
	for pass := 0; pass < n+2; pass++ {
		changed := false
		for i, st := range v.pages {
			page := i + 1
			if !st.loaded || !v.viewport.ShouldLoad(page) {
				continue
			}
			box, _ := v.viewport.Page(page)

			var live *document.PageSelection
			if ps, ok := partition.SelectionPerPage(v.selectionStart, v.selectionEnd, n)[page]; ok {
				live = &ps
			}

			res := resolvePage(page, ms, box.Image, st.size, st.tokens, st.index, live, v.selectionStart)
			if v.apply(res.defaultStart, v.setStart) {
				changed = true
			}
			if v.apply(res.start, v.setStart) {
				changed = true
			}
			if v.apply(res.end, v.setEnd) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func (v *Viewer) page(page int) (*pageState, bool) {
	if page < 1 || page > len(v.pages) {
		return nil, false
	}
	return v.pages[page-1], true
}

// syncLoads starts token and image loads for pages inside the lazy-load
// window and cancels token loads outside it. Failed loads are not retried
// while the page stays in the window; leaving it clears the failure.
func (v *Viewer) syncLoads() {
	if v.closed {
		return
	}
	for i, st := range v.pages {
		page := i + 1
		if !v.viewport.ShouldLoad(page) {
			if st.loading {
				v.loader.Cancel(page)
				st.loading = false
				st.gen = 0
			}
			st.err = nil
			st.imageFailed = false
			continue
		}

		if !st.loaded && !st.loading && st.err == nil && !st.page.Tokens.IsZero() {
			st.loading = true
			st.gen = v.loader.Load(v.ctx, page, st.page.Tokens, v.tokensLoaded)
		}
		if st.imageURL == "" && !st.imageLoading && !st.imageFailed && !st.page.Image.IsZero() {
			v.loadImage(st)
		}
	}
	v.resolveSelection()
}

func (v *Viewer) tokensLoaded(r tokens.Result) {
	v.run(func() {
		st, ok := v.page(r.Page)
		if !ok || v.closed || st.gen != r.Generation {
			return
		}
		st.loading = false
		st.gen = 0

		if r.Err != nil {
			if !tokens.IsCancelled(r.Err) {
				v.logger.Printf("Failed to load tokens for page %d: %v", r.Page, r.Err)
				st.err = r.Err
			}
			return
		}

		st.tokens = r.Tokens
		st.index = spatial.FromTokens(r.Tokens)
		st.loaded = true
		st.err = nil
		v.resolveSelection()
	})
}

func (v *Viewer) loadImage(st *pageState) {
	v.imageSeq++
	seq := v.imageSeq
	st.imageSeq = seq
	st.imageLoading = true

	res := st.page.Image
	ctx := v.ctx
	v.images.Add(1)
	go func() {
		defer v.images.Done()
		url, err := res.Resolve(ctx)
		v.run(func() {
			if st.imageSeq != seq {
				return
			}
			st.imageLoading = false
			if err != nil {
				if ctx.Err() == nil {
					v.logger.Printf("Failed to resolve image: %v", err)
					st.imageFailed = true
				}
				return
			}
			st.imageURL = url
		})
	}()
}

// PageError returns the last token load failure of a page
func (v *Viewer) PageError(page int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if st, ok := v.page(page); ok {
		return st.err
	}
	return nil
}

// PageTokens returns a loaded page's tokens
func (v *Viewer) PageTokens(page int) ([]document.Token, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	st, ok := v.page(page)
	if !ok || !st.loaded {
		return nil, false
	}
	return st.tokens, true
}

// InWindow reports whether page is inside the lazy-load window, so that
// pointer input over it resolves to tokens once they are loaded
func (v *Viewer) InWindow(page int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.page(page); !ok {
		return false
	}
	return v.viewport.ShouldLoad(page)
}

// Wait blocks until every started token and image load has been applied.
// It must not be called from a callback.
func (v *Viewer) Wait() {
	v.loader.Wait()
	v.images.Wait()
}

// Close cancels outstanding loads and ends any drag
func (v *Viewer) Close() {
	v.run(func() {
		v.closed = true
		v.controller.Reset()
		v.cancel()
	})
	v.loader.Close()
	v.images.Wait()
}
