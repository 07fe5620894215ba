package session

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/export"
	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

// PageOverlay returns what the viewer draws over a page, optionally as SVG
func (s *Service) PageOverlay(req PageOverlayRequest) (*PageOverlayResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	overlay, ok := sess.viewer.PageOverlay(req.Page)
	if !ok {
		return nil, fmt.Errorf("page %d out of range (1-%d)", req.Page, sess.viewer.NumPages())
	}

	result := &PageOverlayResult{SessionID: sess.ID, Overlay: overlay}

	switch strings.ToLower(req.Format) {
	case "", "json":
	case "svg":
		var buf bytes.Buffer
		err := export.WriteSVG(&buf, overlay.OriginalWidth, overlay.OriginalHeight, overlay.ImageURL, export.FromOverlay(overlay))
		if err != nil {
			return nil, fmt.Errorf("failed to render overlay: %w", err)
		}
		result.SVG = buf.String()
	default:
		return nil, fmt.Errorf("unsupported overlay format: %s", req.Format)
	}

	return result, nil
}

// Drag presses the primary button at the start point, moves to the end
// point, optionally scrolls the list by ScrollBy, and releases. A start page
// whose tokens are not loaded is scrolled to first. Without ScrollBy the end
// page must lie in the lazy-load window of the start page.
func (s *Service) Drag(req DragRequest) (*DragResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	v := sess.viewer
	endPage := req.EndPage
	if endPage == 0 {
		endPage = req.Page
	}
	for _, page := range []int{req.Page, endPage} {
		if page < 1 || page > v.NumPages() {
			return nil, fmt.Errorf("page %d out of range (1-%d)", page, v.NumPages())
		}
	}

	if _, loaded := v.PageTokens(req.Page); !loaded || !v.InWindow(req.Page) {
		v.Navigate(req.Page)
		v.SettleScroll()
		v.Wait()
	}
	if req.ScrollBy == 0 && !v.InWindow(endPage) {
		return nil, fmt.Errorf("end page %d is outside the loaded pages around page %d; "+
			"drag in shorter steps with shift or set scroll_by", endPage, req.Page)
	}

	start, err := sess.contentPoint(req.Page, req.X1, req.Y1)
	if err != nil {
		return nil, err
	}
	end, err := sess.contentPoint(endPage, req.X2, req.Y2)
	if err != nil {
		return nil, err
	}

	v.Press(viewer.PressEvent{Point: start, Button: viewer.ButtonPrimary, Shift: req.Shift})
	v.Wait()
	v.Move(end)
	if req.ScrollBy != 0 {
		x, y := v.ScrollPosition()
		v.Scroll(x, y+req.ScrollBy)
	}
	v.Wait()
	v.Release()

	first, last := v.Selection()
	return &DragResult{
		SessionID:    sess.ID,
		Start:        first,
		End:          last,
		Complete:     document.ValidSelection(first, last),
		SelectedText: sess.selectedText(first, last),
		DragState:    v.DragState().String(),
		Events:       sess.drainEvents(),
	}, nil
}

// Annotate commits the current selection under a topic
func (s *Service) Annotate(req AnnotateRequest) (*AnnotateResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	a, ok := sess.viewer.CommitSelection(topic)
	if !ok {
		return nil, fmt.Errorf("no complete selection to annotate, drag over the text first")
	}

	annotations := sess.viewer.Annotations()
	index := slices.Index(annotations, a)

	return &AnnotateResult{
		SessionID:   sess.ID,
		Annotation:  sess.annotationInfo(a, index),
		Annotations: len(annotations),
		Events:      sess.drainEvents(),
	}, nil
}

// DeleteAnnotation removes the annotation at index
func (s *Service) DeleteAnnotation(req DeleteAnnotationRequest) (*DeleteAnnotationResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	a, ok := sess.viewer.DeleteAnnotation(req.Index)
	if !ok {
		return nil, fmt.Errorf("annotation index %d out of range (%d annotations)", req.Index, len(sess.viewer.Annotations()))
	}

	return &DeleteAnnotationResult{
		SessionID:   sess.ID,
		Annotation:  a,
		Annotations: len(sess.viewer.Annotations()),
		Events:      sess.drainEvents(),
	}, nil
}

// contentPoint converts a point in page-original units to the viewer's
// content coordinates
func (sess *Session) contentPoint(page int, x, y float64) (viewer.Point, error) {
	layout := sess.viewer.Layout()
	if page < 1 || page > len(layout.Pages) {
		return viewer.Point{}, fmt.Errorf("page %d out of range (1-%d)", page, len(layout.Pages))
	}
	size := sess.Document.Pages[page-1]
	if size.Width <= 0 || size.Height <= 0 {
		return viewer.Point{}, fmt.Errorf("page %d has no size", page)
	}

	image := layout.Pages[page-1].Image
	return viewer.Point{
		X: image.Left + x*image.Width/size.Width,
		Y: image.Top + y*image.Height/size.Height,
	}, nil
}
