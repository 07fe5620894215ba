package viewer

import (
	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/fusion"
	"github.com/a3tai/mcp-doc-viewer/internal/document/partition"
)

// Overlay is everything drawn over one page. Rectangles are padded and in
// page-original units. Image is in content pixels; label tops are pixels
// from the top of the page wrapper.
type Overlay struct {
	Page           int     `json:"page"`
	Loaded         bool    `json:"loaded"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Image          Rect    `json:"image"`
	OriginalWidth  float64 `json:"originalWidth"`
	OriginalHeight float64 `json:"originalHeight"`

	Annotations   []AnnotationRect       `json:"annotations,omitempty"`
	SearchResults []document.BoundingBox `json:"searchResults,omitempty"`
	Selection     []document.BoundingBox `json:"selection,omitempty"`
	Labels        []LabelGroupView       `json:"labels,omitempty"`
}

// AnnotationRect is one line of an annotation highlight
type AnnotationRect struct {
	document.BoundingBox
	Topic   string  `json:"topic"`
	Color   string  `json:"color"`
	Index   int     `json:"index"`
	Opacity float64 `json:"opacity"`
	Focused bool    `json:"focused,omitempty"`
}

// Label is one annotation label in the label column
type Label struct {
	Top     float64 `json:"top"`
	Left    float64 `json:"left"`
	Topic   string  `json:"topic"`
	Color   string  `json:"color"`
	Index   int     `json:"index"`
	Focused bool    `json:"focused,omitempty"`
}

// LabelGroupView is a label group as drawn
type LabelGroupView struct {
	Top      float64 `json:"top"`
	Bottom   float64 `json:"bottom"`
	Labels   []Label `json:"labels"`
	Hidden   int     `json:"hidden,omitempty"`
	Expanded bool    `json:"expanded,omitempty"`
}

// PageOverlay returns the overlay of a page. Pages outside the lazy-load
// window, or whose tokens have not arrived, report Loaded=false and carry
// only their placement and labels.
func (v *Viewer) PageOverlay(page int) (Overlay, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	st, ok := v.page(page)
	if !ok {
		return Overlay{}, false
	}
	box, _ := v.viewport.Page(page)

	o := Overlay{
		Page:           page,
		ImageURL:       st.imageURL,
		Image:          box.Image,
		OriginalWidth:  st.size.Width,
		OriginalHeight: st.size.Height,
		Labels:         v.labels(page, st, box),
	}
	if !st.loaded || !v.viewport.ShouldLoad(page) {
		return o, true
	}
	o.Loaded = true

	for _, r := range fusion.AnnotationsToRectangles(v.pageAnnotations[page], st.tokens) {
		focused := v.focusing && r.Index == v.focused
		opacity := fusion.AnnotationOpacity
		if focused {
			opacity = fusion.FocusedOpacity
		}
		o.Annotations = append(o.Annotations, AnnotationRect{
			BoundingBox: fusion.Pad(r.BoundingBox, fusion.RectanglePadding),
			Topic:       r.Topic,
			Color:       fusion.TopicColor(r.Topic),
			Index:       r.Index,
			Opacity:     opacity,
			Focused:     focused,
		})
	}

	for _, r := range fusion.SearchResultsToRectangles(v.pageSearchResults[page], st.tokens) {
		o.SearchResults = append(o.SearchResults, fusion.Pad(r, fusion.RectanglePadding))
	}

	if ps, ok := partition.SelectionPerPage(v.selectionStart, v.selectionEnd, len(v.pages))[page]; ok {
		for _, r := range fusion.SelectionToRectangles(&ps, st.tokens) {
			o.Selection = append(o.Selection, fusion.Pad(r, fusion.RectanglePadding))
		}
	}

	return o, true
}

func (v *Viewer) labels(page int, st *pageState, box PageBox) []LabelGroupView {
	groups := GroupLabels(v.pageAnnotations[page], page, box.Wrapper.Height, st.size.Height)
	if len(groups) == 0 {
		return nil
	}

	views := make([]LabelGroupView, len(groups))
	for i, g := range groups {
		expanded := v.expanded[labelKey{page: page, group: i}]
		visible := g.Visible(expanded, v.focusing, v.focused)

		view := LabelGroupView{
			Top:      g.Top,
			Bottom:   g.Bottom,
			Hidden:   len(g.Annotations) - len(visible),
			Expanded: expanded,
		}
		for j, a := range visible {
			label := Label{
				Top:   g.Top + float64(j)*LabelHeight,
				Topic: a.Topic,
				Color: fusion.TopicColor(a.Topic),
				Index: a.Index,
			}
			if v.focusing && a.Index == v.focused {
				label.Focused = true
				label.Left = FocusedLabelOffset
			}
			view.Labels = append(view.Labels, label)
		}
		views[i] = view
	}
	return views
}
