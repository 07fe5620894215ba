package viewer

import "github.com/a3tai/mcp-doc-viewer/internal/document"

// Label geometry, in screen pixels
const (
	LabelHeight        = 20.0
	MaxLabelsShown     = 5
	MoreButtonHeight   = 20.0
	FocusedLabelOffset = -18.0
)

// LabelGroup is a stack of labels whose positions would overlap. Top and
// Bottom are relative to the top of the page wrapper.
type LabelGroup struct {
	Top         float64                      `json:"top"`
	Bottom      float64                      `json:"bottom"`
	Annotations []document.IndexedAnnotation `json:"-"`
}

// HasMore reports whether the group needs a "more" button
func (g LabelGroup) HasMore() bool {
	return len(g.Annotations) > MaxLabelsShown
}

// Visible returns the labels to draw. A collapsed group shows the first
// MaxLabelsShown unless the focused annotation is hidden past them.
func (g LabelGroup) Visible(expanded, focusing bool, focused int) []document.IndexedAnnotation {
	if !g.HasMore() || expanded {
		return g.Annotations
	}
	if focusing {
		for _, a := range g.Annotations[MaxLabelsShown:] {
			if a.Index == focused {
				return g.Annotations
			}
		}
	}
	return g.Annotations[:MaxLabelsShown]
}

// GroupLabels stacks the labels of annotations that start on page. Each
// label sits at its annotation's top scaled to the wrapper height; a label
// that would start above the previous group's bottom joins that group.
func GroupLabels(annotations []document.IndexedAnnotation, page int, wrapperHeight, originalHeight float64) []LabelGroup {
	if originalHeight <= 0 {
		return nil
	}

	var groups []LabelGroup
	for _, a := range annotations {
		if a.PageStart != page {
			continue
		}
		top := a.Top * wrapperHeight / originalHeight

		if n := len(groups); n > 0 && top <= groups[n-1].Bottom {
			g := &groups[n-1]
			g.Annotations = append(g.Annotations, a)
			switch size := len(g.Annotations); {
			case size <= MaxLabelsShown:
				g.Bottom += LabelHeight
			case size == MaxLabelsShown+1:
				g.Bottom += MoreButtonHeight
			}
			continue
		}

		groups = append(groups, LabelGroup{
			Top:         top,
			Bottom:      top + LabelHeight,
			Annotations: []document.IndexedAnnotation{a},
		})
	}
	return groups
}
