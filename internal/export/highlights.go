// Package export renders highlights outside the viewer: an SVG overlay for
// one page and a PDF of page images with every highlight painted on.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/fusion"
	"github.com/a3tai/mcp-doc-viewer/internal/document/partition"
	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

// Fill is a translucent rectangle in page-original units
type Fill struct {
	document.BoundingBox
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Label   string  `json:"label,omitempty"`
}

// Highlights computes the fills of every page from its tokens. Search
// results are drawn under annotations. The result has one entry per page.
func Highlights(pageTokens [][]document.Token, annotations []document.Annotation, results []document.SearchResult) [][]Fill {
	n := len(pageTokens)
	perPageAnnotations := partition.AnnotationsPerPage(document.IndexAnnotations(annotations), n)
	perPageResults := partition.SearchResultsPerPage(results, n)

	fills := make([][]Fill, n)
	for i, tokens := range pageTokens {
		page := i + 1
		for _, r := range fusion.SearchResultsToRectangles(perPageResults[page], tokens) {
			fills[i] = append(fills[i], Fill{
				BoundingBox: fusion.Pad(r, fusion.RectanglePadding),
				Color:       fusion.SearchResultColor,
				Opacity:     fusion.SearchResultOpacity,
			})
		}
		for _, r := range fusion.AnnotationsToRectangles(perPageAnnotations[page], tokens) {
			fills[i] = append(fills[i], Fill{
				BoundingBox: fusion.Pad(r.BoundingBox, fusion.RectanglePadding),
				Color:       fusion.TopicColor(r.Topic),
				Opacity:     fusion.AnnotationOpacity,
				Label:       r.Topic,
			})
		}
	}
	return fills
}

// FromOverlay flattens a live viewer overlay, including the selection and
// focus state
func FromOverlay(o viewer.Overlay) []Fill {
	var fills []Fill
	for _, r := range o.SearchResults {
		fills = append(fills, Fill{BoundingBox: r, Color: fusion.SearchResultColor, Opacity: fusion.SearchResultOpacity})
	}
	for _, r := range o.Annotations {
		fills = append(fills, Fill{BoundingBox: r.BoundingBox, Color: r.Color, Opacity: r.Opacity, Label: r.Topic})
	}
	for _, r := range o.Selection {
		fills = append(fills, Fill{BoundingBox: r, Color: fusion.SelectionColor, Opacity: fusion.SelectionOpacity})
	}
	return fills
}

// parseColor reads #rgb and #rrggbb colours
func parseColor(s string) (r, g, b int, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}
