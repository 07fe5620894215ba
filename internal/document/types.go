package document

import "math"

// Sentinel bounds used by per-page fragments of ranges that continue onto a
// neighbouring page. OpenStart stands in for -Inf, OpenEnd for +Inf.
const (
	OpenStart = math.MinInt
	OpenEnd   = math.MaxInt
)

// BoundingBox is a rectangle in page-original units with y growing downwards
type BoundingBox struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the box
func (b BoundingBox) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent of the box
func (b BoundingBox) Height() float64 { return b.Bottom - b.Top }

// Token is the smallest OCR unit: a character range and the box it occupies.
// CharacterEnd is exclusive.
type Token struct {
	Line           int         `json:"line"`
	BoundingBox    BoundingBox `json:"boundingBox"`
	CharacterStart int         `json:"characterStart"`
	CharacterEnd   int         `json:"characterEnd"`
}

// Annotation attaches a topic to a character range that may span pages.
// Top and Left anchor the start of the annotation and are only used to stack
// labels and to scroll to it.
type Annotation struct {
	CharacterStart int     `json:"characterStart"`
	CharacterEnd   int     `json:"characterEnd"`
	PageStart      int     `json:"pageStart"`
	PageEnd        int     `json:"pageEnd"`
	Top            float64 `json:"top"`
	Left           float64 `json:"left"`
	Topic          string  `json:"topic"`
}

// IndexedAnnotation is an Annotation with its position in the canonical sort
// order. Index is never exposed to hosts.
type IndexedAnnotation struct {
	Annotation
	Index int `json:"-"`
}

// SearchResult has the same shape as an Annotation minus the topic
type SearchResult struct {
	CharacterStart int     `json:"characterStart"`
	CharacterEnd   int     `json:"characterEnd"`
	PageStart      int     `json:"pageStart"`
	PageEnd        int     `json:"pageEnd"`
	Top            float64 `json:"top"`
	Left           float64 `json:"left"`
}

// Selection is one resolved endpoint of a drag: a token on a page.
// A nil *Selection means the endpoint is unset.
type Selection struct {
	Index int   `json:"index"`
	Page  int   `json:"page"`
	Token Token `json:"token"`
}

// Equal reports whether two possibly nil endpoints are the same
func (s *Selection) Equal(o *Selection) bool {
	if s == nil || o == nil {
		return s == o
	}
	return *s == *o
}

// PageSelection is the page-local form of a live selection. Either bound may
// be OpenStart/OpenEnd when the selection continues past the page.
type PageSelection struct {
	IndexStart int `json:"indexStart"`
	IndexEnd   int `json:"indexEnd"`
}

// Page describes one page of a document. All token boxes and annotation
// anchors are expressed in OriginalWidth x OriginalHeight units.
type Page struct {
	OriginalWidth  float64
	OriginalHeight float64
	Image          ImageResource
	Tokens         TokensResource
}
