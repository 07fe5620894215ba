package document

import (
	"cmp"
	"slices"
)

// CompareAnnotations orders annotations by (CharacterStart, CharacterEnd)
func CompareAnnotations(a, b Annotation) int {
	if c := cmp.Compare(a.CharacterStart, b.CharacterStart); c != 0 {
		return c
	}
	return cmp.Compare(a.CharacterEnd, b.CharacterEnd)
}

// IndexAnnotations sorts a copy of annotations canonically and assigns dense
// 0-based indices. The input slice is left untouched.
func IndexAnnotations(annotations []Annotation) []IndexedAnnotation {
	sorted := slices.Clone(annotations)
	slices.SortStableFunc(sorted, CompareAnnotations)

	indexed := make([]IndexedAnnotation, len(sorted))
	for i, a := range sorted {
		indexed[i] = IndexedAnnotation{Annotation: a, Index: i}
	}
	return indexed
}

// Strip drops the index before an annotation leaves the viewer
func (a IndexedAnnotation) Strip() Annotation {
	return a.Annotation
}

// ClampIndex restores the invariant that an externally held index points
// inside a list of n elements. An empty list clamps to 0.
func ClampIndex(index, n int) int {
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// ValidSelection reports whether a start/end pair can become an annotation
func ValidSelection(start, end *Selection) bool {
	if start == nil || end == nil {
		return false
	}
	if start.Page != end.Page {
		return start.Page < end.Page
	}
	return start.Index <= end.Index
}

// AnnotationFromSelection builds the annotation committed for a selection.
// Bounds come from the resolved tokens, never from pointer coordinates.
func AnnotationFromSelection(start, end *Selection, topic string) (Annotation, bool) {
	if !ValidSelection(start, end) {
		return Annotation{}, false
	}
	return Annotation{
		CharacterStart: start.Token.CharacterStart,
		CharacterEnd:   end.Token.CharacterEnd,
		PageStart:      start.Page,
		PageEnd:        end.Page,
		Top:            start.Token.BoundingBox.Top,
		Left:           start.Token.BoundingBox.Left,
		Topic:          topic,
	}, true
}
