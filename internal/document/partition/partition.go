// Package partition splits ranges that span several pages into one fragment
// per page. A fragment that continues onto the next page has an open end, and
// one that started on an earlier page has an open start, so every page can
// resolve its own piece against its own tokens.
package partition

import "github.com/a3tai/mcp-doc-viewer/internal/document"

// Range is a span of values over an inclusive page range. The values are
// character offsets for annotations and search results, token indices for
// selections.
type Range struct {
	Start     int
	End       int
	PageStart int
	PageEnd   int
}

// Fragment is the part of a Range on one page
type Fragment struct {
	Start int
	End   int
}

// Partition returns one fragment per page covered by r. The first page of a
// multi-page range ends at OpenEnd, the last starts at OpenStart and interior
// pages get both. When numberOfPages is positive, pages outside
// [1, numberOfPages] are dropped.
func Partition(r Range, numberOfPages int) map[int]Fragment {
	fragments := make(map[int]Fragment)
	Each(r, numberOfPages, func(page int, f Fragment) {
		fragments[page] = f
	})
	return fragments
}

// Each calls fn for every page fragment of r in ascending page order
func Each(r Range, numberOfPages int, fn func(page int, f Fragment)) {
	first, last := r.PageStart, r.PageEnd
	if numberOfPages > 0 {
		first = max(first, 1)
		last = min(last, numberOfPages)
	}

	for page := first; page <= last; page++ {
		f := Fragment{Start: r.Start, End: r.End}
		if page != r.PageEnd {
			f.End = document.OpenEnd
		}
		if page != r.PageStart {
			f.Start = document.OpenStart
		}
		fn(page, f)
	}
}

// AnnotationsPerPage groups annotation fragments by page. Each fragment keeps
// its annotation's topic and index, with character bounds narrowed to the page.
func AnnotationsPerPage(annotations []document.IndexedAnnotation, numberOfPages int) map[int][]document.IndexedAnnotation {
	pages := make(map[int][]document.IndexedAnnotation)

	for _, a := range annotations {
		r := Range{Start: a.CharacterStart, End: a.CharacterEnd, PageStart: a.PageStart, PageEnd: a.PageEnd}
		Each(r, numberOfPages, func(page int, f Fragment) {
			fragment := a
			fragment.CharacterStart = f.Start
			fragment.CharacterEnd = f.End
			pages[page] = append(pages[page], fragment)
		})
	}

	return pages
}

// SearchResultsPerPage groups search-result fragments by page
func SearchResultsPerPage(results []document.SearchResult, numberOfPages int) map[int][]document.SearchResult {
	pages := make(map[int][]document.SearchResult)

	for _, sr := range results {
		r := Range{Start: sr.CharacterStart, End: sr.CharacterEnd, PageStart: sr.PageStart, PageEnd: sr.PageEnd}
		Each(r, numberOfPages, func(page int, f Fragment) {
			fragment := sr
			fragment.CharacterStart = f.Start
			fragment.CharacterEnd = f.End
			pages[page] = append(pages[page], fragment)
		})
	}

	return pages
}

// SelectionPerPage maps a live selection to page-local index ranges. Nothing
// is returned until both endpoints are set.
func SelectionPerPage(start, end *document.Selection, numberOfPages int) map[int]document.PageSelection {
	pages := make(map[int]document.PageSelection)
	if start == nil || end == nil {
		return pages
	}

	r := Range{Start: start.Index, End: end.Index, PageStart: start.Page, PageEnd: end.Page}
	Each(r, numberOfPages, func(page int, f Fragment) {
		pages[page] = document.PageSelection{IndexStart: f.Start, IndexEnd: f.End}
	})

	return pages
}
