package document

import (
	"regexp"
	"sort"
	"strings"
)

// Text is a document's full text with the tokens of each page. Token
// character offsets index into Content; Pages[0] is page 1.
type Text struct {
	Content string
	Pages   [][]Token
}

// SearchOptions controls Search
type SearchOptions struct {
	CaseSensitive bool
	MaxResults    int
}

// Search finds the non-overlapping occurrences of query in the document text
// and maps each one to the pages it covers. A result's Top and Left anchor at
// its first token. Matches outside every page's tokens are skipped.
func (t Text) Search(query string, opts SearchOptions) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || t.Content == "" {
		return nil
	}

	pattern := regexp.QuoteMeta(query)
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re := regexp.MustCompile(pattern)

	limit := -1
	if opts.MaxResults > 0 {
		limit = opts.MaxResults
	}

	var results []SearchResult
	for _, m := range re.FindAllStringIndex(t.Content, limit) {
		pageStart, first, ok := t.locate(m[0])
		if !ok {
			continue
		}
		pageEnd, _, ok := t.locate(m[1] - 1)
		if !ok || pageEnd < pageStart {
			pageEnd = pageStart
		}

		anchor := t.Pages[pageStart-1][first].BoundingBox
		results = append(results, SearchResult{
			CharacterStart: m[0],
			CharacterEnd:   m[1],
			PageStart:      pageStart,
			PageEnd:        pageEnd,
			Top:            anchor.Top,
			Left:           anchor.Left,
		})
	}

	return results
}

// locate returns the 1-based page and token index of the first token ending
// after offset
func (t Text) locate(offset int) (page, index int, ok bool) {
	for p, tokens := range t.Pages {
		if len(tokens) == 0 || tokens[len(tokens)-1].CharacterEnd <= offset {
			continue
		}
		i := sort.Search(len(tokens), func(i int) bool {
			return tokens[i].CharacterEnd > offset
		})
		return p + 1, i, true
	}
	return 0, 0, false
}
