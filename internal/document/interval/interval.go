// Package interval maps character offsets to token indices on a page.
//
// Tokens on a page are sorted by CharacterStart and never overlap, so both
// lookups are binary searches. Offsets that fall in a gap between tokens
// resolve to the nearest token in the direction that keeps a range inside
// the page: forwards for a start offset, backwards for an end offset.
package interval

import "github.com/a3tai/mcp-doc-viewer/internal/document"

// CharacterStartToTokenIndex returns the token containing offset, or the first
// token starting after it, clamped to the last index. Tokens must not be empty.
func CharacterStartToTokenIndex(offset int, tokens []document.Token) int {
	left, right := 0, len(tokens)-1

	for left <= right {
		mid := int(uint(left+right) >> 1)

		switch {
		case offset < tokens[mid].CharacterStart:
			right = mid - 1
		case offset >= tokens[mid].CharacterEnd:
			left = mid + 1
		default:
			return mid
		}
	}

	return min(left, len(tokens)-1)
}

// CharacterEndToTokenIndex treats offset as an exclusive end and returns the
// token it closes, or the last token ending before it, clamped to 0.
func CharacterEndToTokenIndex(offset int, tokens []document.Token) int {
	left, right := 0, len(tokens)-1

	for left <= right {
		mid := int(uint(left+right) >> 1)

		switch {
		case offset <= tokens[mid].CharacterStart:
			right = mid - 1
		case offset > tokens[mid].CharacterEnd:
			left = mid + 1
		default:
			return mid
		}
	}

	return max(right, 0)
}

// TokenRange resolves a page fragment's character bounds into an inclusive
// token index range. Open sentinels bypass the search. ok is false for an
// empty page or when the range resolves to nothing.
func TokenRange(characterStart, characterEnd int, tokens []document.Token) (start, end int, ok bool) {
	if len(tokens) == 0 {
		return 0, 0, false
	}

	if characterStart == document.OpenStart {
		start = 0
	} else {
		start = CharacterStartToTokenIndex(characterStart, tokens)
	}

	if characterEnd == document.OpenEnd {
		end = len(tokens) - 1
	} else {
		end = CharacterEndToTokenIndex(characterEnd, tokens)
	}

	return start, end, start <= end
}

// IndexRange clamps a page selection's index bounds to the page
func IndexRange(indexStart, indexEnd int, tokens []document.Token) (start, end int, ok bool) {
	if len(tokens) == 0 {
		return 0, 0, false
	}

	start, end = indexStart, indexEnd
	if start == document.OpenStart || start < 0 {
		start = 0
	}
	if end == document.OpenEnd || end > len(tokens)-1 {
		end = len(tokens) - 1
	}

	return start, end, start <= end
}
