// Package ingest turns OCR and PDF output into the pages and tokens the
// viewer displays.
//
// Every producer appends words to a Builder, which assigns character offsets
// across the whole document: each word is followed by a single space, so the
// next word starts at CharacterEnd+1, also across page boundaries. The
// resulting text is what annotations and search results index into.
package ingest

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// Document is an ingested document ready to be viewed
type Document struct {
	ID     string     `json:"id" yaml:"id"`
	Title  string     `json:"title" yaml:"title"`
	Source string     `json:"source" yaml:"source"`
	Pages  []PageData `json:"pages" yaml:"pages"`
	Text   string     `json:"-" yaml:"-"`
}

// PageData is one ingested page. Width and Height are the page's original
// units, the same space its token boxes use.
type PageData struct {
	Number int              `json:"number"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Image  string           `json:"image,omitempty"`
	Tokens []document.Token `json:"tokens"`

	// TokensURL, when set, is fetched lazily instead of using Tokens
	TokensURL string `json:"tokensUrl,omitempty"`
}

// ViewerPages converts the document into viewer pages with inline tokens
func (d *Document) ViewerPages() []document.Page {
	pages := make([]document.Page, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = document.Page{
			OriginalWidth:  p.Width,
			OriginalHeight: p.Height,
			Tokens:         document.InlineTokens(p.Tokens),
		}
		if p.TokensURL != "" {
			pages[i].Tokens = document.StaticTokens(p.TokensURL)
		}
		if p.Image != "" {
			pages[i].Image = document.StaticImage(p.Image)
		}
	}
	return pages
}

// TextIndex returns the searchable text of the document
func (d *Document) TextIndex() document.Text {
	text := document.Text{Content: d.Text, Pages: make([][]document.Token, len(d.Pages))}
	for i, p := range d.Pages {
		text.Pages[i] = p.Tokens
	}
	return text
}

// TokenCount returns the number of tokens over all pages
func (d *Document) TokenCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Tokens)
	}
	return n
}

// Builder accumulates pages and the document text
type Builder struct {
	text  strings.Builder
	pages []PageData
	open  bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// StartPage opens a new page of the given original size
func (b *Builder) StartPage(width, height float64) {
	b.pages = append(b.pages, PageData{
		Number: len(b.pages) + 1,
		Width:  width,
		Height: height,
	})
	b.open = true
}

// SetPageImage records the display image of the current page
func (b *Builder) SetPageImage(image string) {
	if b.open {
		b.pages[len(b.pages)-1].Image = image
	}
}

// SetPageSize updates the size of the current page, for formats that only
// report it after the words
func (b *Builder) SetPageSize(width, height float64) {
	if b.open {
		b.pages[len(b.pages)-1].Width = width
		b.pages[len(b.pages)-1].Height = height
	}
}

// AddWord appends a word on line to the current page. Empty words are
// skipped.
func (b *Builder) AddWord(line int, box document.BoundingBox, word string) error {
	if !b.open {
		return fmt.Errorf("word %q added before any page", word)
	}
	if word == "" {
		return nil
	}

	start := b.text.Len()
	b.text.WriteString(word)
	b.text.WriteByte(' ')

	page := &b.pages[len(b.pages)-1]
	page.Tokens = append(page.Tokens, document.Token{
		Line:           line,
		BoundingBox:    box,
		CharacterStart: start,
		CharacterEnd:   start + len(word),
	})
	return nil
}

// Build returns the finished document
func (b *Builder) Build(id, title, source string) *Document {
	return &Document{
		ID:     id,
		Title:  title,
		Source: source,
		Pages:  b.pages,
		Text:   b.text.String(),
	}
}
