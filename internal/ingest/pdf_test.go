package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyphs(y float64, x float64, s string) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: y, W: 5, S: string(r)})
		x += 5
	}
	return out
}

func TestWordsFromGlyphs(t *testing.T) {
	var input []pdf.Text
	input = append(input, glyphs(700, 50, "Hi you")...)
	input = append(input, glyphs(700, 200, "far")...) // gap without a space
	input = append(input, glyphs(680, 50, "next")...)

	words := wordsFromGlyphs(input, 800)
	require.Len(t, words, 4)

	var texts []string
	for _, w := range words {
		texts = append(texts, w.text)
	}
	assert.Equal(t, []string{"Hi", "you", "far", "next"}, texts)

	assert.Equal(t, 0, words[0].line)
	assert.Equal(t, 0, words[2].line)
	assert.Equal(t, 1, words[3].line)

	hi := words[0].box
	assert.Equal(t, 50.0, hi.Left)
	assert.Equal(t, 60.0, hi.Right)
	assert.InDelta(t, 800-(700+8), hi.Top, 1e-9)
	assert.InDelta(t, 800-(700-2), hi.Bottom, 1e-9)
}

func TestLoadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letter.pdf")

	doc := fpdf.New("P", "pt", "", "")
	doc.SetCompression(false)
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 300, Ht: 400})
	doc.SetFont("Helvetica", "", 12)
	doc.Text(40, 60, "Hello there")
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 300, Ht: 400})
	doc.Text(40, 60, "Second page")
	require.NoError(t, doc.OutputFileAndClose(path))

	sizes, err := PageSizes(path)
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.InDelta(t, 300, sizes[0].Width, 0.01)
	assert.InDelta(t, 400, sizes[0].Height, 0.01)

	loaded, err := LoadPDF(path)
	require.NoError(t, err)
	require.Len(t, loaded.Pages, 2)
	assert.Equal(t, "letter", loaded.Title)

	text := strings.Join(strings.Fields(loaded.Text), " ")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "Second")

	require.NotEmpty(t, loaded.Pages[0].Tokens)
	first := loaded.Pages[0].Tokens[0]
	assert.InDelta(t, 40, first.BoundingBox.Left, 1)
	assert.Less(t, first.BoundingBox.Top, 60.0, "top-left origin: text baseline at y=60")
	assert.Greater(t, first.BoundingBox.Bottom, 50.0)
}
