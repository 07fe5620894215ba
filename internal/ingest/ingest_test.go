package ingest

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

const tsvHeader = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n"

// two lines: "Hello world" and "again"
const samplePageTSV = tsvHeader +
	"1\t1\t0\t0\t0\t0\t0\t0\t1000\t1400\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t100\t100\t500\t80\t-1\t\n" +
	"3\t1\t1\t1\t0\t0\t100\t100\t500\t80\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t100\t100\t500\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t100\t200\t30\t96\tHello\n" +
	"5\t1\t1\t1\t1\t2\t320\t102\t180\t28\t91.5\tworld\n" +
	"4\t1\t1\t1\t2\t0\t100\t150\t200\t30\t-1\t\n" +
	"5\t1\t1\t1\t2\t1\t100\t150\t200\t30\t88\tagain\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
}

func TestParseTSV(t *testing.T) {
	b := NewBuilder()
	b.StartPage(0, 0)
	require.NoError(t, ParseTSV(strings.NewReader(samplePageTSV), b))
	doc := b.Build("id", "title", "src")

	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, 1000.0, page.Width, "size from the page row")
	assert.Equal(t, 1400.0, page.Height)

	require.Len(t, page.Tokens, 3)
	assert.Equal(t, document.Token{
		Line:           1,
		BoundingBox:    document.BoundingBox{Top: 100, Left: 100, Right: 300, Bottom: 130},
		CharacterStart: 0,
		CharacterEnd:   5,
	}, page.Tokens[0])
	assert.Equal(t, 1, page.Tokens[1].Line)
	assert.Equal(t, 6, page.Tokens[1].CharacterStart)
	assert.Equal(t, 11, page.Tokens[1].CharacterEnd)
	assert.Equal(t, 2, page.Tokens[2].Line, "structural row opens a new line")
	assert.Equal(t, 12, page.Tokens[2].CharacterStart)

	assert.Equal(t, "Hello world again ", doc.Text)
}

func TestParseTSV_BadNumber(t *testing.T) {
	b := NewBuilder()
	b.StartPage(10, 10)
	err := ParseTSV(strings.NewReader(tsvHeader+"5\t1\t1\t1\t1\t1\tx\t0\t1\t1\t90\tword\n"), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 6")
}

func TestLoadTesseractDir_OffsetsContinueAcrossPages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page-10.tsv"), samplePageTSV)
	writeFile(t, filepath.Join(dir, "page-2.tsv"), samplePageTSV)
	writePNG(t, filepath.Join(dir, "page-2.png"), 40, 60)

	doc, err := LoadTesseractDir(dir)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	first, second := doc.Pages[0], doc.Pages[1]
	assert.Equal(t, filepath.Join(dir, "page-2.png"), first.Image, "natural order puts page-2 first")
	assert.Equal(t, 40.0, first.Width)
	assert.Equal(t, 60.0, first.Height)
	assert.Equal(t, 1000.0, second.Width)

	assert.Equal(t, 18, second.Tokens[0].CharacterStart)
	assert.Equal(t, 3+3, doc.TokenCount())
	assert.Equal(t, "again", doc.Text[second.Tokens[2].CharacterStart:second.Tokens[2].CharacterEnd])

	results := doc.TextIndex().Search("again hello", document.SearchOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].PageStart)
	assert.Equal(t, 2, results[0].PageEnd)
}

func TestImageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.png")
	writePNG(t, path, 12, 34)

	w, h, format, err := ImageSize(path)
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 34, h)
	assert.Equal(t, "png", format)

	_, _, _, err = ImageSize(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"doc.yaml":    FormatManifest,
		"doc.YML":     FormatManifest,
		"scan.pdf":    FormatPDF,
		"scan.hocr":   FormatHOCR,
		"scan.html":   FormatHOCR,
		"page.tsv":    FormatTesseract,
		"output.json": FormatDocAI,
		"notes.txt":   "",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), path)
	}
}

func TestViewerPages(t *testing.T) {
	doc := &Document{Pages: []PageData{
		{Number: 1, Width: 100, Height: 200, Image: "a.png", Tokens: []document.Token{{CharacterEnd: 3}}},
		{Number: 2, Width: 100, Height: 200, TokensURL: "https://example.com/2.json"},
	}}

	pages := doc.ViewerPages()
	require.Len(t, pages, 2)
	assert.Equal(t, 100.0, pages[0].OriginalWidth)
	assert.False(t, pages[0].Tokens.IsStatic())
	assert.False(t, pages[0].Image.IsZero())
	assert.True(t, pages[1].Tokens.IsStatic())
	assert.Equal(t, "https://example.com/2.json", pages[1].Tokens.URL())
	assert.True(t, pages[1].Image.IsZero())
}
