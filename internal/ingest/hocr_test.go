package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>Scanned letter</title>
  <meta http-equiv="Content-Type" content="text/html; charset={{charset}}" />
</head>
<body>
  <div class="ocr_page" id="page_1" title='image "letter-1.png"; bbox 0 0 800 1000; ppageno 0'>
    <div class="ocr_carea" title="bbox 10 10 700 200">
      <p class="ocr_par" title="bbox 10 10 700 200">
        <span class="ocr_line" title="bbox 10 10 700 40">
          <span class="ocrx_word" title="bbox 10 10 90 40; x_wconf 95">Dear</span>
          <span class="ocrx_word" title="bbox 100 10 200 40; x_wconf 93"><strong>José</strong></span>
        </span>
        <span class="ocr_line" title="bbox 10 60 700 90">
          <span class="ocrx_word" title="bbox 10 60 120 90; x_wconf 90">Thanks</span>
          <span class="ocrx_word" title="x_wconf 10">nobox</span>
        </span>
      </p>
    </div>
  </div>
  <div class="ocr_page" id="page_2" title="bbox 0 0 800 1000">
    <span class="ocr_line" title="bbox 10 10 700 40">
      <span class="ocrx_word" title="bbox 10 10 90 40">Bye</span>
    </span>
  </div>
</body>
</html>`

func hocrWithCharset(charset string) string {
	return strings.ReplaceAll(sampleHOCR, "{{charset}}", charset)
}

func TestParseHOCR(t *testing.T) {
	doc, err := ParseHOCR([]byte(hocrWithCharset("utf-8")), filepath.Join("scans", "letter.hocr"))
	require.NoError(t, err)

	assert.Equal(t, "Scanned letter", doc.Title)
	require.Len(t, doc.Pages, 2)

	first := doc.Pages[0]
	assert.Equal(t, 800.0, first.Width)
	assert.Equal(t, 1000.0, first.Height)
	assert.Equal(t, filepath.Join("scans", "letter-1.png"), first.Image)

	require.Len(t, first.Tokens, 3, "word without bbox is skipped")
	assert.Equal(t, first.Tokens[0].Line, first.Tokens[1].Line)
	assert.Greater(t, first.Tokens[2].Line, first.Tokens[1].Line)
	assert.Equal(t, 100.0, first.Tokens[1].BoundingBox.Left)
	assert.Equal(t, 200.0, first.Tokens[1].BoundingBox.Right)

	assert.Equal(t, "Dear José Thanks Bye ", doc.Text)
	assert.Greater(t, doc.Pages[1].Tokens[0].Line, first.Tokens[2].Line)
}

func TestParseHOCR_Latin1(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(hocrWithCharset("iso-8859-1"))
	require.NoError(t, err)

	doc, err := ParseHOCR([]byte(latin1), "letter.hocr")
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "José")
}

func TestParseHOCR_NoPages(t *testing.T) {
	_, err := ParseHOCR([]byte("<html><body><p>plain</p></body></html>"), "x.html")
	assert.Error(t, err)
}

func TestTitleProperty(t *testing.T) {
	title := `image "/tmp/a b.png"; bbox 1 2 3 4; x_wconf 95`
	assert.Equal(t, "/tmp/a b.png", titleProperty(title, "image"))
	assert.Equal(t, "1 2 3 4", titleProperty(title, "bbox"))
	assert.Equal(t, "", titleProperty(title, "ppageno"))

	x1, y1, x2, y2, ok := parseBBox(title)
	require.True(t, ok)
	assert.Equal(t, [4]float64{1, 2, 3, 4}, [4]float64{x1, y1, x2, y2})
}
