package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-z0-9_\-]+)`)

// hOCR classes that open a new text line
var hocrLineClasses = []string{"ocr_line", "ocrx_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// ParseHOCR converts an hOCR document into pages of tokens. Every ocr_page
// becomes a page sized by its bbox; every ocrx_word becomes a token on the
// line that contains it. Documents declaring a single-byte charset are
// decoded to UTF-8 first.
func ParseHOCR(data []byte, source string) (*Document, error) {
	decoded, err := decodeHOCR(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("unable to parse hOCR: %w", err)
	}

	p := &hocrParser{builder: NewBuilder(), dir: filepath.Dir(source)}
	p.walk(root)

	if len(p.builder.pages) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}

	title := findTitle(root)
	if title == "" {
		title = filepath.Base(source)
	}
	return p.builder.Build(filepath.Base(source), title, source), nil
}

// LoadHOCR reads and parses an hOCR file
func LoadHOCR(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read hOCR file: %w", err)
	}
	return ParseHOCR(data, path)
}

type hocrParser struct {
	builder *Builder
	dir     string
	line    int
	err     error
}

func (p *hocrParser) walk(n *html.Node) {
	if p.err != nil {
		return
	}

	if n.Type == html.ElementNode {
		class := attrValue(n, "class")
		title := attrValue(n, "title")

		switch {
		case hasClass(class, "ocr_page"):
			x1, y1, x2, y2, _ := parseBBox(title)
			p.builder.StartPage(x2-x1, y2-y1)
			if image := titleProperty(title, "image"); image != "" {
				if !filepath.IsAbs(image) {
					image = filepath.Join(p.dir, image)
				}
				p.builder.SetPageImage(image)
			}
		case hasAnyClass(class, hocrLineClasses):
			p.line++
		case hasClass(class, "ocrx_word"):
			x1, y1, x2, y2, ok := parseBBox(title)
			if ok {
				word := strings.TrimSpace(nodeText(n))
				box := boxFromXYWH(x1, y1, x2-x1, y2-y1)
				if err := p.builder.AddWord(p.line, box, word); err != nil {
					p.err = err
				}
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func decodeHOCR(data []byte) ([]byte, error) {
	m := charsetPattern.FindSubmatch(data)
	if m == nil {
		return data, nil
	}

	charset := strings.ToLower(string(m[1]))
	var enc encoding.Encoding
	switch charset {
	case "utf-8", "utf8":
		return data, nil
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	case "iso-8859-15", "latin9":
		enc = charmap.ISO8859_15
	default:
		enc = charmap.ISO8859_1
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", charset, err)
	}
	return decoded, nil
}

// parseBBox reads "bbox x1 y1 x2 y2" from an hOCR title attribute
func parseBBox(title string) (x1, y1, x2, y2 float64, ok bool) {
	fields := strings.Fields(titleProperty(title, "bbox"))
	if len(fields) < 4 {
		return 0, 0, 0, 0, false
	}
	var values [4]float64
	for i := range values {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		values[i] = v
	}
	return values[0], values[1], values[2], values[3], true
}

// titleProperty returns the value of one "key value..." entry of a title
func titleProperty(title, key string) string {
	for _, part := range strings.Split(title, ";") {
		part = strings.TrimSpace(part)
		name, value, found := strings.Cut(part, " ")
		if found && name == key {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class, want string) bool {
	for _, c := range strings.Fields(class) {
		if c == want {
			return true
		}
	}
	return false
}

func hasAnyClass(class string, wants []string) bool {
	for _, want := range wants {
		if hasClass(class, want) {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
