package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WriteSVG draws fills over a page of the given original size. When
// imageURL is set the page image is drawn underneath.
func WriteSVG(w io.Writer, width, height float64, imageURL string, fills []Fill) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`,
		num(width), num(height), num(width), num(height))
	bw.WriteString("\n")

	if imageURL != "" {
		fmt.Fprintf(bw, `  <image href="%s" x="0" y="0" width="%s" height="%s"/>`, escape(imageURL), num(width), num(height))
		bw.WriteString("\n")
	}

	for _, f := range fills {
		fmt.Fprintf(bw, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s" fill-opacity="%s"`,
			num(f.Left), num(f.Top), num(f.Width()), num(f.Height()), escape(f.Color), num(f.Opacity))
		if f.Label != "" {
			fmt.Fprintf(bw, "><title>%s</title></rect>\n", escape(f.Label))
			continue
		}
		bw.WriteString("/>\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
