package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	// page images may be TIFF, BMP or WebP
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Page is one page of an exported PDF, sized in page-original units
type Page struct {
	Width  float64
	Height float64
	// Image is the encoded page image, drawn to fill the page when set
	Image []byte
	Fills []Fill
}

// WritePDF renders pages with their highlights multiplied over the image
func WritePDF(w io.Writer, title string, pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to export")
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, 0)

	for i, page := range pages {
		if page.Width <= 0 || page.Height <= 0 {
			return fmt.Errorf("page %d has no size", i+1)
		}
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})

		if len(page.Image) > 0 {
			data, imageType, err := pdfImage(page.Image)
			if err != nil {
				return fmt.Errorf("page %d image: %w", i+1, err)
			}
			name := fmt.Sprintf("page%d", i+1)
			opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
			pdf.ImageOptions(name, 0, 0, page.Width, page.Height, false, opts, 0, "")
		}

		for _, f := range page.Fills {
			r, g, b, err := parseColor(f.Color)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			pdf.SetFillColor(r, g, b)
			pdf.SetAlpha(f.Opacity, "Multiply")
			pdf.Rect(f.Left, f.Top, f.Width(), f.Height(), "F")
		}
		pdf.SetAlpha(1, "Normal")

		if pdf.Err() {
			return fmt.Errorf("failed to render page %d: %w", i+1, pdf.Error())
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

// pdfImage returns image data in a format fpdf embeds directly, converting
// other formats to PNG
func pdfImage(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image config: %w", err)
	}

	switch format {
	case "jpeg", "png", "gif":
		return data, strings.ToUpper(format), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to convert %s image: %w", format, err)
	}
	return buf.Bytes(), "PNG", nil
}
