package ingest

import (
	"fmt"
	"image"
	"os"

	// decoders for page images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

var pageImageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp", ".bmp", ".gif"}

// ImageSize returns the pixel size and format of an image file without
// decoding its pixels
func ImageSize(path string) (width, height int, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, "", fmt.Errorf("unable to open image: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, "", fmt.Errorf("unable to read image config: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// findPageImage looks for base + one of the known image extensions
func findPageImage(base string) (path string, width, height float64, ok bool) {
	for _, ext := range pageImageExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		w, h, _, err := ImageSize(candidate)
		if err != nil {
			continue
		}
		return candidate, float64(w), float64(h), true
	}
	return "", 0, 0, false
}

func boxFromXYWH(left, top, width, height float64) document.BoundingBox {
	return document.BoundingBox{Top: top, Left: left, Right: left + width, Bottom: top + height}
}
