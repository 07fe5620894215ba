package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source formats understood by Open
const (
	FormatManifest  = "manifest"
	FormatTesseract = "tsv"
	FormatHOCR      = "hocr"
	FormatPDF       = "pdf"
	FormatDocAI     = "docai"
)

// Manifest describes a document either by listing its pages or by pointing
// at a source in one of the other formats
type Manifest struct {
	ID     string         `yaml:"id"`
	Title  string         `yaml:"title"`
	Source string         `yaml:"source"`
	Format string         `yaml:"format"`
	Pages  []ManifestPage `yaml:"pages"`
}

// ManifestPage is one listed page. Tokens is a URL or a path to a JSON token
// list; relative paths resolve against the manifest's directory.
type ManifestPage struct {
	Image  string  `yaml:"image"`
	Tokens string  `yaml:"tokens"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ParseManifest decodes a YAML (or JSON) manifest. Unknown fields are
// rejected so other JSON documents are not mistaken for manifests.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Source == "" && len(m.Pages) == 0 {
		return nil, errors.New("invalid manifest: needs a source or pages")
	}
	return &m, nil
}

// PathCheck vets a local path a manifest refers to and returns the path to
// use. It returns an error for paths that must not be read.
type PathCheck func(path string) (string, error)

// Open ingests a document from path, choosing the producer from the path:
// directories hold Tesseract output, and files are picked by extension.
func Open(path string) (*Document, error) {
	return OpenConfined(path, nil)
}

// OpenConfined is Open with every local source, tokens and image path of a
// manifest passed through check first
func OpenConfined(path string, check PathCheck) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	if info.IsDir() {
		return LoadTesseractDir(path)
	}

	return openFormat(path, DetectFormat(path), check)
}

// DetectFormat guesses a file's format from its extension
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatManifest
	case ".pdf":
		return FormatPDF
	case ".hocr", ".html", ".htm", ".xhtml":
		return FormatHOCR
	case ".tsv":
		return FormatTesseract
	case ".json":
		return FormatDocAI
	default:
		return ""
	}
}

func openFormat(path, format string, check PathCheck) (*Document, error) {
	switch format {
	case FormatManifest:
		return loadManifest(path, check)
	case FormatPDF:
		return LoadPDF(path)
	case FormatHOCR:
		return LoadHOCR(path)
	case FormatDocAI:
		// JSON manifests are tried first
		doc, err := loadManifest(path, check)
		if err == nil {
			return doc, nil
		}
		if errors.Is(err, ErrOutsideDirectory) {
			return nil, err
		}
		return LoadDocumentAI(path)
	case FormatTesseract:
		b := NewBuilder()
		b.StartPage(0, 0)
		if img, w, h, ok := findPageImage(strings.TrimSuffix(path, filepath.Ext(path))); ok {
			b.SetPageImage(img)
			b.SetPageSize(w, h)
		}
		if err := parseTSVFile(path, b); err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		return b.Build(name, name, path), nil
	default:
		return nil, fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}
}

// LoadManifest reads a manifest file and the document it describes
func LoadManifest(path string) (*Document, error) {
	return loadManifest(path, nil)
}

func loadManifest(path string, check PathCheck) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	doc, err := m.resolve(dir, check)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	if doc.ID == "" || m.ID != "" {
		doc.ID = firstNonEmpty(m.ID, base)
	}
	if m.Title != "" {
		doc.Title = m.Title
	} else if doc.Title == "" {
		doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc, nil
}

func (m *Manifest) resolve(dir string, check PathCheck) (*Document, error) {
	if m.Source != "" {
		source, err := localPath(dir, m.Source, check)
		if err != nil {
			return nil, fmt.Errorf("manifest source: %w", err)
		}
		format := m.Format
		if format == "" {
			if info, err := os.Stat(source); err == nil && info.IsDir() {
				return LoadTesseractDir(source)
			}
			format = DetectFormat(source)
		}
		if format == FormatManifest {
			return nil, errors.New("manifest source cannot be another manifest")
		}
		return openFormat(source, format, check)
	}

	b := NewBuilder()
	for i, p := range m.Pages {
		if p.Tokens == "" {
			return nil, fmt.Errorf("manifest page %d has no tokens", i+1)
		}

		image := p.Image
		if image != "" && !isRemote(image) {
			local, err := localPath(dir, image, check)
			if err != nil {
				return nil, fmt.Errorf("manifest page %d image: %w", i+1, err)
			}
			image = local
		}

		width, height := p.Width, p.Height
		if (width <= 0 || height <= 0) && image != "" && !isRemote(image) {
			w, h, _, err := ImageSize(image)
			if err != nil {
				return nil, fmt.Errorf("manifest page %d: %w", i+1, err)
			}
			width, height = float64(w), float64(h)
		}
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("manifest page %d has no size", i+1)
		}

		b.StartPage(width, height)
		b.SetPageImage(image)

		tokens := p.Tokens
		if !isRemote(tokens) {
			local, err := localPath(dir, tokens, check)
			if err != nil {
				return nil, fmt.Errorf("manifest page %d tokens: %w", i+1, err)
			}
			tokens = "file://" + filepath.ToSlash(local)
		}
		b.pages[len(b.pages)-1].TokensURL = tokens
	}

	return b.Build(m.ID, m.Title, dir), nil
}

// ErrOutsideDirectory marks a manifest path rejected by a PathCheck
var ErrOutsideDirectory = errors.New("path not allowed")

// localPath resolves a manifest path or file:// URL against dir and vets it
func localPath(dir, p string, check PathCheck) (string, error) {
	p = resolvePath(dir, strings.TrimPrefix(p, "file://"))
	if check == nil {
		return p, nil
	}
	checked, err := check(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrOutsideDirectory, p, err)
	}
	return checked, nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// isRemote reports whether s is fetched over HTTP
func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
