package session

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/a3tai/mcp-doc-viewer/internal/ingest"
)

// ListDocuments finds openable documents under a directory. Files are
// recognised by extension; a directory holding .tsv files is listed as one
// Tesseract document. The query filters names by substring or, when it
// holds glob metacharacters, by pattern.
func (s *Service) ListDocuments(req ListDocumentsRequest) (*ListDocumentsResult, error) {
	directory := req.Directory
	if directory == "" {
		directory = s.paths.GetConfiguredDirectory()
	}

	absDirectory, err := s.paths.Resolve(directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := os.Stat(absDirectory)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", directory)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var documents []DocumentInfo

	err = filepath.WalkDir(absDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific file
			return nil
		}

		if d.IsDir() {
			if path != absDirectory && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if doc, ok := s.tesseractDir(path, d); ok && matchesQuery(doc.Name, query) {
				documents = append(documents, doc)
			}
			return nil
		}

		format := ingest.DetectFormat(d.Name())
		if format == "" || format == ingest.FormatTesseract {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
			return nil
		}
		if !matchesQuery(d.Name(), query) {
			return nil
		}

		documents = append(documents, DocumentInfo{
			Path:         path,
			Name:         d.Name(),
			Format:       format,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	if documents == nil {
		documents = []DocumentInfo{}
	}

	return &ListDocumentsResult{
		Documents:   documents,
		TotalCount:  len(documents),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// tesseractDir reports a directory of .tsv pages as a document
func (s *Service) tesseractDir(path string, d fs.DirEntry) (DocumentInfo, bool) {
	pages, err := filepath.Glob(filepath.Join(path, "*.tsv"))
	if err != nil || len(pages) == 0 {
		return DocumentInfo{}, false
	}

	var size int64
	for _, page := range pages {
		if info, err := os.Stat(page); err == nil {
			size += info.Size()
		}
	}

	doc := DocumentInfo{
		Path:   path,
		Name:   d.Name(),
		Format: ingest.FormatTesseract,
		Size:   size,
	}
	if info, err := d.Info(); err == nil {
		doc.ModifiedTime = info.ModTime().Format("2006-01-02 15:04:05")
	}
	return doc, true
}

// matchesQuery compares a lower-cased query with a name. Queries holding
// glob metacharacters are matched as patterns, others as substrings.
func matchesQuery(name, query string) bool {
	if query == "" {
		return true
	}
	name = strings.ToLower(name)
	if strings.ContainsAny(query, "*?[{") {
		ok, err := doublestar.Match(query, name)
		return err == nil && ok
	}
	return strings.Contains(name, query)
}
