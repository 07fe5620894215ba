package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/export"
)

// ExportPDF writes the document's page images with its annotations, and
// optionally its search results, painted on
func (s *Service) ExportPDF(ctx context.Context, req ExportPDFRequest) (*ExportPDFResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	output := req.Output
	if output == "" {
		output = sess.defaultExportName()
	}
	path, err := s.paths.Resolve(output)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("output must be a .pdf file: %s", output)
	}

	pageTokens, err := s.documentTokens(ctx, sess)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	annotations := append([]document.Annotation(nil), sess.annotations...)
	var results []document.SearchResult
	if req.SearchResults {
		results = append(results, sess.searchResults...)
	}
	sess.mu.Unlock()

	fills := export.Highlights(pageTokens, annotations, results)

	highlights := 0
	pages := make([]export.Page, len(sess.Document.Pages))
	for i, p := range sess.Document.Pages {
		pages[i] = export.Page{
			Width:  p.Width,
			Height: p.Height,
			Image:  s.pageImage(p.Image),
			Fills:  fills[i],
		}
		highlights += len(fills[i])
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export.WritePDF(file, sess.Document.Title, pages); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access output file: %w", err)
	}

	s.logger.Printf("Exported session %s to %s (%d highlights)", sess.ID, path, highlights)

	return &ExportPDFResult{
		SessionID:  sess.ID,
		Path:       path,
		Pages:      len(pages),
		Highlights: highlights,
		Size:       info.Size(),
	}, nil
}

// documentTokens returns the tokens of every page, fetching the pages whose
// tokens live behind a URL
func (s *Service) documentTokens(ctx context.Context, sess *Session) ([][]document.Token, error) {
	pages := make([][]document.Token, len(sess.Document.Pages))
	for i, p := range sess.Document.Pages {
		if p.TokensURL == "" {
			pages[i] = p.Tokens
			continue
		}
		tokens, err := s.fetcher.Tokens(ctx, document.StaticTokens(p.TokensURL))
		if err != nil {
			return nil, fmt.Errorf("failed to load tokens for page %d: %w", i+1, err)
		}
		pages[i] = tokens
	}
	return pages, nil
}

// pageImage reads a local page image. Remote images, and images outside the
// configured directory, are left out.
func (s *Service) pageImage(image string) []byte {
	if image == "" {
		return nil
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		s.logger.Printf("Skipping remote page image %s", image)
		return nil
	}
	image = strings.TrimPrefix(image, "file://")

	if within, err := s.paths.IsPathWithinDirectory(image); err != nil || !within {
		s.logger.Printf("Skipping page image outside configured directory: %s", image)
		return nil
	}

	data, err := os.ReadFile(image)
	if err != nil {
		s.logger.Printf("Failed to read page image %s: %v", image, err)
		return nil
	}
	return data
}

func (sess *Session) defaultExportName() string {
	name := sess.Document.ID
	if name == "" {
		name = sess.ID
	}
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return name + "-annotated.pdf"
}
