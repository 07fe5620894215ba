package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-doc-viewer/internal/config"
	"github.com/a3tai/mcp-doc-viewer/internal/descriptions"
	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *session.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *session.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("session service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session returned by viewer_open"),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_list_documents",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_list_documents")),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the configured directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive filter on the document name: a substring or a glob such as *.hocr"),
		),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_open",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_open")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Document path, absolute or relative to the configured directory"),
		),
	), s.handleOpen)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_close",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_close")),
		sessionParam(),
	), s.handleClose)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_state",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_state")),
		sessionParam(),
	), s.handleState)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_page_overlay",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_page_overlay")),
		sessionParam(),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("1-based page number"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or svg"),
			mcp.Enum("json", "svg"),
		),
	), s.handlePageOverlay)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_drag",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_drag")),
		sessionParam(),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Page of the press point")),
		mcp.WithNumber("x1", mcp.Required(), mcp.Description("Press x in page-original units")),
		mcp.WithNumber("y1", mcp.Required(), mcp.Description("Press y in page-original units")),
		mcp.WithNumber("end_page", mcp.Description("Page of the release point (defaults to page)")),
		mcp.WithNumber("x2", mcp.Required(), mcp.Description("Release x in page-original units")),
		mcp.WithNumber("y2", mcp.Required(), mcp.Description("Release y in page-original units")),
		mcp.WithNumber("scroll_by", mcp.Description("Pixels to scroll the page list before releasing")),
		mcp.WithBoolean("shift", mcp.Description("Hold shift to extend the current selection")),
	), s.handleDrag)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_annotate",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_annotate")),
		sessionParam(),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic of the new annotation"),
		),
	), s.handleAnnotate)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_delete_annotation",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_delete_annotation")),
		sessionParam(),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Annotation index as listed by viewer_state"),
		),
	), s.handleDeleteAnnotation)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_search",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_search")),
		sessionParam(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to find; empty clears the highlights"),
		),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly")),
		mcp.WithNumber("max_results", mcp.Description("Stop after this many matches")),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_navigate",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_navigate")),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("1-based page to scroll to")),
		mcp.WithNumber("annotation", mcp.Description("Annotation index to scroll to")),
		mcp.WithBoolean("focus", mcp.Description("Focus the annotation as well")),
	), s.handleNavigate)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_export_pdf",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_export_pdf")),
		sessionParam(),
		mcp.WithString("output",
			mcp.Description("PDF path inside the configured directory (defaults to <document>-annotated.pdf)"),
		),
		mcp.WithBoolean("search_results", mcp.Description("Paint the current search highlights too")),
	), s.handleExportPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		"viewer_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("viewer_server_info")),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := session.ListDocumentsRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
	}

	result, err := s.service.ListDocuments(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatListDocumentsResult(result)), nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Open(session.OpenRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatOpenResult(result)), nil
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Close(session.CloseRequest{SessionID: id})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Closed session %s (%d annotations discarded)",
		result.SessionID, result.Annotations)), nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.State(session.StateRequest{SessionID: id})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatStateResult(result)), nil
}

func (s *Server) handlePageOverlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.PageOverlay(session.PageOverlayRequest{
		SessionID: id,
		Page:      page,
		Format:    request.GetString("format", "json"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.SVG != "" {
		return mcp.NewToolResultText(result.SVG), nil
	}

	data, err := json.MarshalIndent(result.Overlay, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode overlay: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	coords := make(map[string]float64, 4)
	for _, key := range []string{"x1", "y1", "x2", "y2"} {
		v, err := request.RequireFloat(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		coords[key] = v
	}

	result, err := s.service.Drag(session.DragRequest{
		SessionID: id,
		Page:      page,
		X1:        coords["x1"],
		Y1:        coords["y1"],
		EndPage:   request.GetInt("end_page", 0),
		X2:        coords["x2"],
		Y2:        coords["y2"],
		ScrollBy:  request.GetFloat("scroll_by", 0),
		Shift:     request.GetBool("shift", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatDragResult(result)), nil
}

func (s *Server) handleAnnotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Annotate(session.AnnotateRequest{SessionID: id, Topic: topic})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	a := result.Annotation
	text := fmt.Sprintf("✅ Created annotation #%d: %s (%s)\n", a.Index, a.Topic, a.Color)
	text += fmt.Sprintf("Pages: %d-%d, characters %d-%d\n", a.PageStart, a.PageEnd, a.CharacterStart, a.CharacterEnd)
	if a.Text != "" {
		text += fmt.Sprintf("Text: %q\n", a.Text)
	}
	text += fmt.Sprintf("Total annotations: %d\n", result.Annotations)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleDeleteAnnotation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.DeleteAnnotation(session.DeleteAnnotationRequest{SessionID: id, Index: index})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("🗑️  Deleted annotation %q (characters %d-%d)\nRemaining annotations: %d\n",
		result.Annotation.Topic, result.Annotation.CharacterStart, result.Annotation.CharacterEnd, result.Annotations)), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Search(session.SearchRequest{
		SessionID:     id,
		Query:         request.GetString("query", ""),
		CaseSensitive: request.GetBool("case_sensitive", false),
		MaxResults:    request.GetInt("max_results", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatSearchResult(result)), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Navigate(session.NavigateRequest{
		SessionID:  id,
		Page:       request.GetInt("page", 0),
		Annotation: request.GetInt("annotation", -1),
		Focus:      request.GetBool("focus", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("📄 Current page: %d\n", result.CurrentPage)
	text += fmt.Sprintf("Scroll position: (%.0f, %.0f)\n", result.ScrollX, result.ScrollY)
	if result.Focusing {
		text += fmt.Sprintf("Focused annotation: #%d\n", result.Focused)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExportPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ExportPDF(ctx, session.ExportPDFRequest{
		SessionID:     id,
		Output:        request.GetString("output", ""),
		SearchResults: request.GetBool("search_results", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("📤 Exported %d page(s) with %d highlight(s) to %s (%d bytes)",
		result.Pages, result.Highlights, result.Path, result.Size)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.service.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatListDocumentsResult(result *session.ListDocumentsResult) string {
	if result.TotalCount == 0 {
		text := fmt.Sprintf("No documents found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return text
	}

	text := fmt.Sprintf("Found %d document(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nDocuments:\n"

	for i, doc := range result.Documents {
		text += fmt.Sprintf("%d. %s [%s]\n", i+1, doc.Name, doc.Format)
		text += fmt.Sprintf("   Path: %s\n", doc.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", doc.Size)
		if doc.ModifiedTime != "" {
			text += fmt.Sprintf("   Modified: %s\n", doc.ModifiedTime)
		}
		if i < len(result.Documents)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatOpenResult(result *session.OpenResult) string {
	text := fmt.Sprintf("📖 Opened %s\n", result.Title)
	text += fmt.Sprintf("Session ID: %s\n", result.SessionID)
	text += fmt.Sprintf("Document ID: %s\n", result.DocumentID)
	text += fmt.Sprintf("Source: %s\n", result.Source)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Tokens: %d\n", result.Tokens)
	text += fmt.Sprintf("Zoom: %s\n", result.Zoom)
	text += fmt.Sprintf("Current page: %d\n", result.CurrentPage)

	if len(result.PageSizes) > 0 {
		text += "\nPage sizes (original units):\n"
		for i, size := range result.PageSizes {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more pages\n", len(result.PageSizes)-10)
				break
			}
			text += fmt.Sprintf("   %d. %.0f x %.0f\n", i+1, size.Width, size.Height)
		}
	}

	return text
}

func (s *Server) formatStateResult(result *session.StateResult) string {
	text := fmt.Sprintf("📖 %s (session %s)\n", result.Title, result.SessionID)
	text += fmt.Sprintf("Page %d of %d, scroll (%.0f, %.0f)\n", result.CurrentPage, result.Pages, result.ScrollX, result.ScrollY)
	text += fmt.Sprintf("Drag state: %s\n", result.DragState)
	text += "Selection: " + formatSelection(result.SelectionStart, result.SelectionEnd) + "\n"
	if result.SelectedText != "" {
		text += fmt.Sprintf("Selected text: %q\n", result.SelectedText)
	}
	if result.Focusing {
		text += fmt.Sprintf("Focused annotation: #%d\n", result.Focused)
	}
	text += fmt.Sprintf("Search results: %d\n", result.SearchResults)

	if len(result.Annotations) == 0 {
		text += "\nAnnotations: none\n"
		return text
	}

	text += fmt.Sprintf("\nAnnotations (%d):\n", len(result.Annotations))
	for _, a := range result.Annotations {
		text += fmt.Sprintf("  #%d %s (%s) pages %d-%d, characters %d-%d", a.Index, a.Topic, a.Color,
			a.PageStart, a.PageEnd, a.CharacterStart, a.CharacterEnd)
		if a.Text != "" {
			text += fmt.Sprintf(": %q", a.Text)
		}
		text += "\n"
	}
	return text
}

func (s *Server) formatDragResult(result *session.DragResult) string {
	text := "Selection: " + formatSelection(result.Start, result.End) + "\n"
	if result.SelectedText != "" {
		text += fmt.Sprintf("Selected text: %q\n", result.SelectedText)
	}
	if result.Complete {
		text += "\n💡 INFO: Use viewer_annotate to turn this selection into an annotation.\n"
	} else {
		text += "\n⚠️  WARNING: The selection is incomplete. Check that the points are over text on loaded pages.\n"
	}

	if len(result.Events) > 0 {
		text += "\nEvents:\n"
		for _, ev := range result.Events {
			text += "  " + formatEvent(ev) + "\n"
		}
	}
	return text
}

func (s *Server) formatSearchResult(result *session.SearchResult) string {
	if result.Count == 0 {
		if strings.TrimSpace(result.Query) == "" {
			return "Search highlights cleared"
		}
		return fmt.Sprintf("No matches for %q", result.Query)
	}

	text := fmt.Sprintf("🔍 Found %d match(es) for %q\n", result.Count, result.Query)
	for i, r := range result.Results {
		if i >= 20 {
			text += fmt.Sprintf("   ... and %d more matches\n", result.Count-20)
			break
		}
		pages := fmt.Sprintf("page %d", r.PageStart)
		if r.PageEnd != r.PageStart {
			pages = fmt.Sprintf("pages %d-%d", r.PageStart, r.PageEnd)
		}
		text += fmt.Sprintf("   %d. %s, characters %d-%d\n", i+1, pages, r.CharacterStart, r.CharacterEnd)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *session.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔎 Zoom: %s, lazy-loading window: %d pages\n", result.Zoom, result.LazyLoadingWindow)
	text += fmt.Sprintf("🗂️  Open sessions: %d\n", result.OpenSessions)
	text += fmt.Sprintf("💾 Token cache: %d/%d entries, %.1f%% hit rate\n\n",
		result.TokenCache.Size, result.TokenCache.Capacity, result.TokenCache.HitRate)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d documents found):\n", len(result.DirectoryContents))
		for i, doc := range result.DirectoryContents {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more documents\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s [%s]\n", i+1, doc.Name, doc.Format)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No documents found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += "\n📄 Supported Document Formats:\n"
		for _, format := range result.SupportedFormats {
			text += fmt.Sprintf("  • %s\n", format)
		}
	}

	text += "\n" + result.UsageGuidance

	return text
}

func formatSelection(start, end *document.Selection) string {
	endpoint := func(sel *document.Selection) string {
		if sel == nil {
			return "unset"
		}
		return fmt.Sprintf("page %d token %d", sel.Page, sel.Index)
	}
	if start == nil && end == nil {
		return "none"
	}
	return endpoint(start) + " → " + endpoint(end)
}

func formatEvent(ev session.Event) string {
	switch ev.Type {
	case session.EventSelectionStart, session.EventSelectionEnd:
		if ev.Selection == nil {
			return ev.Type + ": cleared"
		}
		return fmt.Sprintf("%s: page %d token %d", ev.Type, ev.Selection.Page, ev.Selection.Index)
	case session.EventPageChange:
		return fmt.Sprintf("%s: %d", ev.Type, ev.Page)
	case session.EventAnnotationCreate, session.EventAnnotationDelete:
		if ev.Annotation != nil {
			return fmt.Sprintf("%s: %s", ev.Type, ev.Annotation.Topic)
		}
	}
	return ev.Type
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio, "":
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over stdin and stdout until ctx is done or stdin
// closes
func (s *Server) runStdioMode(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting document viewer MCP server in stdio mode")
		log.Printf("Document directory: %s", s.config.DocumentDirectory)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.Default())

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is
// done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+listener.Addr().String()))
	httpServer := &http.Server{
		Handler:           sse,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Starting document viewer MCP server on %s (SSE endpoint /sse)", listener.Addr())
	log.Printf("Document directory: %s", s.config.DocumentDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// event streams stay open until their clients leave
			httpServer.Close()
		}
		return nil
	}
}
