package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-doc-viewer/internal/config"
	"github.com/a3tai/mcp-doc-viewer/internal/descriptions"
	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/session"
	"github.com/a3tai/mcp-doc-viewer/internal/tokens"
	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

const tsvHeader = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n"

// pageTSV renders a 600x800 page with word j of line i at left 50+100j,
// top 100+40i
func pageTSV(lines ...[]string) string {
	var b strings.Builder
	b.WriteString(tsvHeader)
	b.WriteString("1\t1\t0\t0\t0\t0\t0\t0\t600\t800\t-1\t\n")
	for i, words := range lines {
		top := 100 + 40*i
		fmt.Fprintf(&b, "4\t1\t1\t1\t%d\t0\t50\t%d\t380\t20\t-1\t\n", i+1, top)
		for j, word := range words {
			fmt.Fprintf(&b, "5\t1\t1\t1\t%d\t%d\t%d\t%d\t80\t20\t95\t%s\n", i+1, j+1, 50+100*j, top, word)
		}
	}
	return b.String()
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Mode:              "stdio",
		Host:              "127.0.0.1",
		Port:              0,
		DocumentDirectory: dir,
		MaxFileSize:       1024 * 1024,
		Zoom:              "100%",
		LazyLoadingWindow: 2,
		ViewportWidth:     806,
		ViewportHeight:    800,
		CacheSize:         10,
		FetchTimeout:      5 * time.Second,
		Version:           "1.0.0",
		ServerName:        "test-server",
		LogLevel:          "info",
	}
}

// setupTestServer creates a server over a directory holding a two page
// Tesseract document named report
func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	tempDir := t.TempDir()
	reportDir := filepath.Join(tempDir, "report")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		t.Fatalf("failed to create report dir: %v", err)
	}

	pages := map[string]string{
		"page-1.tsv": pageTSV(
			[]string{"The", "quick", "brown", "fox"},
			[]string{"jumps", "over", "the", "lazy"},
			[]string{"dog"},
		),
		"page-2.tsv": pageTSV(
			[]string{"Pack", "my", "box", "with"},
			[]string{"five", "dozen", "liquor", "jugs"},
		),
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(reportDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	cfg := testConfig(tempDir)
	service, err := session.NewService(session.OptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("failed to create session service: %v", err)
	}
	t.Cleanup(service.CloseAll)

	server, err := NewServer(cfg, service)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, tempDir
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// openReport opens the fixture and returns its session ID
func openReport(t *testing.T, server *Server) string {
	t.Helper()

	result, err := server.handleOpen(context.Background(), callTool(map[string]interface{}{
		"path": "report",
	}))
	if err != nil {
		t.Fatalf("handleOpen returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleOpen failed: %s", extractTextFromResult(result))
	}

	text := extractTextFromResult(result)
	for _, line := range strings.Split(text, "\n") {
		if id, ok := strings.CutPrefix(line, "Session ID: "); ok {
			return id
		}
	}
	t.Fatalf("no session ID in open result: %s", text)
	return ""
}

func TestNewServer(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(tempDir)
	service, err := session.NewService(session.OptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("Failed to create session service: %v", err)
	}

	tests := []struct {
		name        string
		config      *config.Config
		service     *session.Service
		expectError bool
	}{
		{
			name:    "valid stdio mode config",
			config:  cfg,
			service: service,
		},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				c := testConfig(tempDir)
				c.Mode = "server"
				return c
			}(),
			service: service,
		},
		{
			name:        "nil service",
			config:      cfg,
			expectError: true,
		},
		{
			name:        "nil config",
			service:     service,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.service)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError {
				if server == nil {
					t.Fatal("server should not be nil")
				}
				if server.config != tt.config {
					t.Error("server config not set correctly")
				}
				if server.service != tt.service {
					t.Error("server service not set correctly")
				}
				if server.mcpServer == nil {
					t.Error("mcpServer should be initialized")
				}
			}
		})
	}
}

func TestRegisteredTools(t *testing.T) {
	server, _ := setupTestServer(t)

	message := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	response := server.mcpServer.HandleMessage(context.Background(), message)

	data, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode tools/list response: %v", err)
	}

	var names []string
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
		if tool.Description != descriptions.GetToolDescription(tool.Name) {
			t.Errorf("tool %s registered with unexpected description", tool.Name)
		}
	}
	sort.Strings(names)

	want := descriptions.GetAllToolNames()
	sort.Strings(want)
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("registered tools = %v, want %v", names, want)
	}
}

func TestHandleOpen(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		name        string
		args        map[string]interface{}
		expectError bool
		contains    []string
	}{
		{
			name:     "tesseract directory",
			args:     map[string]interface{}{"path": "report"},
			contains: []string{"Opened report", "Pages: 2", "Tokens: 17", "Zoom: 100%", "1. 600 x 800"},
		},
		{
			name:        "missing path",
			args:        map[string]interface{}{},
			expectError: true,
		},
		{
			name:        "outside directory",
			args:        map[string]interface{}{"path": "/etc/passwd"},
			expectError: true,
			contains:    []string{"security validation failed"},
		},
		{
			name:        "nonexistent",
			args:        map[string]interface{}{"path": "missing.pdf"},
			expectError: true,
			contains:    []string{"does not exist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleOpen(context.Background(), callTool(tt.args))
			if err != nil {
				t.Fatalf("handleOpen returned error: %v", err)
			}
			if result.IsError != tt.expectError {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.expectError, extractTextFromResult(result))
			}
			text := extractTextFromResult(result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("result should contain %q, got: %s", want, text)
				}
			}
		})
	}
}

func TestHandleDragAndAnnotate(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	id := openReport(t, server)

	result, err := server.handleDrag(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(1),
		"x1":         float64(60),
		"y1":         float64(105),
		"x2":         float64(260),
		"y2":         float64(145),
	}))
	if err != nil {
		t.Fatalf("handleDrag returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleDrag failed: %s", extractTextFromResult(result))
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, `"The quick brown fox jumps over the"`) {
		t.Errorf("drag should report the selected text, got: %s", text)
	}
	if !strings.Contains(text, "page 1 token 0 → page 1 token 6") {
		t.Errorf("drag should report the selection endpoints, got: %s", text)
	}
	if !strings.Contains(text, "selection_end: page 1 token 6") {
		t.Errorf("drag should report the selection events, got: %s", text)
	}

	result, err = server.handleAnnotate(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"topic":      "Parties",
	}))
	if err != nil {
		t.Fatalf("handleAnnotate returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleAnnotate failed: %s", extractTextFromResult(result))
	}
	text = extractTextFromResult(result)
	for _, want := range []string{"Created annotation #0: Parties", "characters 0-34", "Total annotations: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("annotate result should contain %q, got: %s", want, text)
		}
	}

	// the selection was consumed
	result, err = server.handleAnnotate(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"topic":      "Again",
	}))
	if err != nil {
		t.Fatalf("handleAnnotate returned error: %v", err)
	}
	if !result.IsError {
		t.Error("annotating without a selection should fail")
	}

	result, err = server.handleState(ctx, callTool(map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("handleState returned error: %v", err)
	}
	text = extractTextFromResult(result)
	if !strings.Contains(text, "Annotations (1):") || !strings.Contains(text, "#0 Parties") {
		t.Errorf("state should list the annotation, got: %s", text)
	}

	result, err = server.handleDeleteAnnotation(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"index":      float64(0),
	}))
	if err != nil {
		t.Fatalf("handleDeleteAnnotation returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleDeleteAnnotation failed: %s", extractTextFromResult(result))
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "Remaining annotations: 0") {
		t.Errorf("delete should report the remaining count, got: %s", text)
	}

	result, err = server.handleDeleteAnnotation(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"index":      float64(0),
	}))
	if err != nil {
		t.Fatalf("handleDeleteAnnotation returned error: %v", err)
	}
	if !result.IsError {
		t.Error("deleting a missing annotation should fail")
	}
}

func TestHandleDrag_MissingCoordinates(t *testing.T) {
	server, _ := setupTestServer(t)
	id := openReport(t, server)

	result, err := server.handleDrag(context.Background(), callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(1),
		"x1":         float64(60),
		"y1":         float64(105),
		"x2":         float64(260),
	}))
	if err != nil {
		t.Fatalf("handleDrag returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error for a missing y2")
	}
}

func TestHandlePageOverlay(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	id := openReport(t, server)

	result, err := server.handleSearch(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"query":      "fox",
	}))
	if err != nil {
		t.Fatalf("handleSearch returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.Contains(text, `Found 1 match(es) for "fox"`) {
		t.Errorf("unexpected search result: %s", text)
	}

	result, err = server.handlePageOverlay(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(1),
	}))
	if err != nil {
		t.Fatalf("handlePageOverlay returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handlePageOverlay failed: %s", extractTextFromResult(result))
	}
	var overlay viewer.Overlay
	if err := json.Unmarshal([]byte(extractTextFromResult(result)), &overlay); err != nil {
		t.Fatalf("overlay should be JSON: %v", err)
	}

	result, err = server.handlePageOverlay(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(1),
		"format":     "svg",
	}))
	if err != nil {
		t.Fatalf("handlePageOverlay returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.HasPrefix(strings.TrimSpace(text), "<svg") && !strings.HasPrefix(text, "<?xml") {
		t.Errorf("svg overlay should be an svg document, got: %.80s", text)
	}

	result, err = server.handlePageOverlay(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(3),
	}))
	if err != nil {
		t.Fatalf("handlePageOverlay returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error for a page out of range")
	}
}

func TestHandleNavigate(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	id := openReport(t, server)

	result, err := server.handleNavigate(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"page":       float64(2),
	}))
	if err != nil {
		t.Fatalf("handleNavigate returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleNavigate failed: %s", extractTextFromResult(result))
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "Current page: 2") || !strings.Contains(text, "(0, 824)") {
		t.Errorf("unexpected navigate result: %s", text)
	}

	result, err = server.handleNavigate(ctx, callTool(map[string]interface{}{
		"session_id": id,
	}))
	if err != nil {
		t.Fatalf("handleNavigate returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error without page or annotation")
	}
}

func TestHandleExportPDF(t *testing.T) {
	server, tempDir := setupTestServer(t)
	ctx := context.Background()
	id := openReport(t, server)

	if _, err := server.handleSearch(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"query":      "the",
	})); err != nil {
		t.Fatalf("handleSearch returned error: %v", err)
	}

	result, err := server.handleExportPDF(ctx, callTool(map[string]interface{}{
		"session_id":     id,
		"output":         "out.pdf",
		"search_results": true,
	}))
	if err != nil {
		t.Fatalf("handleExportPDF returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleExportPDF failed: %s", extractTextFromResult(result))
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "Exported 2 page(s) with 2 highlight(s)") {
		t.Errorf("unexpected export result: %s", text)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "out.pdf")); err != nil {
		t.Errorf("exported file should exist: %v", err)
	}

	result, err = server.handleExportPDF(ctx, callTool(map[string]interface{}{
		"session_id": id,
		"output":     "../escape.pdf",
	}))
	if err != nil {
		t.Fatalf("handleExportPDF returned error: %v", err)
	}
	if !result.IsError {
		t.Error("exporting outside the directory should fail")
	}
}

func TestHandleListDocumentsAndClose(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleListDocuments(ctx, callTool(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleListDocuments returned error: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "Found 1 document(s)") || !strings.Contains(text, "report [tsv]") {
		t.Errorf("unexpected list result: %s", text)
	}

	result, err = server.handleListDocuments(ctx, callTool(map[string]interface{}{"query": "nothing"}))
	if err != nil {
		t.Fatalf("handleListDocuments returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "No documents found") {
		t.Errorf("unexpected list result: %s", text)
	}

	id := openReport(t, server)
	result, err = server.handleClose(ctx, callTool(map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("handleClose returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleClose failed: %s", extractTextFromResult(result))
	}

	result, err = server.handleState(ctx, callTool(map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("handleState returned error: %v", err)
	}
	if !result.IsError {
		t.Error("state of a closed session should fail")
	}
}

func TestHandleServerInfo(t *testing.T) {
	server, _ := setupTestServer(t)

	result, err := server.handleServerInfo(context.Background(), callTool(nil))
	if err != nil {
		t.Fatalf("handleServerInfo returned error: %v", err)
	}
	text := extractTextFromResult(result)
	for _, want := range []string{"test-server v1.0.0", "Zoom: 100%", "Open sessions: 0", "viewer_drag", "report [tsv]"} {
		if !strings.Contains(text, want) {
			t.Errorf("server info should contain %q", want)
		}
	}
}

func TestFormatMethods(t *testing.T) {
	server, _ := setupTestServer(t)

	listResult := &session.ListDocumentsResult{
		Documents: []session.DocumentInfo{
			{
				Name:         "lease.pdf",
				Path:         "/tmp/lease.pdf",
				Format:       "pdf",
				Size:         1024,
				ModifiedTime: "2023-01-01 12:00:00",
			},
		},
		TotalCount:  1,
		Directory:   "/tmp",
		SearchQuery: "lease",
	}
	formatted := server.formatListDocumentsResult(listResult)
	if !strings.Contains(formatted, "Found 1 document(s)") {
		t.Error("formatted result should contain document count")
	}
	if !strings.Contains(formatted, "lease.pdf [pdf]") {
		t.Error("formatted result should contain the name and format")
	}

	searchResult := &session.SearchResult{
		Query: "dog pack",
		Results: []document.SearchResult{
			{CharacterStart: 40, CharacterEnd: 48, PageStart: 1, PageEnd: 2},
		},
		Count: 1,
	}
	formatted = server.formatSearchResult(searchResult)
	if !strings.Contains(formatted, "pages 1-2, characters 40-48") {
		t.Errorf("formatted search should show the page span, got: %s", formatted)
	}
	if got := server.formatSearchResult(&session.SearchResult{Query: " "}); got != "Search highlights cleared" {
		t.Errorf("formatSearchResult(blank) = %q", got)
	}

	infoResult := &session.ServerInfoResult{
		ServerName:  "test-server",
		Version:     "1.0.0",
		MaxFileSize: 100 * 1024 * 1024,
		TokenCache:  tokens.CacheStats{Size: 1, Capacity: 10, HitRate: 50},
	}
	formatted = server.formatServerInfoResult(infoResult)
	if !strings.Contains(formatted, "Max File Size: 100 MB") {
		t.Error("formatted info should contain the max file size")
	}
	if !strings.Contains(formatted, "1/10 entries, 50.0% hit rate") {
		t.Error("formatted info should contain the cache stats")
	}

	if got := formatSelection(nil, nil); got != "none" {
		t.Errorf("formatSelection(nil, nil) = %q", got)
	}
	start := &document.Selection{Page: 1, Index: 2}
	if got := formatSelection(start, nil); got != "page 1 token 2 → unset" {
		t.Errorf("formatSelection(start, nil) = %q", got)
	}
	if got := formatEvent(session.Event{Type: session.EventSelectionStart}); got != "selection_start: cleared" {
		t.Errorf("formatEvent(cleared) = %q", got)
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
