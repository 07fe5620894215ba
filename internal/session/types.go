package session

import (
	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/tokens"
	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

// DocumentInfo describes a document found in a directory
type DocumentInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Event is one viewer callback observed during an operation
type Event struct {
	Type       string               `json:"type"`
	Page       int                  `json:"page,omitempty"`
	Selection  *document.Selection  `json:"selection,omitempty"`
	Annotation *document.Annotation `json:"annotation,omitempty"`
}

// Event types
const (
	EventSelectionStart   = "selection_start"
	EventSelectionEnd     = "selection_end"
	EventAnnotationCreate = "annotation_create"
	EventAnnotationDelete = "annotation_delete"
	EventPageChange       = "page_change"
)

// AnnotationInfo is an annotation with its index and colour
type AnnotationInfo struct {
	document.Annotation
	Index int    `json:"index"`
	Color string `json:"color"`
	Text  string `json:"text,omitempty"`
}

// Request Types

// ListDocumentsRequest represents a request to find documents in a directory
type ListDocumentsRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// OpenRequest represents a request to open a document
type OpenRequest struct {
	Path string `json:"path"`
}

// CloseRequest represents a request to close a session
type CloseRequest struct {
	SessionID string `json:"session_id"`
}

// StateRequest represents a request for a session's state
type StateRequest struct {
	SessionID string `json:"session_id"`
}

// PageOverlayRequest represents a request for one page's overlay
type PageOverlayRequest struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page"`
	Format    string `json:"format"` // "json" or "svg"
}

// DragRequest represents a pointer drag from (X1, Y1) on Page to (X2, Y2) on
// EndPage. Coordinates are in page-original units. EndPage 0 means Page.
type DragRequest struct {
	SessionID string  `json:"session_id"`
	Page      int     `json:"page"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	EndPage   int     `json:"end_page"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	ScrollBy  float64 `json:"scroll_by"`
	Shift     bool    `json:"shift"`
}

// AnnotateRequest represents a request to commit the selection
type AnnotateRequest struct {
	SessionID string `json:"session_id"`
	Topic     string `json:"topic"`
}

// DeleteAnnotationRequest represents a request to delete an annotation
type DeleteAnnotationRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// SearchRequest represents a text search
type SearchRequest struct {
	SessionID     string `json:"session_id"`
	Query         string `json:"query"`
	CaseSensitive bool   `json:"case_sensitive"`
	MaxResults    int    `json:"max_results"`
}

// NavigateRequest moves the viewer. Page 0 and a negative Annotation are
// ignored; when both are set the annotation wins.
type NavigateRequest struct {
	SessionID  string `json:"session_id"`
	Page       int    `json:"page"`
	Annotation int    `json:"annotation"`
	Focus      bool   `json:"focus"`
}

// ExportPDFRequest represents a request to export a highlighted PDF
type ExportPDFRequest struct {
	SessionID     string `json:"session_id"`
	Output        string `json:"output"`
	SearchResults bool   `json:"search_results"`
}

// ServerInfoRequest represents a request to get server information
type ServerInfoRequest struct{}

// Response Types

// ListDocumentsResult represents the documents found in a directory
type ListDocumentsResult struct {
	Documents   []DocumentInfo `json:"documents"`
	TotalCount  int            `json:"total_count"`
	Directory   string         `json:"directory"`
	SearchQuery string         `json:"search_query,omitempty"`
}

// OpenResult represents a newly opened session
type OpenResult struct {
	SessionID   string            `json:"session_id"`
	DocumentID  string            `json:"document_id"`
	Title       string            `json:"title"`
	Source      string            `json:"source"`
	Pages       int               `json:"pages"`
	Tokens      int               `json:"tokens"`
	PageSizes   []viewer.PageSize `json:"page_sizes"`
	CurrentPage int               `json:"current_page"`
	Zoom        string            `json:"zoom"`
}

// CloseResult represents a closed session
type CloseResult struct {
	SessionID   string `json:"session_id"`
	Annotations int    `json:"annotations"`
}

// StateResult represents a session's state
type StateResult struct {
	SessionID      string              `json:"session_id"`
	DocumentID     string              `json:"document_id"`
	Title          string              `json:"title"`
	Pages          int                 `json:"pages"`
	CurrentPage    int                 `json:"current_page"`
	ScrollX        float64             `json:"scroll_x"`
	ScrollY        float64             `json:"scroll_y"`
	DragState      string              `json:"drag_state"`
	SelectionStart *document.Selection `json:"selection_start,omitempty"`
	SelectionEnd   *document.Selection `json:"selection_end,omitempty"`
	SelectedText   string              `json:"selected_text,omitempty"`
	Focused        int                 `json:"focused"`
	Focusing       bool                `json:"focusing"`
	Annotations    []AnnotationInfo    `json:"annotations"`
	SearchResults  int                 `json:"search_results"`
}

// PageOverlayResult represents one page's overlay, with SVG set when
// requested
type PageOverlayResult struct {
	SessionID string         `json:"session_id"`
	Overlay   viewer.Overlay `json:"overlay"`
	SVG       string         `json:"svg,omitempty"`
}

// DragResult represents the selection after a drag
type DragResult struct {
	SessionID    string              `json:"session_id"`
	Start        *document.Selection `json:"start,omitempty"`
	End          *document.Selection `json:"end,omitempty"`
	Complete     bool                `json:"complete"`
	SelectedText string              `json:"selected_text,omitempty"`
	DragState    string              `json:"drag_state"`
	Events       []Event             `json:"events"`
}

// AnnotateResult represents a committed annotation
type AnnotateResult struct {
	SessionID   string         `json:"session_id"`
	Annotation  AnnotationInfo `json:"annotation"`
	Annotations int            `json:"annotations"`
	Events      []Event        `json:"events"`
}

// DeleteAnnotationResult represents a deleted annotation
type DeleteAnnotationResult struct {
	SessionID   string              `json:"session_id"`
	Annotation  document.Annotation `json:"annotation"`
	Annotations int                 `json:"annotations"`
	Events      []Event             `json:"events"`
}

// SearchResult represents the highlighted matches of a search
type SearchResult struct {
	SessionID string                  `json:"session_id"`
	Query     string                  `json:"query"`
	Results   []document.SearchResult `json:"results"`
	Count     int                     `json:"count"`
}

// NavigateResult represents the viewer position after navigating
type NavigateResult struct {
	SessionID   string  `json:"session_id"`
	CurrentPage int     `json:"current_page"`
	ScrollX     float64 `json:"scroll_x"`
	ScrollY     float64 `json:"scroll_y"`
	Focused     int     `json:"focused"`
	Focusing    bool    `json:"focusing"`
	Events      []Event `json:"events"`
}

// ExportPDFResult represents a written PDF
type ExportPDFResult struct {
	SessionID  string `json:"session_id"`
	Path       string `json:"path"`
	Pages      int    `json:"pages"`
	Highlights int    `json:"highlights"`
	Size       int64  `json:"size"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string            `json:"server_name"`
	Version           string            `json:"version"`
	DefaultDirectory  string            `json:"default_directory"`
	MaxFileSize       int64             `json:"max_file_size"`
	Zoom              string            `json:"zoom"`
	LazyLoadingWindow int               `json:"lazy_loading_window"`
	OpenSessions      int               `json:"open_sessions"`
	TokenCache        tokens.CacheStats `json:"token_cache"`
	AvailableTools    []ToolInfo        `json:"available_tools"`
	DirectoryContents []DocumentInfo    `json:"directory_contents"`
	SupportedFormats  []string          `json:"supported_formats"`
	UsageGuidance     string            `json:"usage_guidance"`
}
