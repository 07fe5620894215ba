package session

import (
	"github.com/a3tai/mcp-doc-viewer/internal/descriptions"
)

// ServerInfo describes the server, its configuration and the documents in
// the configured directory
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	var contents []DocumentInfo
	if listed, err := s.ListDocuments(ListDocumentsRequest{}); err == nil {
		contents = listed.Documents
	} else {
		s.logger.Printf("Unable to list configured directory: %v", err)
		contents = []DocumentInfo{}
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  s.paths.GetConfiguredDirectory(),
		MaxFileSize:       s.opts.MaxFileSize,
		Zoom:              s.opts.Zoom,
		LazyLoadingWindow: s.opts.LazyLoadingWindow,
		OpenSessions:      s.SessionCount(),
		TokenCache:        s.fetcher.Cache().Stats(),
		AvailableTools:    availableTools(),
		DirectoryContents: contents,
		SupportedFormats:  SupportedFormats(),
		UsageGuidance: "Open a document with viewer_open, select text with viewer_drag and label it with " +
			"viewer_annotate. viewer_page_overlay shows what is drawn on a page, viewer_search highlights " +
			"matches, and viewer_export_pdf writes the highlighted document. Coordinates are in " +
			"page-original units, the units of the page's token boxes.",
	}
}

// SupportedFormats lists the document sources Open understands
func SupportedFormats() []string {
	return []string{
		"manifest (.yaml, .yml, .json)",
		"pdf (.pdf text layer)",
		"hocr (.hocr, .html, .htm, .xhtml)",
		"docai (.json Document AI output)",
		"tsv (Tesseract TSV file or directory of pages)",
	}
}

func availableTools() []ToolInfo {
	session := "session_id (required): Session returned by viewer_open"
	return []ToolInfo{
		{
			Name:        "viewer_list_documents",
			Description: descriptions.GetToolDescription("viewer_list_documents"),
			Usage:       "Use this tool to find documents that can be opened.",
			Parameters: "directory (optional): Directory to search (defaults to the configured directory), " +
				"query (optional): Case-insensitive filter on the name",
		},
		{
			Name:        "viewer_open",
			Description: descriptions.GetToolDescription("viewer_open"),
			Usage:       "Use this tool to open a document in a new viewer session.",
			Parameters:  "path (required): Document path, absolute or relative to the configured directory",
		},
		{
			Name:        "viewer_close",
			Description: descriptions.GetToolDescription("viewer_close"),
			Usage:       "Use this tool to close a session.",
			Parameters:  session,
		},
		{
			Name:        "viewer_state",
			Description: descriptions.GetToolDescription("viewer_state"),
			Usage:       "Use this tool to read the current page, selection, focus and annotations.",
			Parameters:  session,
		},
		{
			Name:        "viewer_page_overlay",
			Description: descriptions.GetToolDescription("viewer_page_overlay"),
			Usage:       "Use this tool to get the highlight rectangles and labels of a page.",
			Parameters:  session + ", page (required): 1-based page, format (optional): json or svg",
		},
		{
			Name:        "viewer_drag",
			Description: descriptions.GetToolDescription("viewer_drag"),
			Usage:       "Use this tool to select text by dragging between two points.",
			Parameters: session + ", page (required), x1/y1 (required): Press point, " +
				"end_page (optional), x2/y2 (required): Release point, scroll_by (optional), shift (optional)",
		},
		{
			Name:        "viewer_annotate",
			Description: descriptions.GetToolDescription("viewer_annotate"),
			Usage:       "Use this tool to turn the current selection into an annotation.",
			Parameters:  session + ", topic (required): Annotation topic",
		},
		{
			Name:        "viewer_delete_annotation",
			Description: descriptions.GetToolDescription("viewer_delete_annotation"),
			Usage:       "Use this tool to delete an annotation by index.",
			Parameters:  session + ", index (required): Annotation index from viewer_state",
		},
		{
			Name:        "viewer_search",
			Description: descriptions.GetToolDescription("viewer_search"),
			Usage:       "Use this tool to highlight text matches.",
			Parameters:  session + ", query (required), case_sensitive (optional), max_results (optional)",
		},
		{
			Name:        "viewer_navigate",
			Description: descriptions.GetToolDescription("viewer_navigate"),
			Usage:       "Use this tool to go to a page or an annotation.",
			Parameters:  session + ", page (optional), annotation (optional), focus (optional)",
		},
		{
			Name:        "viewer_export_pdf",
			Description: descriptions.GetToolDescription("viewer_export_pdf"),
			Usage:       "Use this tool to write the document with its highlights to a PDF.",
			Parameters:  session + ", output (optional): PDF path inside the configured directory, search_results (optional)",
		},
		{
			Name:        "viewer_server_info",
			Description: descriptions.GetToolDescription("viewer_server_info"),
			Usage:       "Use this tool to get server information and available capabilities.",
			Parameters:  "No parameters required",
		},
	}
}
