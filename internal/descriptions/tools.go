package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Document Tools
	ViewerListDocumentsDescription = `Find documents the viewer can open in the configured directory.

**When to use:** Before opening a document, to discover which OCR outputs, manifests and PDFs are available.

**Why it's useful:** Recognises every supported source (YAML manifests, PDFs with a text layer, hOCR pages, Document AI JSON and directories of Tesseract TSV pages) and reports its detected format.

**Examples:**
• Discover inputs: "List the documents I can annotate"
• Narrow the list: "Find documents whose name contains 'invoice'"
• Browse a subfolder: "List documents in scans/2024"

**Common workflows:**
1. Discovery: viewer_list_documents → viewer_open → viewer_page_overlay
2. Batch review: List documents → Open each one → Search for a term → Export highlights

**Best practices:** Use the query parameter to filter large directories; the path in each entry can be passed directly to viewer_open.`

	ViewerOpenDescription = `Open a document in a new viewer session.

**When to use:** Starting any viewing, selection, annotation or export work on a document.

**Why it's useful:** Ingests the document's pages and OCR tokens, lays the pages out at the configured zoom, and starts lazily loading tokens around page 1.

**Examples:**
• Open a manifest: "Open contracts/lease.yaml"
• Open Tesseract output: "Open the scans/report directory of TSV pages"
• Open a text PDF: "Open manual.pdf so I can highlight sections"

**Common workflows:**
1. Annotation: viewer_open → viewer_drag → viewer_annotate → viewer_export_pdf
2. Search review: viewer_open → viewer_search → viewer_page_overlay

**Best practices:** Keep the returned session_id; every other viewer tool needs it. Close sessions you no longer need with viewer_close.`

	ViewerCloseDescription = `Close a viewer session and cancel its pending token loads.

**When to use:** When finished with a document.

**Why it's useful:** Frees the session's pages, tokens and annotations.

**Examples:**
• Clean up: "Close the session for lease.yaml"

**Common workflows:**
1. Export and close: viewer_export_pdf → viewer_close

**Best practices:** Export annotations before closing; sessions are not persisted.`

	ViewerStateDescription = `Report the state of a viewer session.

**When to use:** To check the current page, scroll position, drag state, selection, focus and the annotation list.

**Why it's useful:** Annotation indices shown here are the ones viewer_delete_annotation and viewer_navigate expect.

**Examples:**
• Review annotations: "Show all annotations in this session"
• Check progress: "Which page is the viewer on?"

**Common workflows:**
1. Cleanup: viewer_state → pick an index → viewer_delete_annotation

**Best practices:** Indices follow document order and change when annotations are added or removed; read them again after every change.`

	// Interaction Tools
	ViewerPageOverlayDescription = `Get everything drawn over one page: annotation, search and selection rectangles plus the annotation labels.

**When to use:** To see what the viewer would display on a page, or to render highlights on top of the page image.

**Why it's useful:** Rectangles are fused per line and padded exactly as the viewer draws them, in page-original units. SVG output can be layered directly over the page image.

**Examples:**
• Inspect highlights: "Show the overlay of page 3"
• Render: "Give me an SVG of the highlights on page 1"

**Common workflows:**
1. Visual check: viewer_drag → viewer_page_overlay → viewer_annotate
2. Rendering: viewer_search → viewer_page_overlay (format svg)

**Best practices:** Pages outside the lazy-loading window report loaded=false; navigate to a page first to load its tokens.`

	ViewerDragDescription = `Drag-select text with the pointer, from one point to another.

**When to use:** To select a range of words before annotating it.

**Why it's useful:** Reproduces the viewer's selection behaviour: the start snaps to the first word after the press point, the end to the last word before the release point, and drags may cross pages.

**Examples:**
• Select a sentence: "Drag on page 2 from (72, 140) to (510, 162)"
• Cross-page selection: "Drag from the bottom of page 1 to the top of page 2"
• Extend: "Shift-drag to extend the current selection to (300, 400)"

**Common workflows:**
1. Annotation: viewer_drag → check selected text → viewer_annotate
2. Refinement: viewer_drag → viewer_drag with shift → viewer_annotate

**Best practices:** Coordinates are in page-original units (the units of the page's token boxes). Without scroll_by the end page must be within the lazy-loading window of the start page, otherwise the drag fails; for longer ranges set scroll_by or drag in steps and extend with shift.`

	ViewerAnnotateDescription = `Turn the current selection into an annotation with a topic.

**When to use:** After viewer_drag has selected the text to label.

**Why it's useful:** The annotation is stored by character range, so it survives re-layout and zoom changes, and its colour follows from the topic.

**Examples:**
• Label a clause: "Annotate the selection as 'Termination'"
• Tag entities: "Mark the selected name as 'Person'"

**Common workflows:**
1. Labelling: viewer_drag → viewer_annotate → repeat → viewer_export_pdf

**Best practices:** Reuse topic names consistently; the same topic always gets the same colour.`

	ViewerDeleteAnnotationDescription = `Delete an annotation by index.

**When to use:** To remove a wrong or obsolete annotation.

**Why it's useful:** Works on the index shown by viewer_state, in document order.

**Examples:**
• Undo: "Delete annotation 0"

**Common workflows:**
1. Cleanup: viewer_state → viewer_delete_annotation → viewer_state

**Best practices:** Indices shift after a deletion; read viewer_state again before deleting another one.`

	ViewerSearchDescription = `Search the document text and highlight every match.

**When to use:** To find where a word or phrase occurs and see it highlighted on the pages.

**Why it's useful:** Matches are mapped back to the OCR tokens they cover, across page boundaries, and drawn as search highlights.

**Examples:**
• Find a term: "Highlight every occurrence of 'indemnity'"
• Case-sensitive: "Find 'EUR' exactly"

**Common workflows:**
1. Review: viewer_search → viewer_navigate to a result page → viewer_page_overlay
2. Annotate matches: viewer_search → viewer_drag over a match → viewer_annotate

**Best practices:** An empty query clears the highlights. Documents whose tokens are only available by URL cannot be searched.`

	ViewerNavigateDescription = `Move the viewer to a page or an annotation.

**When to use:** To bring a page into view (which loads its tokens) or to jump to and focus an annotation.

**Why it's useful:** Scrolls the way the viewer does, updating the current page and the lazy-loading window.

**Examples:**
• Go to a page: "Navigate to page 5"
• Jump to an annotation: "Scroll to annotation 2 and focus it"

**Common workflows:**
1. Reading: viewer_navigate → viewer_page_overlay
2. Review: viewer_state → viewer_navigate to each annotation

**Best practices:** Pages outside the document are rejected; navigate before dragging on a page far from the current one.`

	ViewerExportPDFDescription = `Export the document as a PDF with annotations and search results painted over the page images.

**When to use:** To share the annotated document outside the viewer.

**Why it's useful:** Every page is exported at its original size with the same fused, colour-coded highlights the viewer shows.

**Examples:**
• Share: "Export the annotated lease to lease-annotated.pdf"
• Include search: "Export with the current search highlights"

**Common workflows:**
1. Delivery: viewer_annotate → viewer_export_pdf → viewer_close

**Best practices:** The output path must be inside the configured directory. Pages without a local image are exported as blank pages with highlights.`

	ViewerServerInfoDescription = `Get server information, configuration and the list of available tools.

**When to use:** At the start of a conversation, to discover what the server can do and where documents live.

**Why it's useful:** Reports the document directory, viewer settings, open sessions and token cache statistics.

**Examples:**
• Orientation: "What can the document viewer do?"

**Common workflows:**
1. Getting started: viewer_server_info → viewer_list_documents → viewer_open

**Best practices:** Call once to learn the configured directory before opening documents by relative path.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"viewer_list_documents":    ViewerListDocumentsDescription,
	"viewer_open":              ViewerOpenDescription,
	"viewer_close":             ViewerCloseDescription,
	"viewer_state":             ViewerStateDescription,
	"viewer_page_overlay":      ViewerPageOverlayDescription,
	"viewer_drag":              ViewerDragDescription,
	"viewer_annotate":          ViewerAnnotateDescription,
	"viewer_delete_annotation": ViewerDeleteAnnotationDescription,
	"viewer_search":            ViewerSearchDescription,
	"viewer_navigate":          ViewerNavigateDescription,
	"viewer_export_pdf":        ViewerExportPDFDescription,
	"viewer_server_info":       ViewerServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
