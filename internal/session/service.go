// Package session hosts viewer sessions: each one is an ingested document
// shown in a headless viewer, plus the annotation list the host keeps for
// it. The Service applies the viewer's annotation callbacks to that list and
// feeds it back, the way a page embedding the viewer would.
package session

import (
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-doc-viewer/internal/config"
	"github.com/a3tai/mcp-doc-viewer/internal/document"
	"github.com/a3tai/mcp-doc-viewer/internal/document/fusion"
	"github.com/a3tai/mcp-doc-viewer/internal/ingest"
	"github.com/a3tai/mcp-doc-viewer/internal/tokens"
	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

// Options configures a Service
type Options struct {
	Directory         string
	MaxFileSize       int64
	Width             float64
	Height            float64
	Zoom              string
	LazyLoadingWindow int
	CacheSize         int
	FetchTimeout      time.Duration
	Logger            *log.Logger
}

// OptionsFromConfig maps the server configuration onto service options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Directory:         cfg.DocumentDirectory,
		MaxFileSize:       cfg.MaxFileSize,
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		Zoom:              cfg.Zoom,
		LazyLoadingWindow: cfg.LazyLoadingWindow,
		CacheSize:         cfg.CacheSize,
		FetchTimeout:      cfg.FetchTimeout,
	}
}

// Service manages viewer sessions
type Service struct {
	opts    Options
	paths   *PathValidator
	fetcher *tokens.Fetcher
	logger  *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Session is one open document
type Session struct {
	ID       string
	Document *ingest.Document
	Opened   time.Time

	// op serializes operations; callbacks only take mu
	op     sync.Mutex
	viewer *viewer.Viewer

	mu            sync.Mutex
	annotations   []document.Annotation
	searchResults []document.SearchResult
	events        []Event
}

// NewService creates a session service rooted at opts.Directory
func NewService(opts Options) (*Service, error) {
	paths, err := NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Zoom == "" {
		opts.Zoom = viewer.DefaultZoom
	}

	return &Service{
		opts:     opts,
		paths:    paths,
		fetcher:  tokens.NewFetcher(opts.FetchTimeout, opts.CacheSize),
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}, nil
}

// Open ingests a document and shows it in a new session
func (s *Service) Open(req OpenRequest) (*OpenResult, error) {
	path, err := s.paths.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("document does not exist: %s", req.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access document: %w", err)
	}
	if !info.IsDir() && s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), s.opts.MaxFileSize)
	}

	doc, err := ingest.OpenConfined(path, s.paths.Resolve)
	if err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages: %s", req.Path)
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Document: doc,
		Opened:   time.Now(),
	}
	sess.viewer = viewer.New(viewer.Options{
		Width:             s.opts.Width,
		Height:            s.opts.Height,
		Zoom:              s.opts.Zoom,
		LazyLoadingWindow: s.opts.LazyLoadingWindow,
		Fetcher:           s.fetcher,
		Logger:            s.logger,
		Callbacks:         sess.callbacks(),
	})

	documentID := doc.ID
	if documentID == "" {
		documentID = sess.ID
	}
	sess.viewer.SetPages(documentID, doc.ViewerPages())
	sess.viewer.Wait()
	sess.drainEvents()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Printf("Opened %s as session %s (%d pages)", path, sess.ID, len(doc.Pages))

	sizes := make([]viewer.PageSize, len(doc.Pages))
	for i, p := range doc.Pages {
		sizes[i] = viewer.PageSize{Width: p.Width, Height: p.Height}
	}

	return &OpenResult{
		SessionID:   sess.ID,
		DocumentID:  documentID,
		Title:       doc.Title,
		Source:      doc.Source,
		Pages:       len(doc.Pages),
		Tokens:      doc.TokenCount(),
		PageSizes:   sizes,
		CurrentPage: sess.viewer.CurrentPage(),
		Zoom:        s.opts.Zoom,
	}, nil
}

// Close ends a session
func (s *Service) Close(req CloseRequest) (*CloseResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	delete(s.sessions, req.SessionID)
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session not found: %s", req.SessionID)
	}

	sess.op.Lock()
	defer sess.op.Unlock()
	sess.viewer.Close()

	return &CloseResult{SessionID: sess.ID, Annotations: len(sess.annotationList())}, nil
}

// CloseAll ends every session
func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.op.Lock()
		sess.viewer.Close()
		sess.op.Unlock()
	}
}

// SessionCount returns the number of open sessions
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// State reports where a session's viewer is and what it holds
func (s *Service) State(req StateRequest) (*StateResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	v := sess.viewer
	x, y := v.ScrollPosition()
	start, end := v.Selection()
	focused, focusing := v.Focus()

	sess.mu.Lock()
	results := len(sess.searchResults)
	sess.mu.Unlock()

	return &StateResult{
		SessionID:      sess.ID,
		DocumentID:     v.DocumentID(),
		Title:          sess.Document.Title,
		Pages:          v.NumPages(),
		CurrentPage:    v.CurrentPage(),
		ScrollX:        x,
		ScrollY:        y,
		DragState:      v.DragState().String(),
		SelectionStart: start,
		SelectionEnd:   end,
		SelectedText:   sess.selectedText(start, end),
		Focused:        focused,
		Focusing:       focusing,
		Annotations:    sess.annotationInfos(),
		SearchResults:  results,
	}, nil
}

// Search highlights every match of the query. An empty query clears the
// highlights.
func (s *Service) Search(req SearchRequest) (*SearchResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	results := sess.Document.TextIndex().Search(req.Query, document.SearchOptions{
		CaseSensitive: req.CaseSensitive,
		MaxResults:    req.MaxResults,
	})

	sess.mu.Lock()
	sess.searchResults = results
	sess.mu.Unlock()
	sess.viewer.SetSearchResults(results)

	return &SearchResult{
		SessionID: sess.ID,
		Query:     req.Query,
		Results:   results,
		Count:     len(results),
	}, nil
}

// Navigate scrolls to an annotation or a page and waits for the scroll and
// the loads it starts to finish
func (s *Service) Navigate(req NavigateRequest) (*NavigateResult, error) {
	sess, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}
	sess.op.Lock()
	defer sess.op.Unlock()

	v := sess.viewer
	switch {
	case req.Annotation >= 0:
		n := len(v.Annotations())
		if req.Annotation >= n {
			return nil, fmt.Errorf("annotation index %d out of range (%d annotations)", req.Annotation, n)
		}
		v.ScrollToAnnotation(req.Annotation)
		if req.Focus {
			v.FocusAnnotation(req.Annotation)
		}
	case req.Page != 0:
		if !v.Navigate(req.Page) {
			return nil, fmt.Errorf("page %d out of range (1-%d)", req.Page, v.NumPages())
		}
	default:
		return nil, fmt.Errorf("either page or annotation is required")
	}

	v.SettleScroll()
	v.Wait()

	x, y := v.ScrollPosition()
	focused, focusing := v.Focus()
	return &NavigateResult{
		SessionID:   sess.ID,
		CurrentPage: v.CurrentPage(),
		ScrollX:     x,
		ScrollY:     y,
		Focused:     focused,
		Focusing:    focusing,
		Events:      sess.drainEvents(),
	}, nil
}

func (s *Service) get(id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id cannot be empty")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, nil
}

func (sess *Session) callbacks() viewer.Callbacks {
	return viewer.Callbacks{
		OnSelectionStart: func(sel *document.Selection) {
			sess.record(Event{Type: EventSelectionStart, Selection: sel})
		},
		OnSelectionEnd: func(sel *document.Selection) {
			sess.record(Event{Type: EventSelectionEnd, Selection: sel})
		},
		OnAnnotationCreate: sess.addAnnotation,
		OnAnnotationDelete: sess.removeAnnotation,
		OnPageChange: func(page int) {
			sess.record(Event{Type: EventPageChange, Page: page})
		},
	}
}

func (sess *Session) record(ev Event) {
	sess.mu.Lock()
	sess.events = append(sess.events, ev)
	sess.mu.Unlock()
}

func (sess *Session) drainEvents() []Event {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	events := sess.events
	sess.events = nil
	if events == nil {
		events = []Event{}
	}
	return events
}

func (sess *Session) addAnnotation(a document.Annotation) {
	sess.mu.Lock()
	sess.annotations = append(sess.annotations, a)
	sess.events = append(sess.events, Event{Type: EventAnnotationCreate, Annotation: &a})
	annotations := slices.Clone(sess.annotations)
	sess.mu.Unlock()

	sess.viewer.SetAnnotations(annotations)
}

func (sess *Session) removeAnnotation(a document.Annotation) {
	sess.mu.Lock()
	if i := slices.Index(sess.annotations, a); i >= 0 {
		sess.annotations = slices.Delete(sess.annotations, i, i+1)
	}
	sess.events = append(sess.events, Event{Type: EventAnnotationDelete, Annotation: &a})
	annotations := slices.Clone(sess.annotations)
	sess.mu.Unlock()

	sess.viewer.SetAnnotations(annotations)
}

func (sess *Session) annotationList() []document.Annotation {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return slices.Clone(sess.annotations)
}

// annotationInfos lists the annotations in the viewer's index order
func (sess *Session) annotationInfos() []AnnotationInfo {
	annotations := sess.viewer.Annotations()
	infos := make([]AnnotationInfo, len(annotations))
	for i, a := range annotations {
		infos[i] = sess.annotationInfo(a, i)
	}
	return infos
}

func (sess *Session) annotationInfo(a document.Annotation, index int) AnnotationInfo {
	return AnnotationInfo{
		Annotation: a,
		Index:      index,
		Color:      fusion.TopicColor(a.Topic),
		Text:       sess.text(a.CharacterStart, a.CharacterEnd),
	}
}

func (sess *Session) selectedText(start, end *document.Selection) string {
	if !document.ValidSelection(start, end) {
		return ""
	}
	return sess.text(start.Token.CharacterStart, end.Token.CharacterEnd)
}

func (sess *Session) text(start, end int) string {
	content := sess.Document.Text
	if start < 0 || end > len(content) || start >= end {
		return ""
	}
	return content[start:end]
}
