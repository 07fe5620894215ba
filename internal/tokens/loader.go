package tokens

import (
	"context"
	"sync"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// Result is the outcome of one page load. Generation identifies the request
// so the receiver can drop results that were superseded.
type Result struct {
	Page       int
	Generation uint64
	Tokens     []document.Token
	Err        error
}

// Loader runs at most one token load per page. Starting a new load for a
// page cancels the previous one.
type Loader struct {
	fetcher *Fetcher

	mu     sync.Mutex
	gen    uint64
	active map[int]activeLoad
	wg     sync.WaitGroup
}

type activeLoad struct {
	gen    uint64
	cancel context.CancelFunc
}

// NewLoader creates a loader backed by fetcher
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		active:  make(map[int]activeLoad),
	}
}

// Load starts fetching res for page in the background and calls done with
// the result. It returns the generation carried by that result.
func (l *Loader) Load(ctx context.Context, page int, res document.TokensResource, done func(Result)) uint64 {
	l.mu.Lock()
	if prev, ok := l.active[page]; ok {
		prev.cancel()
	}
	l.gen++
	gen := l.gen
	loadCtx, cancel := context.WithCancel(ctx)
	l.active[page] = activeLoad{gen: gen, cancel: cancel}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.finish(page, gen, cancel)

		tokens, err := l.fetcher.Tokens(loadCtx, res)
		if err == nil && loadCtx.Err() != nil {
			err = newFetchError(KindCancelled, res.URL(), loadCtx.Err())
		}
		done(Result{Page: page, Generation: gen, Tokens: tokens, Err: err})
	}()

	return gen
}

// Cancel abandons the in-flight load of page, if any
func (l *Loader) Cancel(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if load, ok := l.active[page]; ok {
		load.cancel()
		delete(l.active, page)
	}
}

// Close cancels every in-flight load and waits for their callbacks
func (l *Loader) Close() {
	l.mu.Lock()
	for page, load := range l.active {
		load.cancel()
		delete(l.active, page)
	}
	l.mu.Unlock()

	l.wg.Wait()
}

// Wait blocks until all started loads have delivered their result
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) finish(page int, gen uint64, cancel context.CancelFunc) {
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()

	// a newer load may already own the slot
	if load, ok := l.active[page]; ok && load.gen == gen {
		delete(l.active, page)
	}
}

// Pending returns the number of pages with a load in flight
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}
