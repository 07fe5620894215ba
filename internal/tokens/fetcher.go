// Package tokens loads the OCR tokens of a page from a URL or a resolver.
//
// Static URLs are fetched over HTTP (or read from disk for file:// URLs) and
// cached for the life of the process, because token files never change once
// produced. Dynamic resources are never cached.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// DefaultTimeout bounds a single token request
const DefaultTimeout = 30 * time.Second

// Fetcher retrieves token lists
type Fetcher struct {
	client *http.Client
	cache  *Cache
}

// NewFetcher creates a fetcher with its own cache of cacheSize entries
func NewFetcher(timeout time.Duration, cacheSize int) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  NewCache(cacheSize),
	}
}

// Cache exposes the fetcher's cache for statistics
func (f *Fetcher) Cache() *Cache { return f.cache }

// Tokens resolves a page's token resource
func (f *Fetcher) Tokens(ctx context.Context, res document.TokensResource) ([]document.Token, error) {
	if res.IsZero() {
		return nil, &FetchError{Kind: KindResolver, Err: document.ErrNoResource}
	}

	if !res.IsStatic() {
		tokens, err := res.Resolve(ctx)
		if err != nil {
			return nil, newFetchError(KindResolver, "", err)
		}
		return tokens, nil
	}

	u := res.URL()
	if tokens, ok := f.cache.Get(u); ok {
		return tokens, nil
	}

	tokens, err := f.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	f.cache.Put(u, tokens)
	return tokens, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]document.Token, error) {
	body, err := f.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var tokens []document.Token
	if err := json.NewDecoder(body).Decode(&tokens); err != nil {
		if ctx.Err() != nil {
			return nil, newFetchError(KindCancelled, rawURL, ctx.Err())
		}
		return nil, newFetchError(KindDecode, rawURL, err)
	}

	return tokens, nil
}

func (f *Fetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, newFetchError(KindTransport, rawURL, err)
	}

	if parsed.Scheme == "file" || parsed.Scheme == "" {
		if err := ctx.Err(); err != nil {
			return nil, newFetchError(KindCancelled, rawURL, err)
		}
		path := parsed.Path
		if parsed.Scheme == "" {
			path = rawURL
		}
		file, err := os.Open(path)
		if err != nil {
			return nil, newFetchError(KindTransport, rawURL, err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newFetchError(KindTransport, rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newFetchError(KindTransport, rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, newFetchError(KindTransport, rawURL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	return resp.Body, nil
}
