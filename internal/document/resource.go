package document

import (
	"context"
	"errors"
)

// ErrNoResource is returned when resolving a zero-value resource
var ErrNoResource = errors.New("resource not set")

// TokensFunc produces a page's tokens on demand
type TokensFunc func(ctx context.Context) ([]Token, error)

// ImageFunc resolves a page's display URL on demand
type ImageFunc func(ctx context.Context) (string, error)

// TokensResource is either a static URL fetched over HTTP or a resolver
// function. Build one with StaticTokens or DynamicTokens.
type TokensResource struct {
	url     string
	resolve TokensFunc
}

// StaticTokens returns a resource whose tokens are fetched from url
func StaticTokens(url string) TokensResource {
	return TokensResource{url: url}
}

// DynamicTokens returns a resource whose tokens come from fn
func DynamicTokens(fn TokensFunc) TokensResource {
	return TokensResource{resolve: fn}
}

// InlineTokens wraps an already available token list
func InlineTokens(tokens []Token) TokensResource {
	return DynamicTokens(func(context.Context) ([]Token, error) {
		return tokens, nil
	})
}

// IsStatic reports whether the resource is a URL
func (r TokensResource) IsStatic() bool { return r.resolve == nil && r.url != "" }

// IsZero reports whether neither form is set
func (r TokensResource) IsZero() bool { return r.resolve == nil && r.url == "" }

// Same reports whether both resources fetch the same static URL. Resolvers
// never compare equal.
func (r TokensResource) Same(o TokensResource) bool {
	return r.IsStatic() && o.IsStatic() && r.url == o.url
}

// URL returns the static URL, empty for dynamic resources
func (r TokensResource) URL() string { return r.url }

// Resolve runs the dynamic resolver. Static resources must go through a
// fetcher that knows how to retrieve and decode the URL.
func (r TokensResource) Resolve(ctx context.Context) ([]Token, error) {
	if r.resolve == nil {
		return nil, ErrNoResource
	}
	return r.resolve(ctx)
}

// ImageResource is either a static display URL or a resolver function
type ImageResource struct {
	url     string
	resolve ImageFunc
}

// StaticImage returns a resource that always resolves to url
func StaticImage(url string) ImageResource {
	return ImageResource{url: url}
}

// DynamicImage returns a resource resolved by fn
func DynamicImage(fn ImageFunc) ImageResource {
	return ImageResource{resolve: fn}
}

// IsZero reports whether neither form is set
func (r ImageResource) IsZero() bool { return r.resolve == nil && r.url == "" }

// Resolve returns the display URL
func (r ImageResource) Resolve(ctx context.Context) (string, error) {
	switch {
	case r.resolve != nil:
		return r.resolve(ctx)
	case r.url != "":
		return r.url, nil
	default:
		return "", ErrNoResource
	}
}
