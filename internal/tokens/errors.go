package tokens

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed token load
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindCancelled means the load was superseded or the page unmounted
	KindCancelled
	// KindTransport covers connection failures and non-2xx responses
	KindTransport
	// KindDecode means the body was not a token list
	KindDecode
	// KindResolver means a dynamic resolver returned an error
	KindResolver
)

func (k ErrorKind) String() string {
	switch k {
	case KindCancelled:
		return "CANCELLED"
	case KindTransport:
		return "TRANSPORT"
	case KindDecode:
		return "DECODE"
	case KindResolver:
		return "RESOLVER"
	default:
		return "UNKNOWN"
	}
}

// FetchError reports why a page's tokens could not be loaded
type FetchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("[%s] tokens %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("[%s] tokens: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsCancelled reports whether err only means the load was abandoned. Such
// errors are expected and not worth logging.
func IsCancelled(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindCancelled {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func newFetchError(kind ErrorKind, url string, err error) *FetchError {
	if errors.Is(err, context.Canceled) {
		kind = KindCancelled
	}
	return &FetchError{Kind: kind, URL: url, Err: err}
}
