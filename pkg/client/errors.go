package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/fred-client/pkg/cache"
	"github.com/Sternrassler/fred-client/pkg/request"
)

// Errors returned by Resolve, always wrapped in a *ResolveError.
var (
	// ErrCacheMiss is returned for CacheOnly lookups with no stored response.
	// It matches cache.ErrCacheMiss.
	ErrCacheMiss = cache.ErrCacheMiss

	// ErrUpstreamStatus is returned when FRED answers with a status other than 200.
	ErrUpstreamStatus = errors.New("upstream status")

	// ErrTransport is returned when the request could not be sent or its body read.
	ErrTransport = errors.New("transport failure")

	// ErrCacheRead is returned when the cache fails for a reason other than a miss.
	ErrCacheRead = errors.New("cache read failed")

	// ErrCacheWriteFailed is passed to Config.OnCacheWriteError. Resolve
	// itself never returns it.
	ErrCacheWriteFailed = errors.New("cache write failed")
)

// ResolveError describes a failed resolution with its request context.
type ResolveError struct {
	Spec   request.Spec
	Lookup Lookup

	// Kind is one of the sentinel errors above.
	Kind error

	// StatusCode and Message are set for ErrUpstreamStatus.
	StatusCode int
	Message    string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve %s (%s): %v", e.Spec, e.Lookup, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is reports whether target is the error's Kind.
func (e *ResolveError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ResolveError) Unwrap() error {
	return e.Err
}
