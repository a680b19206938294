package models

import (
	"errors"
	"fmt"
)

// FetchError reports a failed dataset download. A combined multi-dataset
// load fails as a whole on the first FetchError; partial provincial totals
// would be misleading.
type FetchError struct {
	DatasetID string
	Cause     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch dataset %s: %v", e.DatasetID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ParseError reports an unreadable CSV payload for a dataset.
type ParseError struct {
	DatasetID string
	Cause     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse dataset %s: %v", e.DatasetID, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// CompletionKind classifies completion failures for the tiered fallback.
type CompletionKind string

const (
	CompletionAuthMissing CompletionKind = "auth_missing"
	CompletionRateLimited CompletionKind = "rate_limited"
	CompletionNotFound    CompletionKind = "not_found"
	CompletionTransient   CompletionKind = "transient"
)

type CompletionError struct {
	Kind     CompletionKind
	Provider string
	Cause    error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s, provider %s): %v", e.Kind, e.Provider, e.Cause)
}

func (e *CompletionError) Unwrap() error { return e.Cause }

func NewCompletionError(kind CompletionKind, provider string, cause error) *CompletionError {
	return &CompletionError{Kind: kind, Provider: provider, Cause: cause}
}

// CompletionKindOf extracts the failure kind, defaulting to transient for
// untyped errors.
func CompletionKindOf(err error) CompletionKind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return CompletionTransient
}
