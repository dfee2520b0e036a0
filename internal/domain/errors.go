package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so callers can map them to envelope codes and
// HTTP statuses without string matching.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindUnsupportedSource ErrorKind = "unsupported_source"
	KindRateLimited       ErrorKind = "rate_limited"
	KindFetch             ErrorKind = "fetch_failed"
	KindExtraction        ErrorKind = "extraction_failed"
	KindInternalStore     ErrorKind = "internal_store_error"
	KindInternal          ErrorKind = "internal_error"
)

// Error is the error type shared by every layer of the search pipeline.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindFetch}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func UnsupportedSourceError(sourceID string) error {
	return &Error{Kind: KindUnsupportedSource, Message: "Unsupported site: " + sourceID}
}

func RateLimitedError() error {
	return &Error{Kind: KindRateLimited, Message: "Rate limit exceeded, try again in a minute"}
}

func FetchError(detail string, err error) error {
	return &Error{Kind: KindFetch, Message: detail, Err: err}
}

func ExtractionError(strategy string, err error) error {
	return &Error{Kind: KindExtraction, Message: "extract " + strategy, Err: err}
}

func InternalStoreError(op string, err error) error {
	return &Error{Kind: KindInternalStore, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the transport status of the envelope.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindUnsupportedSource:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
