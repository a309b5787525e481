package ics

import (
	"errors"
	"net/http"
)

// ErrorKind classifies why a feed could not be turned into events.
type ErrorKind int

const (
	// ErrInvalidURL: the URL does not parse or is not https.
	ErrInvalidURL ErrorKind = iota + 1
	// ErrUpstream: the remote could not be reached or answered non-2xx.
	ErrUpstream
	// ErrTooLarge: the payload exceeded the configured byte cap.
	ErrTooLarge
	// ErrParse: the payload is not a readable iCalendar document.
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidURL:
		return "invalid_url"
	case ErrUpstream:
		return "upstream"
	case ErrTooLarge:
		return "too_large"
	case ErrParse:
		return "parse"
	default:
		return "unknown"
	}
}

// FetchError is returned by the fetcher and the parser. Reason is safe to
// show to end users; Err keeps the underlying cause for logs.
type FetchError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return e.Reason
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the status code the API answers with.
func (e *FetchError) HTTPStatus() int {
	switch e.Kind {
	case ErrInvalidURL:
		return http.StatusBadRequest
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of the first FetchError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func invalidURL(err error) *FetchError {
	return &FetchError{Kind: ErrInvalidURL, Reason: "Invalid or unsafe URL (must be https).", Err: err}
}

func upstream(err error) *FetchError {
	return &FetchError{Kind: ErrUpstream, Reason: "Failed to fetch ICS.", Err: err}
}

func tooLarge(err error) *FetchError {
	return &FetchError{Kind: ErrTooLarge, Reason: "ICS file too large.", Err: err}
}

func parseFailure(err error) *FetchError {
	reason := "Parse error."
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return &FetchError{Kind: ErrParse, Reason: reason, Err: err}
}
