package httpclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies request failures so callers can pick the right
// user-facing affordance (retry vs. fix input).
type ErrorKind string

const (
	KindTimeout    ErrorKind = "TIMEOUT"
	KindNetwork    ErrorKind = "NETWORK_ERROR"
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindParse      ErrorKind = "PARSE_ERROR"
	KindRequest    ErrorKind = "REQUEST_ERROR"
)

// RequestError is the single error type surfaced by the client.
// Status is the originating HTTP status when known, 0 otherwise.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// KindOf returns the error kind, or KindRequest for foreign errors.
func KindOf(err error) ErrorKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return KindRequest
}

// IsTimeout reports whether the error is a per-attempt timeout.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsRetryable reports whether the failure class is transient.
// Client errors (4xx, validation, parse) are not.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindNetwork:
		return true
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status >= 500
	}
	return false
}

func validationError(message string) *RequestError {
	return &RequestError{Kind: KindValidation, Message: message}
}
