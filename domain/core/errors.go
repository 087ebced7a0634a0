package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrJobNotFound    = fmt.Errorf("%w: job", ErrNotFound)
	ErrAnchorNotFound = fmt.Errorf("%w: anchor record", ErrNotFound)

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Analysis errors
	ErrEmptyInput       = errors.New("no measurements to analyze")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Anchoring errors
	ErrPayloadTooLarge       = errors.New("memo payload exceeds chain instruction limit")
	ErrBlockReferenceTimeout = errors.New("timed out fetching block reference")
	ErrHashMismatch          = errors.New("content hash mismatch")

	// State errors
	ErrTerminalJob      = errors.New("job already reached a terminal state")
	ErrSignatureWritten = errors.New("transaction signature already recorded")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: validation failed for %s: %s", ErrInvalidInput, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrEmptyInput)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
