package services

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned to the API layer. Handlers translate these into
// HTTP statuses; nothing here retries internally.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyJoined        = errors.New("already joined this challenge")
	ErrInactiveChallenge    = errors.New("challenge is not active")
	ErrConcurrencyTimeout   = errors.New("ledger operation deadline exceeded")
	ErrUploadsNotConfigured = errors.New("photo storage is not configured")
)

// ValidationError reports a bad category, metric or progress value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// wrapTimeout maps a context deadline hit during a DB call onto the ledger's
// timeout error so callers see one kind regardless of which statement stalled.
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrConcurrencyTimeout, err)
	}
	return err
}
