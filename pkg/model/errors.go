package model

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a file is absent from both the index and the remote store
	ErrNotFound = errors.New("file not found")
	// ErrExists is returned when an index insert hits an existing record
	ErrExists = errors.New("file already indexed")
	// ErrConflict is returned when a versioned index update loses a race,
	// and by the tag mutator once its retry budget is spent
	ErrConflict = errors.New("version conflict")
	// ErrInvalidInput is returned for malformed identifiers or tag payloads
	ErrInvalidInput = errors.New("invalid input")
	// ErrCanceled is returned when the operation is canceled by the client
	ErrCanceled = errors.New("operation canceled")
)

// WrapError converts context.Canceled and context.DeadlineExceeded to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// Driver errors that only carry the context message in their text are matched too.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
