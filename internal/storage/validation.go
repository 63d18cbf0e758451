// Package storage provides the session journal.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrEmptyResponse = errors.New("response body cannot be empty")
	ErrNotFound      = errors.New("not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEvent validates an event before it is written.
func validateEvent(ev *Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil", ErrInvalidEvent)
	}
	if strings.TrimSpace(ev.SessionID) == "" {
		return fmt.Errorf("%w: missing session ID", ErrInvalidEvent)
	}
	if strings.TrimSpace(string(ev.Kind)) == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidEvent)
	}
	return nil
}
