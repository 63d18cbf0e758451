// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Backend errors.
	ErrTransport         = errors.New("qualification request failed")
	ErrBackendRejected   = errors.New("qualification service rejected the batch")
	ErrMalformedResponse = errors.New("malformed qualification response")

	// Reconciliation errors.
	ErrChecklistAnalysis = errors.New("checklist analysis failed")
	ErrPartialDocument   = errors.New("document could not be analyzed")

	// Workflow errors.
	ErrValidation     = errors.New("validation failed")
	ErrNoAnalysis     = errors.New("no analysis available")
	ErrWriteRejected  = errors.New("checklist is locked")
	ErrUnknownItem    = errors.New("unknown checklist item")
	ErrSubmitInFlight = errors.New("a qualification request is already in progress")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// TransportError reports a failed or non-2xx qualification request.
// The whole batch fails with it.
type TransportError struct {
	Err        error
	Body       string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %s", ErrTransport, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// ChecklistAnalysisError carries the message the service embedded in checklist_analysis.
type ChecklistAnalysisError struct {
	ItemID  string
	Message string
}

func (e *ChecklistAnalysisError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%v: %s: %s", ErrChecklistAnalysis, e.ItemID, e.Message)
	}
	return fmt.Sprintf("%v: %s", ErrChecklistAnalysis, e.Message)
}

func (e *ChecklistAnalysisError) Unwrap() error {
	return ErrChecklistAnalysis
}

// ValidationError is a pre-flight or input rejection. It never mutates state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Kind is the error class shown in the status panel.
type Kind string

// Error kinds.
const (
	KindNone              Kind = ""
	KindTransport         Kind = "transport"
	KindMalformedResponse Kind = "malformed_response"
	KindChecklistAnalysis Kind = "checklist_analysis"
	KindPartialDocument   Kind = "partial_document"
	KindValidation        Kind = "validation"
	KindNoAnalysis        Kind = "no_analysis"
	KindWriteRejected     Kind = "write_rejected"
	KindCanceled          Kind = "canceled"
	KindInternal          Kind = "internal"
)

// Classify maps an error into the error taxonomy using sentinel errors only.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrTransport) || errors.Is(err, ErrBackendRejected) || errors.Is(err, ErrSubmitInFlight):
		return KindTransport
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrChecklistAnalysis):
		return KindChecklistAnalysis
	case errors.Is(err, ErrPartialDocument):
		return KindPartialDocument
	case errors.Is(err, ErrValidation) || errors.Is(err, ErrUnknownItem):
		return KindValidation
	case errors.Is(err, ErrNoAnalysis):
		return KindNoAnalysis
	case errors.Is(err, ErrWriteRejected):
		return KindWriteRejected
	default:
		return KindInternal
	}
}
