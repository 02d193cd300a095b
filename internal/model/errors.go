package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by all layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrUpstream         = errors.New("upstream error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDeleteInFlight   = errors.New("deletion already in progress")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// UpstreamError is a non-success answer from an external collaborator.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

// Error leaves out the status when the failure carried none.
func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Message == "":
		return e.Service + ": request failed"
	case e.StatusCode == 0:
		return e.Service + ": " + e.Message
	case e.Message == "":
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// Alert is what a client shows the user when something fails.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AlertFromError turns err into a user-facing alert. title names the
// operation that failed, e.g. "Upload Failed".
func AlertFromError(title string, err error) Alert {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		msgs := make([]string, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			msgs = append(msgs, fe.Field+" "+fe.Message)
		}
		return Alert{Title: title, Message: "Please check your input: " + strings.Join(msgs, ", ") + "."}
	case errors.Is(err, ErrNotFound):
		return Alert{Title: title, Message: "The requested item could not be found."}
	case errors.Is(err, ErrDeleteInFlight):
		return Alert{Title: title, Message: "Deletion already in progress for this item."}
	case errors.Is(err, ErrPermissionDenied):
		return Alert{Title: title, Message: "Permission was not granted. Enable it in settings and try again."}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Alert{Title: title, Message: "The request was cancelled or timed out. Please try again."}
	default:
		return Alert{Title: title, Message: truncate(err.Error(), 200)}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
