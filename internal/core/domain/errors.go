package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlreadyExecuted    = errors.New("transaction already executed")
	ErrCancelled          = errors.New("transaction cancelled by user")
	ErrDuplicateReference = errors.New("payment reference already used")
	ErrNoChallenge        = errors.New("transaction has no pending 3-D Secure challenge")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError is raised client-side, before anything is sent. It
// aggregates every field that failed.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// Add appends a failing field.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// AddErr appends a failing field caused by err.
func (e *ValidationError) AddErr(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: err.Error(), Err: err})
}

// Merge folds the fields of other into e. Non-validation errors are recorded
// under field.
func (e *ValidationError) Merge(field string, other error) {
	if other == nil {
		return
	}
	var ve *ValidationError
	if errors.As(other, &ve) {
		e.Fields = append(e.Fields, ve.Fields...)
		return
	}
	e.AddErr(field, other)
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// ConfigurationError means the session cannot send requests yet.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// SerializationError wraps a local JSON encode or decode failure.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport failure. Timeout is set when the request
// deadline expired.
type NetworkError struct {
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network: timeout: %v", e.Err)
	}
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a business error reported by the gateway.
type APIError struct {
	Code       APIErrorCode
	Category   ErrorCategory
	Message    string
	StatusCode int
	Raw        map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d (%s): %s", e.Code, e.Category, e.Message)
}

// Known reports whether the gateway code is part of the documented set.
func (e *APIError) Known() bool {
	return e.Code.Known()
}

// ResponseParseError means a success-shaped response did not match the
// record schema.
type ResponseParseError struct {
	Index int
	Err   error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("response record %d: %v", e.Index, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}
