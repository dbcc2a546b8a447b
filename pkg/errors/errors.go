// Package errors provides structured error types for the blockout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - Identification of the offending room/object ids
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Resolution failures carry one of the scene codes:
//   - SCHEMA_ERROR: malformed field shapes or invalid values after defaulting
//   - DUPLICATE_ID: a room name or object id is used more than once
//   - DANGLING_PARENT: an object references a parent that does not exist
//   - CYCLIC_ATTACHMENT: object parents form a cycle
//   - ORDERING_INVARIANT: internal engine bug, the run must be aborted
//
// The remaining codes cover the outer surfaces (CLI input, network
// collaborators, internal failures).
//
// # Usage
//
//	err := errors.DanglingParent("lamp1", "kitchen")
//	if errors.Is(err, errors.ErrCodeDanglingParent) {
//	    ids := errors.Subjects(err) // ["lamp1", "kitchen"]
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to call %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Scene resolution errors
	ErrCodeSchema            Code = "SCHEMA_ERROR"
	ErrCodeDuplicateID       Code = "DUPLICATE_ID"
	ErrCodeDanglingParent    Code = "DANGLING_PARENT"
	ErrCodeCyclicAttachment  Code = "CYCLIC_ATTACHMENT"
	ErrCodeOrderingInvariant Code = "ORDERING_INVARIANT"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, the ids it concerns and an optional cause.
type Error struct {
	Code     Code     // Machine-readable error code
	Message  string   // Human-readable message
	Subjects []string // Room/object ids the error is about, in a code-specific order
	Cause    error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Schema reports a malformed or invalid field. field is a dotted path such as
// "objects[2].position"; subject is the room/object id when known.
func Schema(subject, field, format string, args ...any) *Error {
	e := &Error{
		Code:    ErrCodeSchema,
		Message: field + ": " + fmt.Sprintf(format, args...),
	}
	if subject != "" {
		e.Subjects = []string{subject}
	}
	return e
}

// DuplicateID reports an identifier declared more than once.
func DuplicateID(id string) *Error {
	return &Error{
		Code:     ErrCodeDuplicateID,
		Message:  fmt.Sprintf("identifier %q is declared more than once", id),
		Subjects: []string{id},
	}
}

// DanglingParent reports an object whose parent does not resolve.
// Subjects are [objectID, parent].
func DanglingParent(objectID, parent string) *Error {
	return &Error{
		Code:     ErrCodeDanglingParent,
		Message:  fmt.Sprintf("object %q references unknown parent %q", objectID, parent),
		Subjects: []string{objectID, parent},
	}
}

// CyclicAttachment reports a parent cycle. cycle lists every node of the
// cycle in parent-chain order.
func CyclicAttachment(cycle []string) *Error {
	path := append(append([]string{}, cycle...), cycle[0])
	return &Error{
		Code:     ErrCodeCyclicAttachment,
		Message:  "attachment cycle: " + strings.Join(path, " -> "),
		Subjects: append([]string{}, cycle...),
	}
}

// OrderingInvariant reports an internal ordering bug: an object was reached
// before its parent transform was resolved.
func OrderingInvariant(objectID, parent string) *Error {
	return &Error{
		Code:     ErrCodeOrderingInvariant,
		Message:  fmt.Sprintf("parent %q of object %q was not resolved before its child", parent, objectID),
		Subjects: []string{objectID, parent},
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Subjects returns the ids attached to the first *Error in the chain.
func Subjects(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subjects
	}
	return nil
}

// IsStructural reports whether err is a document-level resolution failure
// that the caller can fix by editing the input.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeSchema, ErrCodeDuplicateID, ErrCodeDanglingParent, ErrCodeCyclicAttachment:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
