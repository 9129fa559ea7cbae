// Package apperror defines the error taxonomy shared by the repositories,
// the review workflow, and the HTTP handlers. Every failure a handler can
// surface is one of five kinds, so clients can tell "fix your input" from
// "you may not do this" from "someone already reviewed this" from "the
// store broke". Raw database errors never reach a client unwrapped.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for clients
type Kind string

const (
	// KindValidation: field-level input problems, user-correctable
	KindValidation Kind = "validation"
	// KindAuthentication: no valid caller identity
	KindAuthentication Kind = "authentication"
	// KindAuthorization: valid identity, insufficient privilege
	KindAuthorization Kind = "authorization"
	// KindInvalidState: the entity is not in the state the operation requires
	KindInvalidState Kind = "invalid_state"
	// KindPersistence: the backing store failed
	KindPersistence Kind = "persistence"
)

// Error is the structured error returned across package boundaries. Fields
// is only populated for validation errors and maps field names to messages;
// the field "root" is reserved for whole-submission problems.
type Error struct {
	Kind    Kind                `json:"kind"`
	Message string              `json:"error"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Err     error               `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a field-keyed validation error
func Validation(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// ValidationField creates a validation error for a single field
func ValidationField(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

// Authentication creates an authentication error
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization creates an authorization error
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// InvalidState creates an invalid-state error
func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Persistence wraps a store failure. The underlying message is preserved
// for diagnostics but is not stable for programmatic matching.
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// Write renders err as a JSON response. Non-apperror errors become a
// generic persistence failure so internal details never leak.
func Write(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status(), appErr)
		return
	}
	c.JSON(http.StatusInternalServerError, &Error{
		Kind:    KindPersistence,
		Message: "Something went wrong, try again",
	})
}
