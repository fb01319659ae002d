// Package apperror defines the application error taxonomy and its mapping
// to HTTP status codes. Handlers render any AppError as a JSON body of the
// form `{"error": message}` with the status returned by StatusCode.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// UnknownError is for unclassified failures.
	UnknownError ErrorType = iota

	// ValidationError means a required field is missing or empty.
	ValidationError

	// ConflictError means the email is already registered.
	ConflictError

	// InvalidCredentialsError covers both an unknown email and a wrong
	// password. The two cases are deliberately indistinguishable so the
	// login endpoint cannot be used to enumerate accounts.
	InvalidCredentialsError

	// UnauthorizedError means the bearer token is missing, malformed,
	// expired or carries an invalid signature.
	UnauthorizedError

	// StorageError means the underlying storage failed.
	StorageError
)

// AppError carries an error classification, a client-visible message and
// an optional underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface, appending the underlying cause
// when one is present.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to the HTTP status of the response.
// Validation, conflict and invalid-credential failures all answer 400,
// matching the wire contract of the API.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, ConflictError, InvalidCredentialsError:
		return http.StatusBadRequest
	case UnauthorizedError:
		return http.StatusUnauthorized
	case StorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports a missing or empty required field.
func NewValidationError(message string) *AppError {
	return &AppError{Type: ValidationError, Message: message}
}

// NewConflictError reports a duplicate email registration attempt.
func NewConflictError(message string) *AppError {
	return &AppError{Type: ConflictError, Message: message}
}

// NewInvalidCredentialsError reports a failed login without revealing
// whether the email or the password was wrong.
func NewInvalidCredentialsError(message string) *AppError {
	return &AppError{Type: InvalidCredentialsError, Message: message}
}

// NewUnauthorizedError reports a rejected bearer token.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Type: UnauthorizedError, Message: message}
}

// NewStorageError wraps an underlying storage failure.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Type: StorageError, Message: message, Err: err}
}

// StatusCodeFor resolves the HTTP status for an arbitrary error value.
// Errors outside the taxonomy answer 500.
func StatusCodeFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}

	return http.StatusInternalServerError
}

// MessageFor resolves the client-visible message for an error value.
// For an AppError the message excludes the underlying cause unless the
// error is a storage failure, whose cause is passed through.
func MessageFor(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Type == StorageError && appErr.Err != nil {
			return appErr.Error()
		}
		return appErr.Message
	}

	return err.Error()
}
