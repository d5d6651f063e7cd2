package errors

import (
	"net/http"
	"strings"

	"signup/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Wrap attaches cause to the error so both stay reachable through errors.Is.
func (e *BaseError) Wrap(cause error) error {
	return &causedError{BaseError: e, cause: cause}
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// causedError keeps a predefined error as the public face of an infrastructure cause.
type causedError struct {
	*BaseError
	cause error
}

func (e *causedError) Error() string {
	return e.message + ": " + e.cause.Error()
}

func (e *causedError) Unwrap() []error {
	return []error{e.BaseError, e.cause}
}

// Predefined error types
var (
	// Credential policy errors
	ErrInvalidLogin = NewBaseError(
		http.StatusUnprocessableEntity,
		"INVALID_LOGIN",
		"Login does not meet the requirements",
		"",
	)

	ErrWeakPassword = NewBaseError(
		http.StatusUnprocessableEntity,
		"WEAK_PASSWORD",
		"Password does not meet the requirements",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusUnprocessableEntity,
		"VALIDATION_FAILED",
		"Request validation failed",
		"",
	)

	// Account errors
	ErrLoginAlreadyExists = NewBaseError(
		http.StatusConflict,
		"LOGIN_ALREADY_EXISTS",
		"Login already exists",
		"",
	)

	// Credential storage errors
	ErrMalformedHash = NewBaseError(
		http.StatusInternalServerError,
		"MALFORMED_HASH",
		"Stored credential is corrupt",
		"",
	)

	ErrHashingUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"HASHING_UNAVAILABLE",
		"Password hashing is temporarily unavailable",
		"",
	)

	ErrRepositoryUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"REPOSITORY_UNAVAILABLE",
		"Account storage is temporarily unavailable",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// Violation names one broken credential rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is a client input error carrying every violated rule.
// errors.Is matches it against its kind (ErrInvalidLogin, ErrWeakPassword or ErrValidationFailed).
type ValidationError struct {
	kind       *BaseError
	violations []Violation
}

// NewValidationError builds a ValidationError of the given kind.
func NewValidationError(kind *BaseError, violations []Violation) *ValidationError {
	return &ValidationError{kind: kind, violations: violations}
}

func (e *ValidationError) Error() string {
	return e.kind.message + ": " + e.Details()
}

func (e *ValidationError) Is(target error) bool {
	return target == e.kind
}

func (e *ValidationError) HTTPCode() int     { return e.kind.httpCode }
func (e *ValidationError) ErrorCode() string { return e.kind.errorCode }
func (e *ValidationError) Message() string   { return e.kind.message }

// Details joins the violation messages.
func (e *ValidationError) Details() string {
	msgs := make([]string, 0, len(e.violations))
	for _, v := range e.violations {
		msgs = append(msgs, v.Message)
	}

	return strings.Join(msgs, "; ")
}

// Violations returns a copy of the violated rules in evaluation order.
func (e *ValidationError) Violations() []Violation {
	out := make([]Violation, len(e.violations))
	copy(out, e.violations)

	return out
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Is reports DatabaseExecuteError as a RepositoryUnavailable condition.
func (e *DatabaseExecuteError) Is(target error) bool {
	return target == ErrRepositoryUnavailable
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return ErrRepositoryUnavailable.errorCode
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return ErrRepositoryUnavailable.message
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
