package errors

import (
	"github.com/cockroachdb/errors"
)

// Standard error codes used across the application. Errors are classified by
// marking them with one of these sentinels; callers branch with errors.Is.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrHTTPClient       = errors.New("http_client_error")
	ErrDatabase         = errors.New("database_error")
	ErrSystem           = errors.New("system_error")
	ErrInternal         = errors.New("internal_error")
)

// Error codes as strings for API responses
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeDatabase         = "database_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeInternalError    = "internal_error"
)

// InternalError is the concrete error type produced by the builder. It carries
// a display message, an optional hint for API consumers and a bag of
// reportable details that are safe to surface outside the process.
type InternalError struct {
	message           string
	hint              string
	reportableDetails map[string]any
	cause             error
}

func (e *InternalError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the user facing hint, if any.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns details safe to include in API responses.
func (e *InternalError) ReportableDetails() map[string]any {
	return e.reportableDetails
}

// Is reports whether err is marked with the given sentinel.
func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// As delegates to the underlying errors package.
func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// ErrCode returns the string error code for a classified error.
func ErrCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ErrCodeAlreadyExists
	case errors.Is(err, ErrInvalidOperation):
		return ErrCodeInvalidOperation
	case errors.Is(err, ErrPermissionDenied):
		return ErrCodePermissionDenied
	case errors.Is(err, ErrHTTPClient):
		return ErrCodeHTTPClient
	case errors.Is(err, ErrDatabase):
		return ErrCodeDatabase
	case errors.Is(err, ErrSystem):
		return ErrCodeSystemError
	default:
		return ErrCodeInternalError
	}
}
