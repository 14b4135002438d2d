package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Client errors
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Events acknowledged without a notification
	ErrCodeUnconfiguredRepository ErrorCode = "UNCONFIGURED_REPOSITORY"
	ErrCodeBranchNotMonitored     ErrorCode = "BRANCH_NOT_MONITORED"
	ErrCodeUnsupportedEvent       ErrorCode = "UNSUPPORTED_EVENT"

	// Collaborator errors
	ErrCodeUpstreamFetchFailed ErrorCode = "UPSTREAM_FETCH_FAILED"
	ErrCodeDeliveryFailed      ErrorCode = "DELIVERY_FAILED"

	// Server errors
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Ignored reports whether the error acknowledges an event that needs no
// notification
func (e *AppError) Ignored() bool {
	return e.StatusCode == http.StatusOK
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
	}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// getStatusCodeForError maps error codes to HTTP status codes
func getStatusCodeForError(code ErrorCode) int {
	switch code {
	case ErrCodeUnconfiguredRepository, ErrCodeBranchNotMonitored, ErrCodeUnsupportedEvent:
		return http.StatusOK
	case ErrCodeInvalidRequest, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeUpstreamFetchFailed, ErrCodeDeliveryFailed:
		return http.StatusBadGateway
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for convenience

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message)
}

// InvalidRequest creates an invalid request error
func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

// InvalidSignature creates a webhook signature error
func InvalidSignature() *AppError {
	return New(ErrCodeInvalidSignature, "Invalid webhook signature")
}

// UnsupportedEvent acknowledges an event type that is not processed
func UnsupportedEvent(event string) *AppError {
	return New(ErrCodeUnsupportedEvent, fmt.Sprintf("Event %q is not processed", event))
}

// UnconfiguredRepository acknowledges an event for a repository without policy
func UnconfiguredRepository(repository string) *AppError {
	return New(ErrCodeUnconfiguredRepository, fmt.Sprintf("No policy for repository %s", repository))
}

// BranchNotMonitored acknowledges an event on a branch the policy ignores
func BranchNotMonitored(branch string) *AppError {
	return New(ErrCodeBranchNotMonitored, fmt.Sprintf("Branch %s is not monitored", branch))
}

// UpstreamFetchFailed creates a source-control failure error
func UpstreamFetchFailed(err error) *AppError {
	return Wrap(err, ErrCodeUpstreamFetchFailed, "Failed to fetch changes from source control")
}

// DeliveryFailed creates a notification delivery error
func DeliveryFailed(err error) *AppError {
	return Wrap(err, ErrCodeDeliveryFailed, "Failed to deliver notification")
}

// InternalError creates an internal server error
func InternalError(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "Internal server error")
}
