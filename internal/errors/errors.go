package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypePermissionDenied   ErrorType = "permission_denied"
	ErrorTypeCaptureUnavailable ErrorType = "capture_unavailable"
	ErrorTypeNoActiveStream     ErrorType = "no_active_stream"
	ErrorTypeMissingCredential  ErrorType = "missing_credential"
	ErrorTypeUpstream           ErrorType = "upstream"
	ErrorTypeEmptyResponse      ErrorType = "empty_response"
	ErrorTypeMalformedResponse  ErrorType = "malformed_response"
	ErrorTypeInProgress         ErrorType = "analysis_in_progress"
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeTimeout            ErrorType = "timeout"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewPermissionDeniedError reports that the platform refused a display stream
func NewPermissionDeniedError(message string, cause error) *AppError {
	return newError(ErrorTypePermissionDenied, http.StatusForbidden, message, cause)
}

// NewCaptureUnavailableError reports that no display stream can be provided
func NewCaptureUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeCaptureUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewNoActiveStreamError reports a frame capture attempted while idle
func NewNoActiveStreamError() *AppError {
	return newError(ErrorTypeNoActiveStream, http.StatusConflict, "no active display stream", nil)
}

// NewMissingCredentialError reports that no secret is configured for a provider
func NewMissingCredentialError(provider string) *AppError {
	return newError(ErrorTypeMissingCredential, http.StatusBadRequest,
		fmt.Sprintf("no API key configured for provider %s", provider), nil)
}

// NewUpstreamError wraps a failed provider call. message is surfaced to the caller as-is.
func NewUpstreamError(message string, cause error) *AppError {
	if message == "" {
		message = "the AI provider request failed"
	}
	return newError(ErrorTypeUpstream, http.StatusInternalServerError, message, cause)
}

// NewEmptyResponseError reports a provider reply without any text
func NewEmptyResponseError() *AppError {
	return newError(ErrorTypeEmptyResponse, http.StatusInternalServerError,
		"the AI provider returned no analysis", nil)
}

// NewMalformedResponseError reports provider text that did not reduce to critique entries.
// sample is kept in Details for diagnostics.
func NewMalformedResponseError(sample string, cause error) *AppError {
	e := newError(ErrorTypeMalformedResponse, http.StatusInternalServerError,
		"the AI provider returned an unreadable analysis", cause)
	e.Details = sample
	return e
}

// NewInProgressError rejects a second analysis while one is pending
func NewInProgressError() *AppError {
	return newError(ErrorTypeInProgress, http.StatusConflict,
		"an analysis is already in progress for this session", nil)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// As extracts the AppError from err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
