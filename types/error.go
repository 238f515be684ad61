package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Media resolution error codes
const (
	ErrReferenceNotFound   ErrorCode = "MEDIA_REFERENCE_NOT_FOUND"
	ErrInvalidReference    ErrorCode = "MEDIA_INVALID_REFERENCE"
	ErrUnsupportedFormat   ErrorCode = "MEDIA_UNSUPPORTED_FORMAT"
	ErrUnsupportedModality ErrorCode = "MEDIA_UNSUPPORTED_MODALITY"
	ErrUnsupportedOption   ErrorCode = "MEDIA_UNSUPPORTED_OPTION"
)

// Upload error codes
const (
	ErrUploadQuotaExceeded ErrorCode = "MEDIA_UPLOAD_QUOTA_EXCEEDED"
	ErrUploadFailed        ErrorCode = "MEDIA_UPLOAD_FAILED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// NewReferenceNotFoundError reports a media path that resolved to nothing.
func NewReferenceNotFoundError(path string) *Error {
	return NewError(ErrReferenceNotFound, fmt.Sprintf("media reference not found: %s", path))
}

// NewUnsupportedFormatError reports a missing or disallowed declared format.
func NewUnsupportedFormatError(kind MediaKind, format string) *Error {
	if format == "" {
		return NewError(ErrUnsupportedFormat, fmt.Sprintf("format is required for %s content", kind))
	}
	return NewError(ErrUnsupportedFormat, fmt.Sprintf("unsupported %s format: %s", kind, format))
}

// NewUnsupportedModalityError reports a provider/model that cannot accept a modality.
func NewUnsupportedModalityError(provider, model string, kind MediaKind) *Error {
	return NewError(ErrUnsupportedModality,
		fmt.Sprintf("%s/%s does not accept %s content", provider, model, kind)).WithProvider(provider)
}

// NewUploadQuotaExceededError reports a per-file or per-account upload budget violation.
func NewUploadQuotaExceededError(provider, reason string) *Error {
	return NewError(ErrUploadQuotaExceeded, reason).WithProvider(provider)
}

// IsErrorCode checks whether err carries the given code anywhere in its chain.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" if unstructured.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
