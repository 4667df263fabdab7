package services

import (
	"errors"
)

// ErrorType represents the category of a failure surfaced to callers
type ErrorType string

const (
	ErrorTypeRateLimited           ErrorType = "rate_limited"
	ErrorTypeUnauthorized          ErrorType = "unauthorized"
	ErrorTypeQuotaExceeded         ErrorType = "quota_exceeded"
	ErrorTypeNetwork               ErrorType = "network_error"
	ErrorTypeTimeout               ErrorType = "timeout"
	ErrorTypePayloadTooLarge       ErrorType = "payload_too_large"
	ErrorTypeUnknown               ErrorType = "unknown"
	ErrorTypeCredentialsRequired   ErrorType = "credentials_required"
	ErrorTypeCapabilityUnavailable ErrorType = "capability_unavailable"
	ErrorTypeValidation            ErrorType = "validation"
	ErrorTypeInternal              ErrorType = "internal"
)

// DomainError is the only error type that crosses the service boundary.
// Message is always safe to show to an end user; Err keeps the raw cause for logs.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error returns the user-facing message only
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

const (
	// MessageCredentialsRequired is shown when a direct provider is selected without a key
	MessageCredentialsRequired = "API key required. Please add your API key in Settings."

	// MessageTranscriptionUnavailable is shown when screenshot transcription is requested on the free tier
	MessageTranscriptionUnavailable = "OCR requires a personal API key. Please go to Settings, select Gemini or OpenAI, and enter your API key."
)

var (
	ErrCredentialsRequired   = NewDomainError(ErrorTypeCredentialsRequired, MessageCredentialsRequired, nil)
	ErrCapabilityUnavailable = NewDomainError(ErrorTypeCapabilityUnavailable, MessageTranscriptionUnavailable, nil)

	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyText       = NewDomainError(ErrorTypeValidation, "text cannot be empty", nil)
	ErrInvalidImage    = NewDomainError(ErrorTypeValidation, "image must be base64 encoded", nil)
	ErrInvalidProvider = NewDomainError(ErrorTypeValidation, "invalid provider specified", nil)

	ErrInternal        = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrHistoryDisabled = NewDomainError(ErrorTypeInternal, "history storage is not configured", nil)
)

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsRateLimitedError checks if an error is a rate limit error
func IsRateLimitedError(err error) bool { return isType(err, ErrorTypeRateLimited) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsQuotaExceededError checks if an error is a quota/billing error
func IsQuotaExceededError(err error) bool { return isType(err, ErrorTypeQuotaExceeded) }

// IsNetworkError checks if an error is a network error
func IsNetworkError(err error) bool { return isType(err, ErrorTypeNetwork) }

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool { return isType(err, ErrorTypeTimeout) }

// IsPayloadTooLargeError checks if an error is a payload size error
func IsPayloadTooLargeError(err error) bool { return isType(err, ErrorTypePayloadTooLarge) }

// IsCredentialsRequiredError checks if an error is a missing credential error
func IsCredentialsRequiredError(err error) bool { return isType(err, ErrorTypeCredentialsRequired) }

// IsCapabilityUnavailableError checks if the selected provider cannot serve the operation
func IsCapabilityUnavailableError(err error) bool {
	return isType(err, ErrorTypeCapabilityUnavailable)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return isType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
