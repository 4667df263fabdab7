package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Error codes attached to ProviderError
const (
	CodeMissingKey   = "MISSING_API_KEY"
	CodeHTTPStatus   = "HTTP_STATUS"
	CodeTransport    = "TRANSPORT_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeMarshal      = "MARSHAL_ERROR"
	CodeUnmarshal    = "UNMARSHAL_ERROR"
	CodeEmptyContent = "EMPTY_CONTENT"
)

// ProviderError represents an error from a provider. Whether it is retried is
// decided by the retry executor from StatusCode alone: only 401 and 403 stop it.
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the provider-supplied or transport message
	Message string

	// StatusCode is the HTTP status code (0 when no response was received)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// HTTPStatus exposes the status for retry and classification
func (e *ProviderError) HTTPStatus() int {
	return e.StatusCode
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// MissingKeyError is returned by direct adapters before any network call
func MissingKeyError(provider string) *ProviderError {
	return NewProviderError(provider, CodeMissingKey, "missing API key", http.StatusUnauthorized, nil)
}

// StatusError builds the failure for a non-2xx response. The message is the
// envelope's error.message, else its message, else the raw body.
func StatusError(provider string, statusCode int, body []byte) *ProviderError {
	msg := ErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	if msg == "" {
		msg = "API request failed"
	}
	return NewProviderError(provider, CodeHTTPStatus, msg, statusCode, nil)
}

// ErrorMessage extracts a human readable message from an error body
func ErrorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
				return flat
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// TransportError wraps a failure that happened before a response arrived.
// Timeouts read "request timeout" and everything else "network error" so the
// classifier can tell them apart.
func TransportError(provider string, err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(provider, CodeTimeout, "request timeout", 0, err)
	}
	return NewProviderError(provider, CodeTransport, "network error", 0, err)
}
