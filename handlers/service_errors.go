package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/lingflow/services"
	"github.com/upb/lingflow/utils"
	"go.uber.org/zap"
)

// statusClientClosedRequest is reported when the caller went away mid-call
const statusClientClosedRequest = 499

var errorStatus = map[services.ErrorType]int{
	services.ErrorTypeRateLimited:           http.StatusTooManyRequests,
	services.ErrorTypeUnauthorized:          http.StatusUnauthorized,
	services.ErrorTypeQuotaExceeded:         http.StatusPaymentRequired,
	services.ErrorTypeNetwork:               http.StatusBadGateway,
	services.ErrorTypeTimeout:               http.StatusGatewayTimeout,
	services.ErrorTypePayloadTooLarge:       http.StatusRequestEntityTooLarge,
	services.ErrorTypeCredentialsRequired:   http.StatusUnauthorized,
	services.ErrorTypeCapabilityUnavailable: http.StatusUnprocessableEntity,
	services.ErrorTypeValidation:            http.StatusBadRequest,
	services.ErrorTypeUnknown:               http.StatusBadGateway,
	services.ErrorTypeInternal:              http.StatusInternalServerError,
}

// StatusForError returns the HTTP status for a service error
func StatusForError(err error) int {
	if errors.Is(err, context.Canceled) {
		return statusClientClosedRequest
	}
	if status, ok := errorStatus[services.GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status := StatusForError(err)
	errType := services.GetErrorType(err)

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		if status == statusClientClosedRequest {
			logger.Debug("request abandoned by client", zap.Error(err))
			w.WriteHeader(status)
			return
		}
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}

	message := domainErr.Message
	if errType == services.ErrorTypeInternal {
		logger.Error("internal server error", zap.Error(domainErr.Unwrap()), zap.String("message", message))
		message = "An internal error occurred"
	}

	if err := utils.WriteError(w, status, string(errType), message, domainErr.Details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}

	logger.Debug("handled service error",
		zap.String("type", string(errType)),
		zap.Int("status", status),
		zap.String("message", domainErr.Message))
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if errors.Is(err, utils.ErrBodyTooLarge) {
		if err := utils.WriteError(w, http.StatusRequestEntityTooLarge, string(services.ErrorTypePayloadTooLarge), "Request body is too large", nil); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
