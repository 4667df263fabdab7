package handlers

import (
	"context"
	"net/http"

	"github.com/upb/lingflow/services/cache"
	"github.com/upb/lingflow/services/classifier"
	"github.com/upb/lingflow/services/providers"
	"github.com/upb/lingflow/services/translation"
	"github.com/upb/lingflow/utils"
	"go.uber.org/zap"
)

// DiagnosticsService exposes the model tables, the cache and the error log
type DiagnosticsService interface {
	Models(ctx context.Context) map[providers.Kind][]providers.ModelInfo
	CacheStats() cache.Stats
	ClearCache(operation string) int
	ErrorLog() []classifier.ClassifiedError
	ClearErrorLog()
}

// CacheStatsResponse reports cache usage with a readable max age
type CacheStatsResponse struct {
	cache.Stats
	MaxAgeSeconds float64 `json:"max_age_seconds"`
}

// DiagnosticsHandler handles the models and diagnostics endpoints
type DiagnosticsHandler struct {
	service DiagnosticsService
	logger  *zap.Logger
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler
func NewDiagnosticsHandler(service DiagnosticsService, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		service: service,
		logger:  logger,
	}
}

// HandleModels handles GET /api/v1/models
func (h *DiagnosticsHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	h.writeOK(w, h.service.Models(r.Context()))
}

// HandleErrorLog handles GET /api/v1/diagnostics/errors
func (h *DiagnosticsHandler) HandleErrorLog(w http.ResponseWriter, r *http.Request) {
	h.writeOK(w, h.service.ErrorLog())
}

// HandleClearErrorLog handles DELETE /api/v1/diagnostics/errors
func (h *DiagnosticsHandler) HandleClearErrorLog(w http.ResponseWriter, r *http.Request) {
	h.service.ClearErrorLog()
	utils.WriteNoContent(w)
}

// HandleCacheStats handles GET /api/v1/diagnostics/cache
func (h *DiagnosticsHandler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.CacheStats()
	h.writeOK(w, CacheStatsResponse{
		Stats:         stats,
		MaxAgeSeconds: stats.MaxAge.Seconds(),
	})
}

// HandleClearCache handles DELETE /api/v1/diagnostics/cache?operation=
func (h *DiagnosticsHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	operation := r.URL.Query().Get("operation")
	if operation != "" && !validOperation(operation) {
		_ = utils.WriteBadRequest(w, "unknown operation", map[string]interface{}{"operation": operation})
		return
	}

	removed := h.service.ClearCache(operation)
	h.logger.Info("cache cleared", zap.String("operation", operation), zap.Int("removed", removed))
	h.writeOK(w, map[string]int{"removed": removed})
}

func (h *DiagnosticsHandler) writeOK(w http.ResponseWriter, data interface{}) {
	if err := utils.WriteOK(w, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

func validOperation(op string) bool {
	switch op {
	case translation.OperationTranslate, translation.OperationCorrect,
		translation.OperationPrompt, translation.OperationTranscribe:
		return true
	}
	return false
}
