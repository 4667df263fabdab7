package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/lingflow/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker verifies the history database
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReadinessSources are the optional collaborators inspected by readiness
type ReadinessSources struct {
	// Database is nil when history storage is disabled
	Database DatabaseChecker
	// RemoteConfigLoaded reports whether the builtin model list came from the proxy
	RemoteConfigLoaded func() bool
	// ProviderCount reports how many provider adapters are registered
	ProviderCount func() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	sources ReadinessSources
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(sources ReadinessSources, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		sources: sources,
		version: version,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if the bridge is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch {
	case h.sources.Database == nil:
		checks["database"] = "disabled"
	case h.sources.Database.HealthCheck(ctx) != nil:
		h.logger.Warn("database health check failed")
		checks["database"] = "unhealthy"
		allHealthy = false
	default:
		checks["database"] = "healthy"
	}

	if h.sources.ProviderCount != nil {
		if h.sources.ProviderCount() == 0 {
			checks["providers"] = "none_registered"
			allHealthy = false
		} else {
			checks["providers"] = "registered"
		}
	}

	// informational: the bundled list is used until the proxy answers
	if h.sources.RemoteConfigLoaded != nil {
		if h.sources.RemoteConfigLoaded() {
			checks["remote_config"] = "loaded"
		} else {
			checks["remote_config"] = "fallback"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
