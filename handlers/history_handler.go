package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/lingflow/models"
	"github.com/upb/lingflow/utils"
	"go.uber.org/zap"
)

// HistoryStore lists and clears stored requests
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
	Clear(ctx context.Context) error
}

// HistoryHandler handles the history endpoints
type HistoryHandler struct {
	store  HistoryStore
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(store HistoryStore, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/history?limit=
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := models.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			_ = utils.WriteBadRequest(w, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list history", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load history")
		return
	}

	if err := utils.WriteOK(w, entries); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleClear handles DELETE /api/v1/history
func (h *HistoryHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear history", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to clear history")
		return
	}
	utils.WriteNoContent(w)
}
