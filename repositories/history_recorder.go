package repositories

import (
	"context"

	"github.com/upb/lingflow/models"
	"go.uber.org/zap"
)

// HistoryRecorder inserts an entry and trims the table to its limit in one transaction
type HistoryRecorder struct {
	repo   HistoryRepository
	tx     TransactionManager
	limit  int
	logger *zap.Logger
}

// NewHistoryRecorder creates a recorder. A non-positive limit uses models.HistoryLimit.
func NewHistoryRecorder(repo HistoryRepository, tx TransactionManager, limit int, logger *zap.Logger) *HistoryRecorder {
	if limit <= 0 {
		limit = models.HistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{
		repo:   repo,
		tx:     tx,
		limit:  limit,
		logger: logger,
	}
}

// Record stores entry and drops the oldest rows beyond the limit
func (r *HistoryRecorder) Record(ctx context.Context, entry *models.HistoryEntry) error {
	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := r.repo.Insert(ctx, entry); err != nil {
			return err
		}
		removed, err := r.repo.Trim(ctx, r.limit)
		if err != nil {
			return err
		}
		if removed > 0 {
			r.logger.Debug("history trimmed", zap.Int64("removed", removed), zap.Int("limit", r.limit))
		}
		return nil
	})
}

// Recent lists the newest entries, capped at the recorder limit
func (r *HistoryRecorder) Recent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}
	return r.repo.ListRecent(ctx, limit)
}

// Clear deletes the whole history
func (r *HistoryRecorder) Clear(ctx context.Context) error {
	return r.repo.Clear(ctx)
}
