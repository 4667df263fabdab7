package postgres

import (
	"context"
	"fmt"

	"github.com/upb/lingflow/models"
	"github.com/upb/lingflow/repositories"
	"go.uber.org/zap"
)

// HistoryRepository implements the repositories.HistoryRepository interface
type HistoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB, logger *zap.Logger) repositories.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new history entry
func (r *HistoryRepository) Insert(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO translation_history (
			id, operation, source_text, result, target_lang, provider, model, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		entry.ID,
		entry.Operation,
		entry.SourceText,
		entry.Result,
		entry.TargetLang,
		entry.Provider,
		entry.Model,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	r.logger.Debug("history entry inserted",
		zap.String("id", entry.ID.String()),
		zap.String("operation", string(entry.Operation)))
	return nil
}

// ListRecent retrieves up to limit entries, newest first
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, operation, source_text, result, target_lang, provider, model, created_at
		FROM translation_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.HistoryEntry, 0, limit)
	for rows.Next() {
		entry := &models.HistoryEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.Operation,
			&entry.SourceText,
			&entry.Result,
			&entry.TargetLang,
			&entry.Provider,
			&entry.Model,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return entries, nil
}

// Trim deletes everything but the newest keep entries
func (r *HistoryRepository) Trim(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM translation_history
		WHERE id NOT IN (
			SELECT id FROM translation_history
			ORDER BY created_at DESC
			LIMIT $1
		)
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// Clear deletes all entries
func (r *HistoryRepository) Clear(ctx context.Context) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `DELETE FROM translation_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	r.logger.Info("history cleared")
	return nil
}
