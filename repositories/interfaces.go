package repositories

import (
	"context"

	"github.com/upb/lingflow/models"
)

// TransactionManager groups repository calls into one database transaction
type TransactionManager interface {
	// InTransaction commits when fn returns nil and rolls back otherwise
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// HistoryRepository handles translation history data operations
type HistoryRepository interface {
	// Insert inserts a new history entry
	Insert(ctx context.Context, entry *models.HistoryEntry) error

	// ListRecent retrieves up to limit entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)

	// Trim deletes everything but the newest keep entries and returns the number removed
	Trim(ctx context.Context, keep int) (int64, error)

	// Clear deletes all entries
	Clear(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	History HistoryRepository
}
