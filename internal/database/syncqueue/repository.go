// Package syncqueue provides database operations for the durable queue of
// outbound mutations awaiting acknowledgment by the remote backend.
//
// # Usage
//
//	repo := syncqueue.NewRepository(db)
//	_ = repo.Add(entities.SyncItemFavorite, 42, entities.SyncOpAdd)
//	pending, _ := repo.GetPending()
package syncqueue

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelsync/reelsync/internal/entities"
)

// DefaultMaxRetries is the retry ceiling after which an entry is terminal
// until an explicit ResetFailed.
const DefaultMaxRetries = 3

// Repository handles all sync queue database operations.
type Repository struct {
	db         *gorm.DB
	maxRetries int
}

// NewRepository creates a new sync queue repository with the default
// retry ceiling.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, maxRetries: DefaultMaxRetries}
}

// NewRepositoryWithMaxRetries creates a repository with a custom ceiling.
func NewRepositoryWithMaxRetries(db *gorm.DB, maxRetries int) *Repository {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Repository{db: db, maxRetries: maxRetries}
}

// Tx returns a copy of the repository bound to a transaction handle, so
// entity repositories can enqueue inside their own transactions.
func (r *Repository) Tx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, maxRetries: r.maxRetries}
}

// MaxRetries returns the configured retry ceiling.
func (r *Repository) MaxRetries() int {
	return r.maxRetries
}

// Add enqueues an operation. Insertion is deduplicating: an identical
// pending entry already in the queue collapses the insert to a no-op.
func (r *Repository) Add(itemType entities.SyncItemType, movieID int64, op entities.SyncOperation) error {
	if r.db == nil {
		return nil
	}
	item := entities.SyncQueueItem{
		Type:      itemType,
		MovieID:   movieID,
		Operation: op,
		Status:    entities.SyncStatusPending,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// GetPending returns entries eligible for a sync pass: status pending and
// retry count under the ceiling, oldest first so add/remove pairs retain
// their causal order.
func (r *Repository) GetPending() ([]entities.SyncQueueItem, error) {
	if r.db == nil {
		return nil, nil
	}
	var items []entities.SyncQueueItem
	err := r.db.
		Where("status = ? AND retry_count < ?", entities.SyncStatusPending, r.maxRetries).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// GetFailed returns entries that exhausted their retries.
func (r *Repository) GetFailed() ([]entities.SyncQueueItem, error) {
	if r.db == nil {
		return nil, nil
	}
	var items []entities.SyncQueueItem
	err := r.db.
		Where("status = ?", entities.SyncStatusFailed).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// UpdateStatus transitions a single entry. The dedupe index includes the
// status column, so a transition can collide with an identical entry
// enqueued in the meantime (remove then re-add while the old add is in
// flight). In that case the rows merge: the transitioned entry is dropped
// and the existing one stands.
func (r *Repository) UpdateStatus(id uint, status entities.SyncStatus) error {
	if r.db == nil {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return transition(tx, id, status, false)
	})
}

// transition moves one entry to the target status inside tx, merging into
// an identical entry that already holds it. resetRetry additionally zeroes
// the retry counter.
func transition(tx *gorm.DB, id uint, status entities.SyncStatus, resetRetry bool) error {
	var item entities.SyncQueueItem
	if err := tx.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	var duplicates int64
	err := tx.Model(&entities.SyncQueueItem{}).
		Where("type = ? AND movie_id = ? AND operation = ? AND status = ? AND id <> ?",
			item.Type, item.MovieID, item.Operation, status, id).
		Count(&duplicates).Error
	if err != nil {
		return err
	}
	if duplicates > 0 {
		return tx.Delete(&entities.SyncQueueItem{}, id).Error
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().Unix(),
	}
	if resetRetry {
		updates["retry_count"] = 0
	}
	return tx.Model(&entities.SyncQueueItem{}).Where("id = ?", id).Updates(updates).Error
}

// IncrementRetry bumps the retry counter of an entry.
func (r *Repository) IncrementRetry(id uint) error {
	if r.db == nil {
		return nil
	}
	return r.db.Model(&entities.SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now().Unix(),
		}).Error
}

// ResetFailed moves failed entries back to pending with a fresh retry
// counter, for a manual retry sweep. Returns how many were reset. Entries
// are transitioned one by one so a single dedupe collision cannot fail
// the whole sweep.
func (r *Repository) ResetFailed() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var failed []entities.SyncQueueItem
	err := r.db.
		Where("status = ?", entities.SyncStatusFailed).
		Find(&failed).Error
	if err != nil {
		return 0, err
	}

	var reset int64
	for _, item := range failed {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			return transition(tx, item.ID, entities.SyncStatusPending, true)
		})
		if err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}

// Cleanup purges completed entries.
func (r *Repository) Cleanup() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	result := r.db.
		Where("status = ?", entities.SyncStatusCompleted).
		Delete(&entities.SyncQueueItem{})
	return result.RowsAffected, result.Error
}

// CancelPending deletes still-pending entries matching the key and
// returns how many were cancelled. Used by the cancel-before-send path: a
// remove issued while an add is still queued deletes the add instead of
// syncing a since-reversed action.
func (r *Repository) CancelPending(itemType entities.SyncItemType, movieID int64, op entities.SyncOperation) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	result := r.db.
		Where("type = ? AND movie_id = ? AND operation = ? AND status = ?",
			itemType, movieID, op, entities.SyncStatusPending).
		Delete(&entities.SyncQueueItem{})
	return result.RowsAffected, result.Error
}

// RequeueStale resets processing entries older than the threshold back to
// pending. A sync pass interrupted mid-flight (app killed, crash) leaves
// entries in processing with no automatic owner; remote operations are
// idempotent so re-driving them is safe.
func (r *Repository) RequeueStale(olderThan time.Duration) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	var stale []entities.SyncQueueItem
	err := r.db.
		Where("status = ? AND updated_at < ?", entities.SyncStatusProcessing, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	var requeued int64
	for _, item := range stale {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			return transition(tx, item.ID, entities.SyncStatusPending, false)
		})
		if err != nil {
			return requeued, err
		}
		requeued++
	}
	return requeued, nil
}

// CountPending counts entries a sync pass would pick up.
func (r *Repository) CountPending() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entities.SyncQueueItem{}).
		Where("status = ? AND retry_count < ?", entities.SyncStatusPending, r.maxRetries).
		Count(&count).Error
	return count, err
}

// CountFailed counts terminally failed entries.
func (r *Repository) CountFailed() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entities.SyncQueueItem{}).
		Where("status = ?", entities.SyncStatusFailed).
		Count(&count).Error
	return count, err
}

// Clear removes every queue entry.
func (r *Repository) Clear() error {
	if r.db == nil {
		return nil
	}
	return r.db.Where("1 = 1").Delete(&entities.SyncQueueItem{}).Error
}
