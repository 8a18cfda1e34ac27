package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// SyncQueueJanitor provides the maintenance operations the cleanup task
// needs: purging finished queue entries and releasing entries stuck in
// the processing state.
type SyncQueueJanitor interface {
	Cleanup() (int64, error)
	RequeueStale(olderThan time.Duration) (int64, error)
}

// CleanupSyncQueueTask purges completed sync queue entries and requeues
// entries that were claimed by a crashed sync run.
type CleanupSyncQueueTask struct {
	// StaleAge overrides the default threshold for stuck processing rows.
	StaleAge time.Duration `json:"stale_age,omitempty"`
}

// Config returns the queue configuration for sync queue cleanup tasks.
func (t CleanupSyncQueueTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_sync_queue",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupSyncQueueProcessor creates a processor function for CleanupSyncQueueTask.
func CleanupSyncQueueProcessor(janitor SyncQueueJanitor) backlite.QueueProcessor[CleanupSyncQueueTask] {
	return func(ctx context.Context, task CleanupSyncQueueTask) error {
		if janitor == nil {
			return fmt.Errorf("sync queue janitor not configured")
		}

		staleAge := task.StaleAge
		if staleAge <= 0 {
			staleAge = 5 * time.Minute
		}

		requeued, err := janitor.RequeueStale(staleAge)
		if err != nil {
			return fmt.Errorf("requeue stale sync items: %w", err)
		}

		purged, err := janitor.Cleanup()
		if err != nil {
			return fmt.Errorf("cleanup sync queue: %w", err)
		}

		log.Printf("[TASK] Sync queue maintenance: %d stale items requeued, %d completed items purged", requeued, purged)
		return nil
	}
}

// NewCleanupSyncQueueQueue creates a backlite queue for sync queue cleanup tasks.
func NewCleanupSyncQueueQueue(janitor SyncQueueJanitor) backlite.Queue {
	return backlite.NewQueue(CleanupSyncQueueProcessor(janitor))
}
