package entities

// SyncItemType identifies which relation a queue entry mutates.
type SyncItemType string

const (
	SyncItemFavorite  SyncItemType = "favorite"
	SyncItemWatchlist SyncItemType = "watchlist"
)

// SyncOperation is the outbound mutation kind.
type SyncOperation string

const (
	SyncOpAdd    SyncOperation = "add"
	SyncOpRemove SyncOperation = "remove"
)

// SyncStatus is the lifecycle state of a queue entry.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusProcessing SyncStatus = "processing"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// SyncQueueItem is a durable record of an outbound mutation awaiting
// acknowledgment by the remote backend. The unique index suppresses
// duplicate identical pending operations at insert time.
type SyncQueueItem struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Type       SyncItemType  `gorm:"size:20;uniqueIndex:idx_sync_queue_dedupe" json:"type"`
	MovieID    int64         `gorm:"uniqueIndex:idx_sync_queue_dedupe" json:"movie_id"`
	Operation  SyncOperation `gorm:"size:10;uniqueIndex:idx_sync_queue_dedupe" json:"operation"`
	Status     SyncStatus    `gorm:"size:20;default:'pending';uniqueIndex:idx_sync_queue_dedupe" json:"status"`
	RetryCount int           `gorm:"default:0" json:"retry_count"`
	CreatedAt  int64         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  int64         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SyncQueueItem) TableName() string {
	return "sync_queue"
}
