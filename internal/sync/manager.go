// Package sync orchestrates draining the local operation queue against the
// remote backend and exposes observable sync state to the UI layer.
//
// The manager enforces a single-flight discipline: at most one sync pass
// runs at a time, and a connectivity event arriving mid-pass is ignored —
// the running pass naturally picks up newly queued items next time.
package sync

import (
	"context"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"gorm.io/gorm"

	"github.com/reelsync/reelsync/internal/database/favorites"
	"github.com/reelsync/reelsync/internal/database/movies"
	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/database/watchlist"
	"github.com/reelsync/reelsync/internal/entities"
)

// RemoteStore is the key-value style backend the queue is drained into.
// Add operations must upsert the movie's metadata remotely as part of the
// call (denormalized remote copy). All operations are idempotent.
type RemoteStore interface {
	IsConfigured() bool
	AddFavorite(ctx context.Context, userID string, movie entities.Movie) error
	RemoveFavorite(ctx context.Context, userID string, movieID int64) error
	GetFavorites(ctx context.Context, userID string) ([]entities.Movie, error)
	AddToWatchlist(ctx context.Context, userID string, movie entities.Movie) error
	RemoveFromWatchlist(ctx context.Context, userID string, movieID int64) error
	GetWatchlist(ctx context.Context, userID string) ([]entities.Movie, error)
}

// ConnectivitySource supplies the current connectivity state and
// transition callbacks. Implemented by network.Monitor.
type ConnectivitySource interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// State is the observable sync status exposed to the UI.
type State struct {
	IsSyncing    bool      `json:"is_syncing"`
	IsOnline     bool      `json:"is_online"`
	PendingCount int64     `json:"pending_count"`
	FailedCount  int64     `json:"failed_count"`
	LastSyncTime time.Time `json:"last_sync_time"`
	Error        string    `json:"error,omitempty"`
}

// Config tunes the sync manager.
type Config struct {
	UserID string
	// MaxRetries caps both the in-pass retry loop and the cross-pass
	// retry counter. Default 3.
	MaxRetries int
	// RetryDelay is the linear backoff base: the wait after attempt n is
	// RetryDelay * n.
	RetryDelay time.Duration
	// StaleProcessingAge is how old a processing entry must be before the
	// startup recovery sweep requeues it. Default 5 minutes.
	StaleProcessingAge time.Duration
}

func (c *Config) applyDefaults() {
	if c.UserID == "" {
		c.UserID = entities.LocalUserID
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = syncqueue.DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.StaleProcessingAge <= 0 {
		c.StaleProcessingAge = 5 * time.Minute
	}
}

// Manager drains the sync queue and reconciles remote state.
type Manager struct {
	db           *gorm.DB
	queue        *syncqueue.Repository
	movies       *movies.Repository
	favorites    *favorites.Repository
	watchlist    *watchlist.Repository
	remote       RemoteStore
	connectivity ConnectivitySource
	cfg          Config

	mu           gosync.RWMutex
	isSyncing    bool
	isOnline     bool
	lastSyncTime time.Time
	lastError    string
	subscribers  map[int]func(State)
	nextSubID    int
	unsubscribe  func()
}

// NewManager wires a sync manager over the shared store handle.
func NewManager(db *gorm.DB, remote RemoteStore, connectivity ConnectivitySource, cfg Config) *Manager {
	cfg.applyDefaults()
	queue := syncqueue.NewRepositoryWithMaxRetries(db, cfg.MaxRetries)
	return &Manager{
		db:           db,
		queue:        queue,
		movies:       movies.NewRepository(db),
		favorites:    favorites.NewRepositoryForUser(db, queue, cfg.UserID),
		watchlist:    watchlist.NewRepositoryForUser(db, queue, cfg.UserID),
		remote:       remote,
		connectivity: connectivity,
		cfg:          cfg,
		subscribers:  map[int]func(State){},
	}
}

// Start performs the stuck-entry recovery sweep, records the current
// connectivity state, and begins listening for reconnect events. An
// offline→online transition triggers a full sync pass.
func (m *Manager) Start(ctx context.Context) error {
	requeued, err := m.queue.RequeueStale(m.cfg.StaleProcessingAge)
	if err != nil {
		return fmt.Errorf("requeue stale processing entries: %w", err)
	}
	if requeued > 0 {
		log.Printf("[SYNC] requeued %d entries stuck in processing", requeued)
	}

	online := false
	if m.connectivity != nil {
		online = m.connectivity.Online()
		m.unsubscribe = m.connectivity.Subscribe(func(nowOnline bool) {
			m.handleConnectivity(ctx, nowOnline)
		})
	}

	m.mu.Lock()
	m.isOnline = online
	m.mu.Unlock()
	m.notify()

	return nil
}

// Stop detaches the connectivity listener. In-flight passes are not
// cancelled; interrupted entries are handled by the recovery sweep.
func (m *Manager) Stop() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (m *Manager) handleConnectivity(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.isOnline
	m.isOnline = online
	m.mu.Unlock()
	m.notify()

	if online && !wasOnline {
		log.Printf("[SYNC] back online, draining queue")
		go func() {
			if err := m.SyncAll(ctx); err != nil {
				log.Printf("[SYNC] drain after reconnect: %v", err)
			}
		}()
	}
}

// SyncAll drains the pending queue against the remote backend. Guarded by
// isOnline && !isSyncing; a re-entrant call is a no-op, not queued.
// Individual item failures are absorbed into retry counters and the
// aggregate failed count, never returned as errors.
func (m *Manager) SyncAll(ctx context.Context) error {
	m.mu.Lock()
	if m.isSyncing {
		m.mu.Unlock()
		log.Printf("[SYNC] pass already running, skipping")
		return nil
	}
	if !m.isOnline {
		m.mu.Unlock()
		log.Printf("[SYNC] offline, skipping pass")
		return nil
	}
	m.isSyncing = true
	m.mu.Unlock()
	m.notify()

	defer func() {
		m.mu.Lock()
		m.isSyncing = false
		m.lastSyncTime = time.Now()
		m.mu.Unlock()
		m.notify()
	}()

	if m.remote == nil || !m.remote.IsConfigured() {
		log.Printf("[SYNC] remote backend not configured, skipping pass")
		return nil
	}

	items, err := m.queue.GetPending()
	if err != nil {
		m.setError(fmt.Sprintf("load pending items: %v", err))
		return fmt.Errorf("load pending items: %w", err)
	}
	if len(items) == 0 {
		m.setError("")
		return nil
	}

	log.Printf("[SYNC] draining %d pending items", len(items))
	var lastErr string
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.processItem(ctx, item); err != nil {
			lastErr = err.Error()
		}
	}

	purged, err := m.queue.Cleanup()
	if err != nil {
		log.Printf("[SYNC] cleanup completed entries: %v", err)
	} else if purged > 0 {
		log.Printf("[SYNC] purged %d completed entries", purged)
	}

	m.setError(lastErr)
	return nil
}

// processItem drives a single queue entry through
// processing → {completed | pending | failed}.
func (m *Manager) processItem(ctx context.Context, item entities.SyncQueueItem) error {
	if err := m.queue.UpdateStatus(item.ID, entities.SyncStatusProcessing); err != nil {
		return err
	}

	// An add whose movie has vanished locally (raced with a remove) is
	// vacuously successful; it must never block the queue.
	var movie *entities.Movie
	if item.Operation == entities.SyncOpAdd {
		var err error
		movie, err = m.movies.GetByID(item.MovieID)
		if err != nil {
			return m.recordFailure(item, err)
		}
		if movie == nil {
			log.Printf("[SYNC] movie %d gone locally, completing %s/%s vacuously",
				item.MovieID, item.Type, item.Operation)
			return m.queue.UpdateStatus(item.ID, entities.SyncStatusCompleted)
		}
	}

	backoff := Backoff{
		MaxAttempts: m.cfg.MaxRetries,
		Delay:       LinearBackoff(m.cfg.RetryDelay),
	}
	err := backoff.Do(ctx, func(ctx context.Context) error {
		return m.dispatch(ctx, item, movie)
	})
	if err != nil {
		return m.recordFailure(item, err)
	}

	if item.Operation == entities.SyncOpAdd {
		if err := m.markRelationSynced(item); err != nil {
			log.Printf("[SYNC] mark %s %d synced: %v", item.Type, item.MovieID, err)
		}
	}
	return m.queue.UpdateStatus(item.ID, entities.SyncStatusCompleted)
}

func (m *Manager) dispatch(ctx context.Context, item entities.SyncQueueItem, movie *entities.Movie) error {
	switch {
	case item.Type == entities.SyncItemFavorite && item.Operation == entities.SyncOpAdd:
		return m.remote.AddFavorite(ctx, m.cfg.UserID, *movie)
	case item.Type == entities.SyncItemFavorite && item.Operation == entities.SyncOpRemove:
		return m.remote.RemoveFavorite(ctx, m.cfg.UserID, item.MovieID)
	case item.Type == entities.SyncItemWatchlist && item.Operation == entities.SyncOpAdd:
		return m.remote.AddToWatchlist(ctx, m.cfg.UserID, *movie)
	case item.Type == entities.SyncItemWatchlist && item.Operation == entities.SyncOpRemove:
		return m.remote.RemoveFromWatchlist(ctx, m.cfg.UserID, item.MovieID)
	default:
		return fmt.Errorf("unknown queue entry %s/%s", item.Type, item.Operation)
	}
}

func (m *Manager) markRelationSynced(item entities.SyncQueueItem) error {
	switch item.Type {
	case entities.SyncItemFavorite:
		return m.favorites.MarkAsSynced(item.MovieID)
	case entities.SyncItemWatchlist:
		return m.watchlist.MarkAsSynced(item.MovieID)
	}
	return nil
}

// recordFailure increments the retry counter and either requeues the
// entry or, at the ceiling, marks it terminally failed.
func (m *Manager) recordFailure(item entities.SyncQueueItem, cause error) error {
	if err := m.queue.IncrementRetry(item.ID); err != nil {
		return err
	}
	if item.RetryCount+1 >= m.cfg.MaxRetries {
		log.Printf("[SYNC] %s/%s for movie %d failed after %d attempts: %v",
			item.Type, item.Operation, item.MovieID, item.RetryCount+1, cause)
		if err := m.queue.UpdateStatus(item.ID, entities.SyncStatusFailed); err != nil {
			return err
		}
		return cause
	}
	log.Printf("[SYNC] %s/%s for movie %d failed (attempt %d), will retry: %v",
		item.Type, item.Operation, item.MovieID, item.RetryCount+1, cause)
	if err := m.queue.UpdateStatus(item.ID, entities.SyncStatusPending); err != nil {
		return err
	}
	return cause
}

// RetryFailed moves terminally failed entries back to pending and runs a
// sync pass over them.
func (m *Manager) RetryFailed(ctx context.Context) error {
	reset, err := m.queue.ResetFailed()
	if err != nil {
		return fmt.Errorf("reset failed entries: %w", err)
	}
	if reset == 0 {
		return nil
	}
	log.Printf("[SYNC] reset %d failed entries for retry", reset)
	m.notify()
	return m.SyncAll(ctx)
}

// Pull merges the user's remote favorites and watchlist into the local
// cache. Relations are inserted already marked synced so the merge never
// re-triggers outbound sync. Used after login/restore.
func (m *Manager) Pull(ctx context.Context, userID string) error {
	if m.remote == nil || !m.remote.IsConfigured() {
		log.Printf("[SYNC] remote backend not configured, skipping pull")
		return nil
	}
	if userID == "" {
		userID = m.cfg.UserID
	}

	favRepo := favorites.NewRepositoryForUser(m.db, m.queue, userID)
	watchRepo := watchlist.NewRepositoryForUser(m.db, m.queue, userID)

	remoteFavorites, err := m.remote.GetFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch remote favorites: %w", err)
	}
	for i := range remoteFavorites {
		if err := favRepo.AddSynced(&remoteFavorites[i]); err != nil {
			return fmt.Errorf("restore favorite %d: %w", remoteFavorites[i].ID, err)
		}
	}

	remoteWatchlist, err := m.remote.GetWatchlist(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch remote watchlist: %w", err)
	}
	for i := range remoteWatchlist {
		if err := watchRepo.AddSynced(&remoteWatchlist[i]); err != nil {
			return fmt.Errorf("restore watchlist entry %d: %w", remoteWatchlist[i].ID, err)
		}
	}

	log.Printf("[SYNC] pulled %d favorites and %d watchlist entries for %s",
		len(remoteFavorites), len(remoteWatchlist), userID)
	m.notify()
	return nil
}

// State snapshots the current observable sync status.
func (m *Manager) State() State {
	pending, _ := m.queue.CountPending()
	failed, _ := m.queue.CountFailed()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		IsSyncing:    m.isSyncing,
		IsOnline:     m.isOnline,
		PendingCount: pending,
		FailedCount:  failed,
		LastSyncTime: m.lastSyncTime,
		Error:        m.lastError,
	}
}

// Subscribe registers a state observer and returns an unsubscribe func.
// The observer is invoked with a fresh snapshot on every state change.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.lastError = msg
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.RLock()
	fns := make([]func(State), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	if len(fns) == 0 {
		return
	}

	state := m.State()
	for _, fn := range fns {
		fn(state)
	}
}
