package sync

import (
	"context"
	"errors"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsync/reelsync/internal/database/favorites"
	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/database/watchlist"
	"github.com/reelsync/reelsync/internal/entities"
)

type fakeRemote struct {
	mu         gosync.Mutex
	configured bool
	failWith   error

	addedFavorites   []int64
	removedFavorites []int64
	addedWatchlist   []int64
	removedWatchlist []int64

	remoteFavorites []entities.Movie
	remoteWatchlist []entities.Movie
}

func (f *fakeRemote) IsConfigured() bool { return f.configured }

func (f *fakeRemote) AddFavorite(_ context.Context, _ string, movie entities.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.addedFavorites = append(f.addedFavorites, movie.ID)
	return nil
}

func (f *fakeRemote) RemoveFavorite(_ context.Context, _ string, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.removedFavorites = append(f.removedFavorites, movieID)
	return nil
}

func (f *fakeRemote) GetFavorites(_ context.Context, _ string) ([]entities.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.remoteFavorites, nil
}

func (f *fakeRemote) AddToWatchlist(_ context.Context, _ string, movie entities.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.addedWatchlist = append(f.addedWatchlist, movie.ID)
	return nil
}

func (f *fakeRemote) RemoveFromWatchlist(_ context.Context, _ string, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.removedWatchlist = append(f.removedWatchlist, movieID)
	return nil
}

func (f *fakeRemote) GetWatchlist(_ context.Context, _ string) ([]entities.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.remoteWatchlist, nil
}

func (f *fakeRemote) setFailWith(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}

func (f *fakeRemote) favoriteAdds() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.addedFavorites...)
}

type fakeConnectivity struct {
	mu     gosync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int
}

func newFakeConnectivity(online bool) *fakeConnectivity {
	return &fakeConnectivity{online: online, subs: map[int]func(bool){}}
}

func (f *fakeConnectivity) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeConnectivity) Subscribe(fn func(online bool)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeConnectivity) setOnline(online bool) {
	f.mu.Lock()
	f.online = online
	fns := make([]func(bool), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

func setupManagerDB(t *testing.T) *gorm.DB {
	dbPath := filepath.Join(t.TempDir(), "manager_test.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Movie{},
		&entities.Favorite{},
		&entities.WatchlistItem{},
		&entities.SyncQueueItem{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

func testMovie(id int64, title string) *entities.Movie {
	movie := &entities.Movie{ID: id, Title: title}
	movie.SetGenres([]int{18})
	return movie
}

func fastConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestManager_SyncAll_DrainsQueue(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	// Queue offline mutations through the entity repositories
	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)
	_, err = m.watchlist.Add(testMovie(603, "The Matrix"), false)
	require.NoError(t, err)

	state := m.State()
	assert.Equal(t, int64(2), state.PendingCount)

	require.NoError(t, m.SyncAll(context.Background()))

	assert.Equal(t, []int64{42}, remote.favoriteAdds())
	assert.Equal(t, []int64{603}, remote.addedWatchlist)

	state = m.State()
	assert.Equal(t, int64(0), state.PendingCount)
	assert.Equal(t, int64(0), state.FailedCount)
	assert.Empty(t, state.Error)
	assert.False(t, state.LastSyncTime.IsZero())

	// Completed entries were purged, relations are marked synced
	unsynced, err := m.favorites.GetUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

// slowRemote parks the first AddFavorite call until released, to hold a
// sync pass open while another one is attempted.
type slowRemote struct {
	fakeRemote
	enterOnce gosync.Once
	entered   chan struct{}
	release   chan struct{}
}

func (s *slowRemote) AddFavorite(ctx context.Context, userID string, movie entities.Movie) error {
	s.enterOnce.Do(func() { close(s.entered) })
	<-s.release
	return s.fakeRemote.AddFavorite(ctx, userID, movie)
}

func TestManager_SyncAll_SingleFlight(t *testing.T) {
	db := setupManagerDB(t)
	remote := &slowRemote{
		fakeRemote: fakeRemote{configured: true},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() { firstDone <- m.SyncAll(context.Background()) }()
	<-remote.entered
	require.True(t, m.State().IsSyncing)

	// The overlapping call is a no-op: it returns immediately instead of
	// blocking behind the held pass or touching the queue itself
	require.NoError(t, m.SyncAll(context.Background()))
	assert.True(t, m.State().IsSyncing)

	close(remote.release)
	require.NoError(t, <-firstDone)

	// The item was dispatched exactly once
	assert.Equal(t, []int64{42}, remote.favoriteAdds())
	state := m.State()
	assert.False(t, state.IsSyncing)
	assert.Equal(t, int64(0), state.PendingCount)
}

func TestManager_SyncAll_OfflineSkips(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(false)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)

	require.NoError(t, m.SyncAll(context.Background()))

	assert.Empty(t, remote.favoriteAdds())
	assert.Equal(t, int64(1), m.State().PendingCount)
}

func TestManager_SyncAll_UnconfiguredRemoteSkips(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: false}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)

	require.NoError(t, m.SyncAll(context.Background()))

	// Skipped, not failed: the item stays pending for when credentials appear
	state := m.State()
	assert.Equal(t, int64(1), state.PendingCount)
	assert.Equal(t, int64(0), state.FailedCount)
}

func TestManager_SyncAll_FailureHitsRetryCeiling(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	remote.setFailWith(errors.New("backend down"))
	connectivity := newFakeConnectivity(true)
	cfg := Config{MaxRetries: 2, RetryDelay: time.Millisecond}
	m := NewManager(db, remote, connectivity, cfg)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)

	// First pass: retry counter goes to 1, entry back to pending
	require.NoError(t, m.SyncAll(context.Background()))
	state := m.State()
	assert.Equal(t, int64(1), state.PendingCount)
	assert.Equal(t, int64(0), state.FailedCount)
	assert.NotEmpty(t, state.Error)

	// Second pass: ceiling reached, terminally failed
	require.NoError(t, m.SyncAll(context.Background()))
	state = m.State()
	assert.Equal(t, int64(0), state.PendingCount)
	assert.Equal(t, int64(1), state.FailedCount)
}

func TestManager_RetryFailed(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	remote.setFailWith(errors.New("backend down"))
	connectivity := newFakeConnectivity(true)
	cfg := Config{MaxRetries: 1, RetryDelay: time.Millisecond}
	m := NewManager(db, remote, connectivity, cfg)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)

	require.NoError(t, m.SyncAll(context.Background()))
	require.Equal(t, int64(1), m.State().FailedCount)

	// Backend recovers; a manual retry drains the failed entry
	remote.setFailWith(nil)
	require.NoError(t, m.RetryFailed(context.Background()))

	state := m.State()
	assert.Equal(t, int64(0), state.FailedCount)
	assert.Equal(t, int64(0), state.PendingCount)
	assert.Equal(t, []int64{42}, remote.favoriteAdds())
}

func TestManager_VacuousSuccessWhenMovieGone(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	// Queue an add whose movie row no longer exists locally
	require.NoError(t, m.queue.Add(entities.SyncItemFavorite, 999, entities.SyncOpAdd))

	require.NoError(t, m.SyncAll(context.Background()))

	assert.Empty(t, remote.favoriteAdds())
	state := m.State()
	assert.Equal(t, int64(0), state.PendingCount)
	assert.Equal(t, int64(0), state.FailedCount)
	assert.Empty(t, state.Error)
}

func TestManager_ReconnectTriggersDrain(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(false)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.favorites.Add(testMovie(42, "Movie A"), false)
	require.NoError(t, err)
	require.Equal(t, int64(1), m.State().PendingCount)

	connectivity.setOnline(true)

	assert.Eventually(t, func() bool {
		return m.State().PendingCount == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{42}, remote.favoriteAdds())
}

func TestManager_Pull_MergesRemoteStateAsSynced(t *testing.T) {
	db := setupManagerDB(t)
	movieA := testMovie(238, "The Godfather")
	movieB := testMovie(278, "The Shawshank Redemption")
	remote := &fakeRemote{
		configured:      true,
		remoteFavorites: []entities.Movie{*movieA},
		remoteWatchlist: []entities.Movie{*movieB},
	}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	require.NoError(t, m.Pull(context.Background(), "local"))

	queue := syncqueue.NewRepository(db)
	favRepo := favorites.NewRepository(db, queue)
	watchRepo := watchlist.NewRepository(db, queue)

	isFavorite, err := favRepo.IsFavorite(238)
	require.NoError(t, err)
	assert.True(t, isFavorite)

	inWatchlist, err := watchRepo.IsInWatchlist(278)
	require.NoError(t, err)
	assert.True(t, inWatchlist)

	// Merged relations never re-trigger outbound sync
	unsynced, err := favRepo.GetUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)
	assert.Equal(t, int64(0), m.State().PendingCount)
}

func TestManager_Pull_UnconfiguredRemoteIsNoOp(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: false}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())

	require.NoError(t, m.Pull(context.Background(), "local"))
}

func TestManager_Start_RequeuesStaleProcessing(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(false)

	// Simulate an entry orphaned by a crashed pass
	queue := syncqueue.NewRepository(db)
	require.NoError(t, queue.Add(entities.SyncItemFavorite, 42, entities.SyncOpAdd))
	items, err := queue.GetPending()
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, queue.UpdateStatus(items[0].ID, entities.SyncStatusProcessing))
	db.Model(&entities.SyncQueueItem{}).
		Where("id = ?", items[0].ID).
		Update("updated_at", time.Now().Add(-time.Hour).Unix())

	m := NewManager(db, remote, connectivity, fastConfig())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Equal(t, int64(1), m.State().PendingCount)
}

func TestManager_Subscribe(t *testing.T) {
	db := setupManagerDB(t)
	remote := &fakeRemote{configured: true}
	connectivity := newFakeConnectivity(true)
	m := NewManager(db, remote, connectivity, fastConfig())

	var mu gosync.Mutex
	var states []State
	unsubscribe := m.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	require.NoError(t, m.SyncAll(context.Background()))

	mu.Lock()
	received := len(states)
	mu.Unlock()
	assert.Greater(t, received, 0)

	unsubscribe()
	mu.Lock()
	before := len(states)
	mu.Unlock()

	require.NoError(t, m.SyncAll(context.Background()))

	mu.Lock()
	after := len(states)
	mu.Unlock()
	assert.Equal(t, before, after)
}

func TestLinearBackoff(t *testing.T) {
	delay := LinearBackoff(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, delay(1))
	assert.Equal(t, 200*time.Millisecond, delay(2))
	assert.Equal(t, 300*time.Millisecond, delay(3))
}

func TestBackoff_Do_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	b := Backoff{MaxAttempts: 3, Delay: func(int) time.Duration { return 0 }}
	err := b.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoff_Do_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("permanent")
	b := Backoff{MaxAttempts: 3, Delay: func(int) time.Duration { return 0 }}
	err := b.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
}

func TestBackoff_Do_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := Backoff{MaxAttempts: 3, Delay: LinearBackoff(time.Hour)}
	err := b.Do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
