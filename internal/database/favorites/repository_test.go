package favorites

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *syncqueue.Repository, func()) {
	dbPath := "./test_favorites_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Movie{}, &entities.Favorite{}, &entities.SyncQueueItem{})
	require.NoError(t, err)

	queue := syncqueue.NewRepository(db)
	repo := NewRepository(db, queue)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, queue, cleanup
}

func testMovie(id int64, title string) *entities.Movie {
	movie := &entities.Movie{
		ID:          id,
		Title:       title,
		ReleaseDate: "2024-01-01",
		VoteAverage: 7.0,
	}
	movie.SetGenres([]int{28})
	return movie
}

func TestRepository_Add_Offline(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	added, err := repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)
	assert.True(t, added)

	// Relation exists and is unsynced
	isFavorite, err := repo.IsFavorite(42)
	require.NoError(t, err)
	assert.True(t, isFavorite)

	unsynced, err := repo.GetUnsynced()
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, int64(42), unsynced[0].MovieID)

	// Exactly one queue entry was written
	items, err := queue.GetPending()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entities.SyncItemFavorite, items[0].Type)
	assert.Equal(t, int64(42), items[0].MovieID)
	assert.Equal(t, entities.SyncOpAdd, items[0].Operation)
	assert.Equal(t, entities.SyncStatusPending, items[0].Status)
	assert.Equal(t, 0, items[0].RetryCount)
}

func TestRepository_Add_Online_NoQueueEntry(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	added, err := repo.Add(testMovie(42, "Movie"), true)
	require.NoError(t, err)
	assert.True(t, added)

	unsynced, err := repo.GetUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_Add_Idempotent(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	added, err := repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)
	assert.False(t, added)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRepository_Add_InvalidMovie(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Add(nil, false)
	assert.ErrorIs(t, err, entities.ErrInvalidMovieID)

	_, err = repo.Add(testMovie(0, "No ID"), false)
	assert.ErrorIs(t, err, entities.ErrInvalidMovieID)
}

func TestRepository_Remove_CancelsPendingAdd(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	// Offline add then offline remove before any sync: the queue must end
	// empty because the remote never saw the add.
	added, err := repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)
	require.True(t, added)

	removed, err := repo.Remove(42, false)
	require.NoError(t, err)
	assert.True(t, removed)

	isFavorite, err := repo.IsFavorite(42)
	require.NoError(t, err)
	assert.False(t, isFavorite)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)

	failed, err := queue.GetFailed()
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestRepository_Remove_EnqueuesWhenAddAlreadySynced(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	// Added while online: the remote holds the relation, so an offline
	// remove must enqueue a remove operation.
	_, err := repo.Add(testMovie(42, "Movie"), true)
	require.NoError(t, err)

	removed, err := repo.Remove(42, false)
	require.NoError(t, err)
	assert.True(t, removed)

	items, err := queue.GetPending()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entities.SyncOpRemove, items[0].Operation)
}

func TestRepository_Remove_Online_NoQueueEntry(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Add(testMovie(42, "Movie"), true)
	require.NoError(t, err)

	removed, err := repo.Remove(42, true)
	require.NoError(t, err)
	assert.True(t, removed)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_Remove_MissingRelationIsNoOp(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	removed, err := repo.Remove(999, false)
	require.NoError(t, err)
	assert.False(t, removed)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_Toggle(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	state, err := repo.Toggle(testMovie(42, "Movie"), true)
	require.NoError(t, err)
	assert.True(t, state)

	state, err = repo.Toggle(testMovie(42, "Movie"), true)
	require.NoError(t, err)
	assert.False(t, state)

	isFavorite, err := repo.IsFavorite(42)
	require.NoError(t, err)
	assert.False(t, isFavorite)
}

func TestRepository_Toggle_OnlineLeavesQueueEmpty(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		_, err := repo.Toggle(testMovie(42, "Movie"), true)
		require.NoError(t, err)
	}

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_AddSynced(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.AddSynced(testMovie(42, "Movie")))

	unsynced, err := repo.GetUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	items, err := queue.GetPending()
	require.NoError(t, err)
	assert.Empty(t, items)

	isFavorite, err := repo.IsFavorite(42)
	require.NoError(t, err)
	assert.True(t, isFavorite)
}

func TestRepository_MarkAsSynced(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)

	require.NoError(t, repo.MarkAsSynced(42))

	unsynced, err := repo.GetUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestRepository_GetAll_CachesMovieMetadata(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	movie := testMovie(42, "Cached Movie")
	movie.Overview = "full overview"
	_, err := repo.Add(movie, false)
	require.NoError(t, err)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Cached Movie", all[0].Title)
	assert.Equal(t, "full overview", all[0].Overview)
	assert.Equal(t, []int{28}, all[0].Genres())
}

func TestRepository_UserScoping(t *testing.T) {
	repo, queue, cleanup := setupTestDB(t)
	defer cleanup()

	otherRepo := NewRepositoryForUser(repo.db, queue, "someone-else")

	_, err := repo.Add(testMovie(42, "Movie"), true)
	require.NoError(t, err)

	isFavorite, err := otherRepo.IsFavorite(42)
	require.NoError(t, err)
	assert.False(t, isFavorite)

	count, err := otherRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRepository_NilDatabaseDegradesGracefully(t *testing.T) {
	repo := NewRepository(nil, syncqueue.NewRepository(nil))

	added, err := repo.Add(testMovie(42, "Movie"), false)
	require.NoError(t, err)
	assert.False(t, added)

	isFavorite, err := repo.IsFavorite(42)
	require.NoError(t, err)
	assert.False(t, isFavorite)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
