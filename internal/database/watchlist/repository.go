// Package watchlist provides database operations for watchlist
// management. It mirrors the favorites repository: transactional
// mutations, offline enqueueing, cancel-before-send on remove.
package watchlist

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelsync/reelsync/internal/database/movies"
	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/entities"
)

// Repository handles all watchlist database operations for one user scope.
type Repository struct {
	db     *gorm.DB
	movies *movies.Repository
	queue  *syncqueue.Repository
	userID string
}

// NewRepository creates a watchlist repository scoped to the local user.
func NewRepository(db *gorm.DB, queue *syncqueue.Repository) *Repository {
	return NewRepositoryForUser(db, queue, entities.LocalUserID)
}

// NewRepositoryForUser creates a watchlist repository for a specific user.
func NewRepositoryForUser(db *gorm.DB, queue *syncqueue.Repository, userID string) *Repository {
	if userID == "" {
		userID = entities.LocalUserID
	}
	return &Repository{
		db:     db,
		movies: movies.NewRepository(db),
		queue:  queue,
		userID: userID,
	}
}

// Add puts a movie on the watchlist. Upserts the movie cache row, inserts
// the relation (idempotent), enqueues an add operation when offline.
func (r *Repository) Add(movie *entities.Movie, isOnline bool) (bool, error) {
	if movie == nil || movie.ID <= 0 {
		return false, entities.ErrInvalidMovieID
	}
	if r.db == nil {
		return false, nil
	}

	added := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.movies.Tx(tx).Upsert(movie); err != nil {
			return err
		}

		var existing entities.WatchlistItem
		err := tx.Where("movie_id = ? AND user_id = ?", movie.ID, r.userID).First(&existing).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		relation := entities.WatchlistItem{
			MovieID: movie.ID,
			UserID:  r.userID,
			Synced:  isOnline,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&relation)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		added = true

		if !isOnline {
			return r.queue.Tx(tx).Add(entities.SyncItemWatchlist, movie.ID, entities.SyncOpAdd)
		}
		return nil
	})
	return added, err
}

// AddSynced inserts an already-acknowledged relation without a queue
// write, for remote→local restores.
func (r *Repository) AddSynced(movie *entities.Movie) error {
	if movie == nil || movie.ID <= 0 {
		return entities.ErrInvalidMovieID
	}
	if r.db == nil {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.movies.Tx(tx).Upsert(movie); err != nil {
			return err
		}
		relation := entities.WatchlistItem{
			MovieID: movie.ID,
			UserID:  r.userID,
			Synced:  true,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&relation).Error
	})
}

// Remove takes a movie off the watchlist. Cancels a still-pending add
// first; a missing relation is a no-op.
func (r *Repository) Remove(movieID int64, isOnline bool) (bool, error) {
	if movieID <= 0 {
		return false, entities.ErrInvalidMovieID
	}
	if r.db == nil {
		return false, nil
	}

	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		queue := r.queue.Tx(tx)
		cancelled, err := queue.CancelPending(entities.SyncItemWatchlist, movieID, entities.SyncOpAdd)
		if err != nil {
			return err
		}

		result := tx.Where("movie_id = ? AND user_id = ?", movieID, r.userID).
			Delete(&entities.WatchlistItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		if !isOnline && cancelled == 0 {
			return queue.Add(entities.SyncItemWatchlist, movieID, entities.SyncOpRemove)
		}
		return nil
	})
	return removed, err
}

// Toggle flips watchlist membership and returns the new state.
func (r *Repository) Toggle(movie *entities.Movie, isOnline bool) (bool, error) {
	if movie == nil || movie.ID <= 0 {
		return false, entities.ErrInvalidMovieID
	}
	inWatchlist, err := r.IsInWatchlist(movie.ID)
	if err != nil {
		return false, err
	}
	if inWatchlist {
		if _, err := r.Remove(movie.ID, isOnline); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := r.Add(movie, isOnline); err != nil {
		return false, err
	}
	return true, nil
}

// GetAll returns the watchlisted movies, most recently added first.
func (r *Repository) GetAll() ([]entities.Movie, error) {
	if r.db == nil {
		return nil, nil
	}
	var result []entities.Movie
	err := r.db.Model(&entities.Movie{}).
		Joins("JOIN watchlist ON watchlist.movie_id = movies.id").
		Where("watchlist.user_id = ?", r.userID).
		Order("watchlist.created_at DESC").
		Find(&result).Error
	return result, err
}

// IsInWatchlist reports whether the movie is on the watchlist.
func (r *Repository) IsInWatchlist(movieID int64) (bool, error) {
	if r.db == nil {
		return false, nil
	}
	var count int64
	err := r.db.Model(&entities.WatchlistItem{}).
		Where("movie_id = ? AND user_id = ?", movieID, r.userID).
		Count(&count).Error
	return count > 0, err
}

// GetUnsynced returns relations not yet acknowledged by the remote.
func (r *Repository) GetUnsynced() ([]entities.WatchlistItem, error) {
	if r.db == nil {
		return nil, nil
	}
	var relations []entities.WatchlistItem
	err := r.db.
		Where("user_id = ? AND synced = ?", r.userID, false).
		Find(&relations).Error
	return relations, err
}

// MarkAsSynced flags the relation as acknowledged by the remote backend.
func (r *Repository) MarkAsSynced(movieID int64) error {
	if r.db == nil {
		return nil
	}
	return r.db.Model(&entities.WatchlistItem{}).
		Where("movie_id = ? AND user_id = ?", movieID, r.userID).
		Update("synced", true).Error
}

// Count returns the number of watchlist entries in this user scope.
func (r *Repository) Count() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entities.WatchlistItem{}).
		Where("user_id = ?", r.userID).
		Count(&count).Error
	return count, err
}

// Clear removes every watchlist entry in this user scope.
func (r *Repository) Clear() error {
	if r.db == nil {
		return nil
	}
	return r.db.Where("user_id = ?", r.userID).Delete(&entities.WatchlistItem{}).Error
}
