// Package favorites provides database operations for favorite movie
// management.
//
// Every mutation runs in a single transaction that also upserts the movie
// metadata cache and, when the device is offline, writes a sync queue
// entry. The UI therefore never observes a half-applied favorite.
//
// # Usage
//
//	repo := favorites.NewRepository(db, queue)
//	added, err := repo.Add(&movie, isOnline)
package favorites

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelsync/reelsync/internal/database/movies"
	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/entities"
)

// Repository handles all favorites database operations for one user scope.
type Repository struct {
	db     *gorm.DB
	movies *movies.Repository
	queue  *syncqueue.Repository
	userID string
}

// NewRepository creates a favorites repository scoped to the local user.
func NewRepository(db *gorm.DB, queue *syncqueue.Repository) *Repository {
	return NewRepositoryForUser(db, queue, entities.LocalUserID)
}

// NewRepositoryForUser creates a favorites repository for a specific user.
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

// Add marks a movie as favorite. In one transaction it upserts the movie
// cache row, inserts the relation (no-op if already present), and when
// offline enqueues an add operation. Returns whether a new relation row
// was created.
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

		var existing entities.Favorite
		err := tx.Where("movie_id = ? AND user_id = ?", movie.ID, r.userID).First(&existing).Error
		if err == nil {
			// Already a favorite; idempotent no-op.
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		// The unique (movie_id, user_id) index is the real guarantee;
		// the check above is only the fast path.
		relation := entities.Favorite{
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
			return r.queue.Tx(tx).Add(entities.SyncItemFavorite, movie.ID, entities.SyncOpAdd)
		}
		return nil
	})
	return added, err
}

// AddSynced inserts a relation already acknowledged by the remote backend,
// without touching the sync queue. Used when merging server state into the
// local cache after login/restore.
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
		relation := entities.Favorite{
			MovieID: movie.ID,
			UserID:  r.userID,
			Synced:  true,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&relation).Error
	})
}

// Remove deletes the favorite relation. A still-pending add for the same
// movie is cancelled first; if one was cancelled the remote never saw the
// add and no remove operation is enqueued. A missing relation is a no-op,
// not an error. Returns whether a relation row was deleted.
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
		cancelled, err := queue.CancelPending(entities.SyncItemFavorite, movieID, entities.SyncOpAdd)
		if err != nil {
			return err
		}

		result := tx.Where("movie_id = ? AND user_id = ?", movieID, r.userID).
			Delete(&entities.Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		if !isOnline && cancelled == 0 {
			return queue.Add(entities.SyncItemFavorite, movieID, entities.SyncOpRemove)
		}
		return nil
	})
	return removed, err
}

// Toggle flips the membership of a movie and returns the new state. The
// read and the write are separate transactions; the unique relation index
// keeps concurrent toggles from double-inserting.
func (r *Repository) Toggle(movie *entities.Movie, isOnline bool) (bool, error) {
	if movie == nil || movie.ID <= 0 {
		return false, entities.ErrInvalidMovieID
	}
	isFavorite, err := r.IsFavorite(movie.ID)
	if err != nil {
		return false, err
	}
	if isFavorite {
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

// GetAll returns the favorite movies, most recently added first.
func (r *Repository) GetAll() ([]entities.Movie, error) {
	if r.db == nil {
		return nil, nil
	}
	var result []entities.Movie
	err := r.db.Model(&entities.Movie{}).
		Joins("JOIN favorites ON favorites.movie_id = movies.id").
		Where("favorites.user_id = ?", r.userID).
		Order("favorites.created_at DESC").
		Find(&result).Error
	return result, err
}

// IsFavorite reports whether the movie is currently a favorite.
func (r *Repository) IsFavorite(movieID int64) (bool, error) {
	if r.db == nil {
		return false, nil
	}
	var count int64
	err := r.db.Model(&entities.Favorite{}).
		Where("movie_id = ? AND user_id = ?", movieID, r.userID).
		Count(&count).Error
	return count > 0, err
}

// GetUnsynced returns relations not yet acknowledged by the remote.
func (r *Repository) GetUnsynced() ([]entities.Favorite, error) {
	if r.db == nil {
		return nil, nil
	}
	var relations []entities.Favorite
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
	return r.db.Model(&entities.Favorite{}).
		Where("movie_id = ? AND user_id = ?", movieID, r.userID).
		Update("synced", true).Error
}

// Count returns the number of favorites in this user scope.
func (r *Repository) Count() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entities.Favorite{}).
		Where("user_id = ?", r.userID).
		Count(&count).Error
	return count, err
}

// Clear removes every favorite in this user scope.
func (r *Repository) Clear() error {
	if r.db == nil {
		return nil
	}
	return r.db.Where("user_id = ?", r.userID).Delete(&entities.Favorite{}).Error
}
