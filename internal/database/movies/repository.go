// Package movies provides database operations for the local movie
// metadata cache.
//
// Movie rows are never created independently by callers of the UI layer:
// they are upserted when a favorite/watchlist relation references them and
// removed only by orphan cleanup.
package movies

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelsync/reelsync/internal/entities"
)

// Repository handles all movie cache database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new movie repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Tx returns a copy bound to a transaction handle.
func (r *Repository) Tx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Upsert inserts or refreshes a cached movie row. The movie must carry a
// positive remote id; violating that fails fast before any I/O.
func (r *Repository) Upsert(movie *entities.Movie) error {
	if movie == nil || movie.ID <= 0 {
		return entities.ErrInvalidMovieID
	}
	if r.db == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(movie).Error
}

// GetByID returns a cached movie, or nil when it is not cached.
func (r *Repository) GetByID(id int64) (*entities.Movie, error) {
	if r.db == nil {
		return nil, nil
	}
	var movie entities.Movie
	err := r.db.First(&movie, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetAll returns every cached movie.
func (r *Repository) GetAll() ([]entities.Movie, error) {
	if r.db == nil {
		return nil, nil
	}
	var movies []entities.Movie
	err := r.db.Order("updated_at DESC").Find(&movies).Error
	return movies, err
}

// Count returns the number of cached movies.
func (r *Repository) Count() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&entities.Movie{}).Count(&count).Error
	return count, err
}

// Delete removes a single cached movie row.
func (r *Repository) Delete(id int64) error {
	if r.db == nil {
		return nil
	}
	return r.db.Delete(&entities.Movie{}, "id = ?", id).Error
}

// DeleteOrphans removes movies referenced by no favorite and no watchlist
// row. Returns how many rows were deleted.
func (r *Repository) DeleteOrphans() (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	result := r.db.Exec(`
		DELETE FROM movies
		WHERE id NOT IN (SELECT movie_id FROM favorites)
		  AND id NOT IN (SELECT movie_id FROM watchlist)`)
	return result.RowsAffected, result.Error
}

// Clear removes every cached movie.
func (r *Repository) Clear() error {
	if r.db == nil {
		return nil
	}
	return r.db.Where("1 = 1").Delete(&entities.Movie{}).Error
}
