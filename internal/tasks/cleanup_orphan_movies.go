package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OrphanMoviesCleaner provides the ability to delete cached movies that
// belong to no favorite or watchlist entry.
type OrphanMoviesCleaner interface {
	DeleteOrphanMovies() (int64, error)
}

// CleanupOrphanMoviesTask removes cached movie rows no relation points at.
type CleanupOrphanMoviesTask struct{}

// Config returns the queue configuration for orphan movie cleanup tasks.
func (t CleanupOrphanMoviesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_movies",
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

// CleanupOrphanMoviesProcessor creates a processor function for CleanupOrphanMoviesTask.
func CleanupOrphanMoviesProcessor(cleaner OrphanMoviesCleaner) backlite.QueueProcessor[CleanupOrphanMoviesTask] {
	return func(ctx context.Context, task CleanupOrphanMoviesTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan movies cleaner not configured")
		}

		deleted, err := cleaner.DeleteOrphanMovies()
		if err != nil {
			return fmt.Errorf("cleanup orphan movies: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d orphan movies", deleted)
		return nil
	}
}

// NewCleanupOrphanMoviesQueue creates a backlite queue for orphan movie cleanup tasks.
func NewCleanupOrphanMoviesQueue(cleaner OrphanMoviesCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanMoviesProcessor(cleaner))
}
