package tasks

import "time"

// Config tunes the background task system.
type Config struct {
	// Workers is how many tasks may execute concurrently.
	Workers int

	// MaxRetries is the attempt ceiling for failing tasks.
	MaxRetries int

	// RetryDelay spaces retry attempts.
	RetryDelay time.Duration

	// TaskTimeout bounds a single task execution.
	TaskTimeout time.Duration

	// ReleaseAfter is when a claimed but unfinished task is handed back
	// to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are swept.
	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks are kept for
	// inspection.
	RetentionDuration time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}
