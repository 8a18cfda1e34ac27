package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs background maintenance tasks over a dedicated SQLite
// database, kept separate from the main store so task bookkeeping never
// contends with user-facing writes.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	cfg    Config

	mu      sync.RWMutex
	started bool
}

// tasksDBPath derives the task database path from the main one:
// reelsync.db becomes reelsync-tasks.db in the same directory.
func tasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// NewClient opens the task database and prepares the backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	dsn := tasksDBPath(mainDBPath) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers * 2)
	db.SetMaxIdleConns(cfg.Workers)
	db.SetConnMaxLifetime(30 * time.Minute)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create backlite client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install backlite schema: %w", err)
	}

	return &Client{client: client, db: db, cfg: cfg}, nil
}

// Register adds queues to the client. Call before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start launches the workers and returns; cancel ctx to wind them down.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("[TASK] %d workers running", c.cfg.Workers)
	c.client.Start(ctx)
}

// Stop drains in-flight tasks, bounded by ctx. Reports whether everything
// finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	done := c.client.Stop(ctx)
	if done {
		log.Printf("[TASK] workers stopped")
	} else {
		log.Printf("[TASK] stop timed out, abandoning in-flight tasks")
	}
	return done
}

// Close releases the task database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add begins an enqueue operation for one or more tasks.
func (c *Client) Add(items ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(items...)
}

// taskLogger adapts stdlib log to backlite's logger interface.
type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
