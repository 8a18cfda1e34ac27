package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reelsync/reelsync/internal/config"
	"github.com/reelsync/reelsync/internal/database"
	"github.com/reelsync/reelsync/internal/remote"
	"github.com/reelsync/reelsync/internal/sync"
)

// SyncCommand runs a single sync pass against the remote backend and exits.
type SyncCommand struct {
	DatabasePath string
	UserID       string
	Pull         bool
	Timeout      time.Duration
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.UserID, "user", "local", "User id to sync relations for")
	fs.BoolVar(&cmd.Pull, "pull", false, "Also pull remote relations into the local cache")
	fs.DurationVar(&cmd.Timeout, "timeout", 5*time.Minute, "Overall timeout for the sync pass")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Drain queued favorite/watchlist operations to the remote backend.\n\n")
		fmt.Fprintf(os.Stderr, "Requires SUPABASE_URL and SUPABASE_KEY environment variables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -pull\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -db /data/reelsync.db -user local\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the sync command
func (cmd *SyncCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	remoteClient := remote.NewSupabaseClient(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"))
	if !remoteClient.IsConfigured() {
		return fmt.Errorf("remote backend is not configured (set SUPABASE_URL and SUPABASE_KEY)")
	}

	manager := sync.NewManager(db.DB, remoteClient, alwaysOnline{}, sync.Config{UserID: cmd.UserID})

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync manager: %w", err)
	}
	defer manager.Stop()

	before := manager.State()
	fmt.Printf("Database: %s\n", cmd.DatabasePath)
	fmt.Printf("Pending operations: %d (failed: %d)\n", before.PendingCount, before.FailedCount)

	if err := manager.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync pass failed: %w", err)
	}

	if cmd.Pull {
		fmt.Println("Pulling remote relations...")
		if err := manager.Pull(ctx, cmd.UserID); err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
	}

	after := manager.State()
	fmt.Printf("Sync complete. Pending: %d, failed: %d\n", after.PendingCount, after.FailedCount)
	return nil
}

// alwaysOnline satisfies the manager's connectivity dependency for one-shot
// runs where reachability was implied by the operator invoking the command.
type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

func (alwaysOnline) Subscribe(fn func(online bool)) func() { return func() {} }
