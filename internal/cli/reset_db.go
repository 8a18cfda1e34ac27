package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reelsync/reelsync/internal/config"
	"github.com/reelsync/reelsync/internal/database"
)

// ResetDBCommand deletes and recreates the local cache database.
type ResetDBCommand struct {
	DatabasePath string
	NoRecreate   bool
}

// NewResetDBCommand creates a new ResetDBCommand
func NewResetDBCommand() *ResetDBCommand {
	return &ResetDBCommand{}
}

// ParseFlags parses command line flags
func (cmd *ResetDBCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset-db", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.NoRecreate, "no-recreate", false, "Delete the database file without recreating the schema")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset-db [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete the local cache database and recreate an empty schema.\n\n")
		fmt.Fprintf(os.Stderr, "All cached movies, relations and queued operations are lost.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the reset command
func (cmd *ResetDBCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Reset(); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	fmt.Printf("Database reset: %s\n", cmd.DatabasePath)

	if cmd.NoRecreate {
		return nil
	}

	if err := db.Reinitialize(); err != nil {
		return fmt.Errorf("failed to reinitialize database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Empty schema recreated (version %d)\n", db.SchemaVersion())
	return nil
}
