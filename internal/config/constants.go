package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the local movie cache database
	DefaultDatabasePath = "./reelsync.db"
)
