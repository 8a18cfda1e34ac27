package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Supabase
		TMDB
		Sync
		Network
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Supabase struct {
		URL string
		Key string
	}
	TMDB struct {
		APIKey string
	}
	Sync struct {
		Enabled            bool
		Schedule           string // Cron format: "*/5 * * * *" = every 5 minutes
		UserID             string
		MaxRetries         int
		RetryDelay         time.Duration
		StaleProcessingAge time.Duration
	}
	Network struct {
		ProbeURL      string
		CheckInterval time.Duration
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_key", "")
	v.SetDefault("tmdb_api_key", "")

	// Sync defaults
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_schedule", "*/5 * * * *") // Every 5 minutes
	v.SetDefault("sync_user_id", "local")
	v.SetDefault("sync_max_retries", 3)
	v.SetDefault("sync_retry_delay", "1s")
	v.SetDefault("sync_stale_processing_age", "5m")

	// Network monitor defaults
	v.SetDefault("network_probe_url", "https://clients3.google.com/generate_204")
	v.SetDefault("network_check_interval", "30s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Supabase: Supabase{
			URL: v.GetString("SUPABASE_URL"),
			Key: v.GetString("SUPABASE_KEY"),
		},
		TMDB: TMDB{
			APIKey: v.GetString("TMDB_API_KEY"),
		},
		Sync: Sync{
			Enabled:            v.GetBool("SYNC_ENABLED"),
			Schedule:           v.GetString("SYNC_SCHEDULE"),
			UserID:             v.GetString("SYNC_USER_ID"),
			MaxRetries:         v.GetInt("SYNC_MAX_RETRIES"),
			RetryDelay:         v.GetDuration("SYNC_RETRY_DELAY"),
			StaleProcessingAge: v.GetDuration("SYNC_STALE_PROCESSING_AGE"),
		},
		Network: Network{
			ProbeURL:      v.GetString("NETWORK_PROBE_URL"),
			CheckInterval: v.GetDuration("NETWORK_CHECK_INTERVAL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
