package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsync/reelsync/internal/entities"
)

// Database wraps the shared gorm handle. A nil *Database (or nil inner
// handle) is a valid degraded state: repositories built on it return
// empty results and false instead of erroring, so callers never need to
// guard reads against a missing store.
type Database struct {
	DB   *gorm.DB
	path string
}

// NewDatabase opens (or creates) the SQLite database at dbPath and brings
// the schema up to the current version.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, path: dbPath}

	if err := database.initialize(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// initialize applies any pending migrations. It is idempotent: an
// already-migrated database is a no-op.
func (d *Database) initialize() error {
	return runMigrations(d.DB)
}

// Reinitialize reruns the migration sweep without deleting data. After a
// Reset dropped the handle it reopens the file first, so reset followed by
// reinitialize yields a fresh empty schema.
func (d *Database) Reinitialize() error {
	if d == nil {
		return nil
	}
	if d.DB == nil {
		if d.path == "" {
			return nil
		}
		db, err := gorm.Open(sqlite.Open(d.path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return fmt.Errorf("failed to reopen database: %w", err)
		}
		d.DB = db
	}
	return d.initialize()
}

// Reset closes the connection and deletes the physical database file.
// Destructive; intended for the developer/reset surface only.
func (d *Database) Reset() error {
	if d == nil || d.DB == nil {
		return nil
	}
	if err := d.Close(); err != nil {
		return fmt.Errorf("failed to close database before reset: %w", err)
	}
	if d.path == "" {
		return nil
	}
	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove database file: %w", err)
	}
	d.DB = nil
	log.Printf("Database reset: removed %s", d.path)
	return nil
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Available reports whether a usable store handle exists.
func (d *Database) Available() bool {
	return d != nil && d.DB != nil
}

// DeleteOrphanMovies removes cached movie rows that no favorite and no
// watchlist row references. Referenced movies are never deleted.
func (d *Database) DeleteOrphanMovies() (int64, error) {
	if !d.Available() {
		return 0, nil
	}
	result := d.DB.Exec(`
		DELETE FROM movies
		WHERE id NOT IN (SELECT movie_id FROM favorites)
		  AND id NOT IN (SELECT movie_id FROM watchlist)`)
	return result.RowsAffected, result.Error
}

// GetSetting retrieves a setting by key.
func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	if !d.Available() {
		return nil, gorm.ErrRecordNotFound
	}
	var setting entities.Setting
	err := d.DB.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (d *Database) SetSetting(key, value string) error {
	if !d.Available() {
		return nil
	}
	var setting entities.Setting
	result := d.DB.Where("key = ?", key).First(&setting)

	if result.Error == gorm.ErrRecordNotFound {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return d.DB.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return d.DB.Save(&setting).Error
}

// DeleteSetting removes a setting by key.
func (d *Database) DeleteSetting(key string) error {
	if !d.Available() {
		return nil
	}
	return d.DB.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
