package database

import (
	"fmt"
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/reelsync/reelsync/internal/entities"
)

// schemaVersionKey is the settings row holding the persisted schema
// version as a single integer.
const schemaVersionKey = "schema_version"

// migration is one additive schema step. Steps are applied in order and
// must never be reordered once shipped. Each step must tolerate being
// re-run against a database that already has its changes.
type migration struct {
	version int
	name    string
	run     func(tx *gorm.DB) error
}

var migrations = []migration{
	{
		version: 1,
		name:    "create core tables",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&entities.Movie{},
				&entities.Favorite{},
				&entities.WatchlistItem{},
			)
		},
	},
	{
		version: 2,
		name:    "create sync queue",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&entities.SyncQueueItem{})
		},
	},
	{
		version: 3,
		name:    "add movie backdrop and vote average",
		run: func(tx *gorm.DB) error {
			m := tx.Migrator()
			if !m.HasColumn(&entities.Movie{}, "backdrop_path") {
				if err := m.AddColumn(&entities.Movie{}, "backdrop_path"); err != nil {
					return err
				}
			}
			if !m.HasColumn(&entities.Movie{}, "vote_average") {
				if err := m.AddColumn(&entities.Movie{}, "vote_average"); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// runMigrations brings the schema from the persisted version to the
// latest, applying only the steps that are still missing.
func runMigrations(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	// The settings table carries the version marker, so it is created
	// outside the versioned sequence.
	if err := db.AutoMigrate(&entities.Setting{}); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}

	current := currentSchemaVersion(db)

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := db.Transaction(m.run); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := setSchemaVersion(db, m.version); err != nil {
			return fmt.Errorf("record schema version %d: %w", m.version, err)
		}
		log.Printf("Applied migration %d: %s", m.version, m.name)
	}

	return nil
}

func currentSchemaVersion(db *gorm.DB) int {
	var setting entities.Setting
	err := db.Where("key = ?", schemaVersionKey).First(&setting).Error
	if err != nil {
		return 0
	}
	version, err := strconv.Atoi(setting.Value)
	if err != nil {
		return 0
	}
	return version
}

func setSchemaVersion(db *gorm.DB, version int) error {
	value := strconv.Itoa(version)
	var setting entities.Setting
	result := db.Where("key = ?", schemaVersionKey).First(&setting)
	if result.Error == gorm.ErrRecordNotFound {
		return db.Create(&entities.Setting{Key: schemaVersionKey, Value: value}).Error
	} else if result.Error != nil {
		return result.Error
	}
	setting.Value = value
	return db.Save(&setting).Error
}

// SchemaVersion exposes the persisted schema version, 0 when unset.
func (d *Database) SchemaVersion() int {
	if !d.Available() {
		return 0
	}
	return currentSchemaVersion(d.DB)
}
