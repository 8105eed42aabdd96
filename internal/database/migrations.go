package database

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// MigrationRecord represents a record of a migration in the database
type MigrationRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Version   int    `gorm:"uniqueIndex"`
	Name      string `gorm:"size:255"`
	AppliedAt time.Time
}

// MigrateOptions provides options for migration operations
type MigrateOptions struct {
	// DryRun only logs the pending migrations
	DryRun bool

	Logger func(format string, args ...interface{})
}

// Migrator manages database migrations
type Migrator struct {
	db         *gorm.DB
	migrations []*Migration
	options    MigrateOptions
}

// NewMigrator creates a new migrator
func NewMigrator(db *gorm.DB, options MigrateOptions) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("migrator requires a database connection")
	}
	return &Migrator{db: db, options: options}, nil
}

// AddMigrations adds migrations to the migrator
func (m *Migrator) AddMigrations(migrations ...*Migration) {
	m.migrations = append(m.migrations, migrations...)
}

// RegisterAllMigrations registers the agent schema
func (m *Migrator) RegisterAllMigrations() {
	m.AddMigrations(
		&Migration{
			Version: 1,
			Name:    "create_ceo_tables",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Conversation{},
					&models.Proposal{},
					&models.AgenticProposal{},
				)
			},
		},
		&Migration{
			Version: 2,
			Name:    "create_operation_history",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Operation{})
			},
		},
		&Migration{
			Version: 3,
			Name:    "create_incidents",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Incident{})
			},
		},
	)
}

// MigrateUp migrates the database to the latest version
func (m *Migrator) MigrateUp() error {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migration records table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion()
	if err != nil {
		return err
	}

	m.sortMigrations()

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log("Migrating to version %d: %s", migration.Version, migration.Name)
		if m.options.DryRun {
			continue
		}

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration up error (version %d): %w", migration.Version, err)
			}
			record := MigrationRecord{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to record migration (version %d): %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	latest, err := m.GetCurrentVersion()
	if err != nil {
		return err
	}
	m.log("Database is at version %d", latest)
	return nil
}

// GetCurrentVersion returns the current migration version
func (m *Migrator) GetCurrentVersion() (int, error) {
	if !m.db.Migrator().HasTable(&MigrationRecord{}) {
		return 0, nil
	}

	var record MigrationRecord
	err := m.db.Order("version desc").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current migration version: %w", err)
	}
	return record.Version, nil
}

func (m *Migrator) sortMigrations() {
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

func (m *Migrator) log(format string, args ...interface{}) {
	if m.options.Logger != nil {
		m.options.Logger(format, args...)
	}
}
