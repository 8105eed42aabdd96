// Package database opens the agent's gorm database and migrates its schema.
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/config"
)

// Database represents the interface for database operations
type Database interface {
	// DB returns the underlying database instance
	DB() *gorm.DB

	// Connect establishes a connection to the database
	Connect() error

	// Close closes the database connection
	Close() error

	// Migrate runs database migrations for the given models
	Migrate(models ...interface{}) error

	// Ping checks if the database is reachable
	Ping() error

	// Transaction executes the given function within a transaction
	Transaction(fn func(tx *gorm.DB) error) error
}

// Factory defines interface for creating database instances
type Factory interface {
	Create(cfg *config.Config, log *logrus.Logger) (Database, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct{}

// NewFactory creates a new database factory
func NewFactory() Factory {
	return &DefaultFactory{}
}

// Create creates a new database instance based on the configuration
func (f *DefaultFactory) Create(cfg *config.Config, log *logrus.Logger) (Database, error) {
	switch cfg.Database.Type {
	case "postgres":
		return NewPostgresDB(cfg, log)
	case "sqlite":
		return NewSQLiteDB(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// Open creates, connects and migrates the configured database
func Open(cfg *config.Config, log *logrus.Logger) (Database, error) {
	db, err := NewFactory().Create(cfg, log)
	if err != nil {
		return nil, err
	}

	log.WithField("type", cfg.Database.Type).Info("Connecting to database")
	if err := db.Connect(); err != nil {
		return nil, err
	}

	migrator, err := NewMigrator(db.DB(), MigrateOptions{
		Logger: func(format string, args ...interface{}) {
			log.Debugf(format, args...)
		},
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	migrator.RegisterAllMigrations()

	if err := migrator.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database ready")
	return db, nil
}
