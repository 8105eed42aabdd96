package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/config"
)

// DefaultSQLitePath is used when no path is configured
const DefaultSQLitePath = "data/ceo-agent.db"

// SQLiteDB implements the Database interface for SQLite
type SQLiteDB struct {
	config *config.Config
	db     *gorm.DB
	sqlDB  *sql.DB
	log    *logrus.Logger
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(cfg *config.Config, log *logrus.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{config: cfg, log: log}, nil
}

// Connect opens the database file, creating its directory when needed
func (s *SQLiteDB) Connect() error {
	databasePath := s.config.Database.SQLite.Path
	if databasePath == "" {
		databasePath = DefaultSQLitePath
	}

	if err := ensureDirectoryExists(databasePath); err != nil {
		return fmt.Errorf("failed to create directory for SQLite database: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: newGormLogger(s.log, s.config.Logging.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := setPragmas(db); err != nil && s.log != nil {
		s.log.WithError(err).Warn("Failed to set SQLite pragmas")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// single writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	if s.config.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(s.config.Database.ConnMaxLifetime)
	}

	s.db = db
	s.sqlDB = sqlDB
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.sqlDB != nil {
		return s.sqlDB.Close()
	}
	return nil
}

// DB returns the underlying GORM database instance
func (s *SQLiteDB) DB() *gorm.DB {
	return s.db
}

// Ping checks if the database is reachable
func (s *SQLiteDB) Ping() error {
	if s.sqlDB == nil {
		return errors.New("database connection not established")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.sqlDB.PingContext(ctx)
}

// Transaction executes the given function within a transaction
func (s *SQLiteDB) Transaction(fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return errors.New("database connection not established for transaction")
	}
	return s.db.Transaction(fn)
}

// Migrate auto-migrates the given models
func (s *SQLiteDB) Migrate(models ...interface{}) error {
	if s.db == nil {
		return errors.New("database connection not established for migration")
	}
	return s.db.AutoMigrate(models...)
}

func ensureDirectoryExists(databasePath string) error {
	if databasePath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(databasePath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func setPragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("failed to set pragma '%s': %w", pragma, err)
		}
	}
	return nil
}
