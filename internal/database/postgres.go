package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/config"
)

// PostgresDB implements the Database interface for PostgreSQL
type PostgresDB struct {
	config *config.Config
	db     *gorm.DB
	sqlDB  *sql.DB
	log    *logrus.Logger
}

// NewPostgresDB creates a new PostgreSQL database instance
func NewPostgresDB(cfg *config.Config, log *logrus.Logger) (*PostgresDB, error) {
	return &PostgresDB{config: cfg, log: log}, nil
}

// DSN builds the connection string from the database config
func (p *PostgresDB) DSN() string {
	cfg := p.config.Database
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		getSslMode(cfg.SSLMode),
	)
}

// Connect establishes a connection to the PostgreSQL database
func (p *PostgresDB) Connect() error {
	db, err := gorm.Open(postgres.Open(p.DSN()), &gorm.Config{
		Logger: newGormLogger(p.log, p.config.Logging.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return p.attach(db)
}

// attach configures the pool of an opened connection
func (p *PostgresDB) attach(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	cfg := p.config.Database
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	p.db = db
	p.sqlDB = sqlDB
	return nil
}

// Close closes the database connection
func (p *PostgresDB) Close() error {
	if p.sqlDB != nil {
		return p.sqlDB.Close()
	}
	return nil
}

// DB returns the underlying GORM database instance
func (p *PostgresDB) DB() *gorm.DB {
	return p.db
}

// Ping checks if the database is reachable
func (p *PostgresDB) Ping() error {
	if p.sqlDB == nil {
		return errors.New("database connection not established")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.sqlDB.PingContext(ctx)
}

// Transaction executes the given function within a transaction
func (p *PostgresDB) Transaction(fn func(tx *gorm.DB) error) error {
	if p.db == nil {
		return errors.New("database connection not established for transaction")
	}
	return p.db.Transaction(fn)
}

// Migrate auto-migrates the given models
func (p *PostgresDB) Migrate(models ...interface{}) error {
	if p.db == nil {
		return errors.New("database connection not established for migration")
	}
	return p.db.AutoMigrate(models...)
}

func getSslMode(mode string) string {
	switch strings.ToLower(mode) {
	case "disable", "require", "verify-ca", "verify-full":
		return strings.ToLower(mode)
	default:
		return "disable"
	}
}
