package database

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/afro-network/ceo-agent/internal/config"
	"github.com/afro-network/ceo-agent/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestFactory_Create(t *testing.T) {
	cfg := &config.Config{}
	factory := NewFactory()

	cfg.Database.Type = "sqlite"
	db, err := factory.Create(cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteDB{}, db)

	cfg.Database.Type = "postgres"
	db, err = factory.Create(cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &PostgresDB{}, db)

	cfg.Database.Type = "mysql"
	_, err = factory.Create(cfg, quietLogger())
	assert.EqualError(t, err, "unsupported database type: mysql")
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "nested", "agent.db")

	db, err := Open(cfg, quietLogger())
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(cfg.Database.SQLite.Path)
	assert.NoError(t, err, "directory and file created")
	assert.NoError(t, db.Ping())

	for _, table := range []interface{}{
		&models.Conversation{}, &models.Proposal{}, &models.AgenticProposal{},
		&models.Operation{}, &models.Incident{},
	} {
		assert.True(t, db.DB().Migrator().HasTable(table))
	}

	migrator, err := NewMigrator(db.DB(), MigrateOptions{})
	require.NoError(t, err)
	version, err := migrator.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestMigrator_RerunIsNoop(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "agent.db")

	db, err := Open(cfg, quietLogger())
	require.NoError(t, err)
	defer db.Close()

	var lines []string
	migrator, err := NewMigrator(db.DB(), MigrateOptions{
		Logger: func(format string, args ...interface{}) { lines = append(lines, format) },
	})
	require.NoError(t, err)
	migrator.RegisterAllMigrations()

	require.NoError(t, migrator.MigrateUp())
	assert.Equal(t, []string{"Database is at version %d"}, lines)

	var count int64
	require.NoError(t, db.DB().Model(&MigrationRecord{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestNewMigrator_NilDB(t *testing.T) {
	_, err := NewMigrator(nil, MigrateOptions{})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "afro"
	cfg.Database.Password = "secret"
	cfg.Database.Name = "ceo"
	cfg.Database.SSLMode = "REQUIRE"

	p, err := NewPostgresDB(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=afro password=secret dbname=ceo sslmode=require", p.DSN())

	cfg.Database.SSLMode = "bogus"
	assert.Contains(t, p.DSN(), "sslmode=disable")
	assert.Error(t, p.Ping(), "not connected")
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel("debug"))
	assert.Equal(t, logger.Warn, getLogLevel("INFO"))
	assert.Equal(t, logger.Error, getLogLevel("error"))
	assert.Equal(t, logger.Silent, getLogLevel(""))
}
