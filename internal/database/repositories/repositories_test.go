package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afro-network/ceo-agent/internal/database"
	"github.com/afro-network/ceo-agent/internal/models"
)

func setupSQLite(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	migrator, err := database.NewMigrator(db, database.MigrateOptions{})
	require.NoError(t, err)
	migrator.RegisterAllMigrations()
	require.NoError(t, migrator.MigrateUp())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gormDB, mock
}

func TestOperationRepository(t *testing.T) {
	repo := NewOperationRepository(setupSQLite(t))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	exit := 0
	for i := 0; i < 3; i++ {
		kind := models.OperationKindStack
		if i == 1 {
			kind = models.OperationKindGit
		}
		require.NoError(t, repo.Record(ctx, &models.Operation{
			Kind:      kind,
			Operation: "start",
			Services:  models.StringArray{"afro-web"},
			Success:   true,
			ExitCode:  &exit,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")
	assert.Len(t, all[0].ID, 36)
	assert.Equal(t, models.StringArray{"afro-web"}, all[0].Services)
	require.NotNil(t, all[0].ExitCode)

	git, err := repo.List(ctx, models.OperationKindGit, 10)
	require.NoError(t, err)
	require.Len(t, git, 1)
	assert.Equal(t, models.OperationKindGit, git[0].Kind)
}

func TestOperationRepository_RecordError(t *testing.T) {
	db, mock := setupPostgresMock(t)
	repo := NewOperationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "operations"`)).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), &models.Operation{Kind: models.OperationKindStack, Operation: "stop"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseOperation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_Recent(t *testing.T) {
	repo := NewConversationRepository(setupSQLite(t))
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, msg := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &models.Conversation{
			Message:       msg,
			Response:      "answer " + msg,
			NetworkStatus: models.JSONMap{"mainnet": map[string]interface{}{"rpc": true}},
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Message, "oldest of the window first")
	assert.Equal(t, "third", recent[1].Message)
	assert.Contains(t, recent[1].NetworkStatus, "mainnet")
}

func TestProposalRepository(t *testing.T) {
	repo := NewProposalRepository(setupSQLite(t))
	ctx := context.Background()

	p := &models.Proposal{
		ID:       uuid.NewString(),
		Title:    "Add M-Pesa bridge",
		Priority: "high",
		Status:   models.ProposalDraft,
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Create(ctx, &models.Proposal{ID: uuid.NewString(), Title: "Other", Status: models.ProposalOpen}))

	drafts, err := repo.List(ctx, models.ProposalDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, p.ID, drafts[0].ID)

	updated, err := repo.Update(ctx, p.ID, map[string]interface{}{"status": models.ProposalApproved, "title": "Bridge"})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalApproved, updated.Status)
	assert.Equal(t, "Bridge", updated.Title)
	assert.Equal(t, "high", updated.Priority)

	_, err = repo.Update(ctx, "missing", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAgenticProposalRepository_Publish(t *testing.T) {
	db := setupSQLite(t)
	repo := NewAgenticProposalRepository(db)
	proposals := NewProposalRepository(db)
	ctx := context.Background()

	draft := &models.AgenticProposal{
		ID:     uuid.NewString(),
		Topic:  "validator rewards",
		Title:  "Rebalance validator rewards",
		Body:   "...",
		Status: models.AgenticDraft,
	}
	require.NoError(t, repo.Create(ctx, draft))

	proposal := &models.Proposal{ID: uuid.NewString(), Title: draft.Title, Status: models.ProposalOpen, Source: "agentic"}
	published, err := repo.Publish(ctx, draft.ID, proposal, &models.IssueRef{Number: 12, URL: "https://example/12"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.AgenticPublished, published.Status)
	assert.Equal(t, proposal.ID, published.ProposalID)
	require.NotNil(t, published.IssueNumber)
	assert.Equal(t, 12, *published.IssueNumber)

	stored, err := proposals.GetByID(ctx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalOpen, stored.Status)

	again := &models.Proposal{ID: uuid.NewString(), Title: draft.Title, Status: models.ProposalOpen}
	_, err = repo.Publish(ctx, draft.ID, again, nil, time.Now())
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	_, err = proposals.GetByID(ctx, again.ID)
	assert.ErrorIs(t, err, ErrNotFound, "second publish creates nothing")

	_, err = repo.Publish(ctx, "missing", &models.Proposal{ID: uuid.NewString(), Title: "x", Status: models.ProposalOpen}, nil, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncidentRepository(t *testing.T) {
	repo := NewIncidentRepository(setupSQLite(t))
	ctx := context.Background()

	open, err := repo.FindOpen(ctx, "mainnet")
	require.NoError(t, err)
	assert.Nil(t, open)

	incident := &models.Incident{Network: "mainnet", Details: models.JSONMap{"rpc": false}, OpenedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, incident))
	require.NotZero(t, incident.ID)

	open, err = repo.FindOpen(ctx, "mainnet")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, incident.ID, open.ID)

	none, err := repo.FindOpen(ctx, "testnet")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.Resolve(ctx, incident.ID, time.Now().UTC()))
	assert.ErrorIs(t, repo.Resolve(ctx, incident.ID, time.Now().UTC()), ErrNotFound)

	open, err = repo.FindOpen(ctx, "mainnet")
	require.NoError(t, err)
	assert.Nil(t, open)

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Open())
}
