package ceo

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afro-network/ceo-agent/internal/database"
	"github.com/afro-network/ceo-agent/internal/database/repositories"
	"github.com/afro-network/ceo-agent/internal/github"
	"github.com/afro-network/ceo-agent/internal/llm"
	"github.com/afro-network/ceo-agent/internal/models"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Ask(ctx context.Context, question, extraContext string) (string, error) {
	args := m.Called(ctx, question, extraContext)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Model() string { return "llama3" }

type mockIssues struct {
	mock.Mock
}

func (m *mockIssues) CreateIssue(ctx context.Context, title, body string, labels []string) (*models.IssueRef, error) {
	args := m.Called(ctx, title, body, labels)
	if ref, ok := args.Get(0).(*models.IssueRef); ok {
		return ref, args.Error(1)
	}
	return nil, args.Error(1)
}

type fixedStatus struct {
	status models.NetworkStatus
}

func (f fixedStatus) Status(context.Context) models.NetworkStatus { return f.status }

type failingConversations struct{}

func (failingConversations) Create(context.Context, *models.Conversation) error {
	return repositories.ErrDatabaseOperation
}

func (failingConversations) Recent(context.Context, int) ([]models.Conversation, error) {
	return nil, repositories.ErrDatabaseOperation
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	llm    *mockLLM
	issues *mockIssues
	db     *gorm.DB
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ceo.db")), &gorm.Config{
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

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{llm: new(mockLLM), issues: new(mockIssues), db: db}
	cfg := Config{
		LLM: f.llm,
		Status: fixedStatus{models.NetworkStatus{
			Mainnet:   models.EndpointStatus{RPC: true, Explorer: true},
			Testnet:   models.EndpointStatus{RPC: false, Explorer: true},
			Timestamp: testNow,
		}},
		Issues:        f.issues,
		Conversations: repositories.NewConversationRepository(db),
		Proposals:     repositories.NewProposalRepository(db),
		Agentic:       repositories.NewAgenticProposalRepository(db),
		Logger:        log,
		Now:           func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	f.svc, err = NewService(cfg)
	require.NoError(t, err)
	return f
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)

	_, err = NewService(Config{LLM: new(mockLLM), Status: fixedStatus{}})
	assert.Error(t, err)
}

func TestChat_NoIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.llm.On("Ask", mock.Anything, "How is the network?", mock.MatchedBy(func(c string) bool {
		return strings.HasPrefix(c, "weekly review\n\nCURRENT NETWORK STATUS: ") &&
			strings.Contains(c, `"testnet":{"rpc":false,"explorer":true}`)
	})).Return("Everything looks healthy.", nil).Once()

	resp, err := f.svc.Chat(ctx, models.ChatRequest{Message: "How is the network?", Context: "weekly review"})
	require.NoError(t, err)
	assert.Equal(t, "Everything looks healthy.", resp.Response)
	assert.True(t, resp.NetworkStatus.Mainnet.Healthy())
	assert.Nil(t, resp.Issue)
	assert.Equal(t, testNow, resp.Timestamp)

	convs, err := f.svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "How is the network?", convs[0].Message)
	assert.Nil(t, convs[0].IssueNumber)

	f.llm.AssertExpectations(t)
	f.issues.AssertNotCalled(t, "CreateIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_FilesIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	message := "Why is the testnet RPC not answering since the last upgrade of the validator?"

	f.llm.On("Ask", mock.Anything, message, mock.Anything).
		Return("There is a Problem with the testnet validator.", nil)
	f.issues.On("CreateIssue", mock.Anything,
		"CEO Agent Issue: "+message[:50]+"...",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "**Original Question:** "+message) &&
				strings.HasSuffix(body, "*This issue was automatically created by the CEO Agent.*")
		}),
		[]string{"auto-generated", "ceo-identified"},
	).Return(&models.IssueRef{Number: 12, URL: "https://github.com/afro-network/afro-chain/issues/12"}, nil).Once()

	resp, err := f.svc.Chat(ctx, models.ChatRequest{Message: message})
	require.NoError(t, err)
	require.NotNil(t, resp.Issue)
	assert.Equal(t, 12, resp.Issue.Number)

	convs, err := f.svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.NotNil(t, convs[0].IssueNumber)
	assert.Equal(t, 12, *convs[0].IssueNumber)
	f.issues.AssertExpectations(t)
}

func TestChat_IssueFailuresAreIgnored(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", github.ErrGitHubNotConfigured},
		{"api error", github.ErrGitHubRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.llm.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return("found a bug", nil)
			f.issues.On("CreateIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			resp, err := f.svc.Chat(context.Background(), models.ChatRequest{Message: "status?"})
			require.NoError(t, err)
			assert.Nil(t, resp.Issue)
			assert.Equal(t, "found a bug", resp.Response)
		})
	}
}

func TestChat_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Chat(context.Background(), models.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	f.llm.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.Join(llm.ErrLLMUnavailable, errors.New("connection refused")))
	_, err = f.svc.Chat(context.Background(), models.ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, llm.ErrLLMUnavailable)
}

func TestChat_StoreFailureIsLogged(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.Conversations = failingConversations{} })
	f.llm.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return("all good", nil)

	resp, err := f.svc.Chat(context.Background(), models.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "all good", resp.Response)

	_, err = f.svc.Conversations(context.Background())
	assert.ErrorIs(t, err, repositories.ErrDatabaseOperation)
}

func TestProposals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProposal(ctx, models.ProposalCreateRequest{
		Title:    "  Add a second testnet validator ",
		Category: "infrastructure",
	})
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.Equal(t, "Add a second testnet validator", p.Title)
	assert.Equal(t, models.ProposalDraft, p.Status)
	assert.Equal(t, "medium", p.Priority)

	status := "approved"
	priority := "high"
	updated, err := f.svc.UpdateProposal(ctx, p.ID, models.ProposalUpdateRequest{Status: &status, Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalApproved, updated.Status)
	assert.Equal(t, "high", updated.Priority)
	assert.Equal(t, "infrastructure", updated.Category)

	unchanged, err := f.svc.UpdateProposal(ctx, p.ID, models.ProposalUpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalApproved, unchanged.Status)

	list, err := f.svc.ListProposals(ctx, "approved")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.ListProposals(ctx, "draft")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.ListProposals(ctx, "pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	bad := "merged"
	_, err = f.svc.UpdateProposal(ctx, p.ID, models.ProposalUpdateRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateProposal(ctx, "missing", models.ProposalUpdateRequest{Status: &status})
	assert.ErrorIs(t, err, ErrProposalNotFound)

	_, err = f.svc.UpdateProposal(ctx, "missing", models.ProposalUpdateRequest{})
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestGenerateAndPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.llm.On("Ask", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "about: mobile money onboarding")
	}), "operators asked for it").
		Return("Title: Faster mobile money onboarding\n\nProblem: signup takes too long.", nil)

	draft, err := f.svc.GenerateProposal(ctx, models.GenerateProposalRequest{
		Topic:   "mobile money onboarding",
		Context: "operators asked for it",
	})
	require.NoError(t, err)
	assert.Equal(t, "Faster mobile money onboarding", draft.Title)
	assert.Equal(t, "Problem: signup takes too long.", draft.Body)
	assert.Equal(t, models.AgenticDraft, draft.Status)
	assert.Equal(t, "llama3", draft.Model)

	f.issues.On("CreateIssue", mock.Anything, "Faster mobile money onboarding", mock.Anything, []string{"proposal", "agentic"}).
		Return(&models.IssueRef{Number: 7, URL: "https://github.com/afro-network/afro-chain/issues/7"}, nil).Once()

	resp, err := f.svc.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgenticPublished, resp.AgenticProposal.Status)
	require.NotNil(t, resp.AgenticProposal.IssueNumber)
	assert.Equal(t, 7, *resp.AgenticProposal.IssueNumber)
	assert.Equal(t, resp.Proposal.ID, resp.AgenticProposal.ProposalID)
	assert.Equal(t, models.ProposalOpen, resp.Proposal.Status)

	open, err := f.svc.ListProposals(ctx, "open")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "agentic", open[0].Source)

	_, err = f.svc.Publish(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrAlreadyPublished)

	_, err = f.svc.Publish(ctx, "missing")
	assert.ErrorIs(t, err, ErrProposalNotFound)

	f.issues.AssertNumberOfCalls(t, "CreateIssue", 1)
}

func TestPublish_GitHub(t *testing.T) {
	t.Run("not configured publishes without issue", func(t *testing.T) {
		f := newFixture(t)
		f.llm.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return("# Stake rewards\nbody", nil)
		f.issues.On("CreateIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, github.ErrGitHubNotConfigured)

		draft, err := f.svc.GenerateProposal(context.Background(), models.GenerateProposalRequest{Topic: "staking"})
		require.NoError(t, err)
		assert.Equal(t, "Stake rewards", draft.Title)

		resp, err := f.svc.Publish(context.Background(), draft.ID)
		require.NoError(t, err)
		assert.Nil(t, resp.Issue)
		assert.Nil(t, resp.AgenticProposal.IssueNumber)
	})

	t.Run("api failure keeps the draft", func(t *testing.T) {
		f := newFixture(t)
		f.llm.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return("no heading here", nil)
		f.issues.On("CreateIssue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, github.ErrGitHubRequest)

		draft, err := f.svc.GenerateProposal(context.Background(), models.GenerateProposalRequest{Topic: "bridges"})
		require.NoError(t, err)
		assert.Equal(t, "Proposal: bridges", draft.Title)

		_, err = f.svc.Publish(context.Background(), draft.ID)
		assert.ErrorIs(t, err, ErrIssueTracker)

		list, err := f.svc.ListAgentic(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.AgenticDraft, list[0].Status)
	})
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantBody  string
	}{
		{"title line", "Title: Bridge fees\nLower them.", "Bridge fees", "Lower them."},
		{"quoted title", "title: \"Bridge fees\"\nLower them.", "Bridge fees", "Lower them."},
		{"heading after preamble", "Sure!\n# Bridge fees\nLower them.", "Bridge fees", "Sure!\nLower them."},
		{"no title", "Lower them.", "Proposal: fees", "Lower them."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := parseDraft(tt.text, "fees")
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
