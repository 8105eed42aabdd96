// Package ceo implements the CEO agent features: chat with the LLM,
// conversation history, proposals and LLM drafted proposals.
//
// None of these features touch the stack packages. A failing LLM, GitHub or
// database only fails the calling endpoint.
package ceo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/database/repositories"
	"github.com/afro-network/ceo-agent/internal/github"
	"github.com/afro-network/ceo-agent/internal/models"
)

const (
	// ConversationHistory is the number of conversations returned by Conversations
	ConversationHistory = 50

	issueTitleChars = 50
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrAlreadyPublished = errors.New("proposal already published")
	ErrInvalidStatus    = errors.New("invalid proposal status")
	ErrIssueTracker     = errors.New("issue tracker request failed")
	ErrEmptyMessage     = errors.New("message is required")
)

var (
	chatIssueLabels     = []string{"auto-generated", "ceo-identified"}
	proposalIssueLabels = []string{"proposal", "agentic"}
	issueKeywords       = []string{"issue", "problem", "bug"}
)

// Generator answers questions with the agent persona
type Generator interface {
	Ask(ctx context.Context, question, extraContext string) (string, error)
	Model() string
}

// StatusSource reports the network status
type StatusSource interface {
	Status(ctx context.Context) models.NetworkStatus
}

// IssueCreator files GitHub issues
type IssueCreator interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (*models.IssueRef, error)
}

// ConversationStore persists chat exchanges
type ConversationStore interface {
	Create(ctx context.Context, c *models.Conversation) error
	Recent(ctx context.Context, n int) ([]models.Conversation, error)
}

// ProposalStore persists regular proposals
type ProposalStore interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	List(ctx context.Context, status models.ProposalStatus) ([]models.Proposal, error)
	Update(ctx context.Context, id string, changes map[string]interface{}) (*models.Proposal, error)
}

// AgenticStore persists LLM drafted proposals
type AgenticStore interface {
	Create(ctx context.Context, p *models.AgenticProposal) error
	GetByID(ctx context.Context, id string) (*models.AgenticProposal, error)
	List(ctx context.Context) ([]models.AgenticProposal, error)
	Publish(ctx context.Context, id string, proposal *models.Proposal, issue *models.IssueRef, at time.Time) (*models.AgenticProposal, error)
}

// Config holds the collaborators of a Service
type Config struct {
	LLM           Generator
	Status        StatusSource
	Issues        IssueCreator
	Conversations ConversationStore
	Proposals     ProposalStore
	Agentic       AgenticStore
	Logger        *logrus.Logger

	// Now is used for timestamps; defaults to time.Now
	Now func() time.Time
}

// Service implements the CEO agent operations
type Service struct {
	llm           Generator
	status        StatusSource
	issues        IssueCreator
	conversations ConversationStore
	proposals     ProposalStore
	agentic       AgenticStore
	logger        *logrus.Logger
	now           func() time.Time
}

// NewService creates a Service. LLM, Status and every store are required.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.LLM == nil:
		return nil, errors.New("llm generator is required")
	case cfg.Status == nil:
		return nil, errors.New("status source is required")
	case cfg.Conversations == nil || cfg.Proposals == nil || cfg.Agentic == nil:
		return nil, errors.New("conversation, proposal and agentic stores are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		llm:           cfg.LLM,
		status:        cfg.Status,
		issues:        cfg.Issues,
		conversations: cfg.Conversations,
		proposals:     cfg.Proposals,
		agentic:       cfg.Agentic,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}, nil
}

// NetworkStatus probes the mainnet and testnet endpoints
func (s *Service) NetworkStatus(ctx context.Context) models.NetworkStatus {
	return s.status.Status(ctx)
}

// Chat asks the LLM with the current network status appended to the caller's
// context. The exchange is stored and, when the answer mentions a problem, a
// GitHub issue is filed. Storage and GitHub failures are logged only.
func (s *Service) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	status := s.status.Status(ctx)
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("failed to encode network status: %w", err)
	}
	fullContext := fmt.Sprintf("%s\n\nCURRENT NETWORK STATUS: %s", req.Context, statusJSON)

	answer, err := s.llm.Ask(ctx, req.Message, fullContext)
	if err != nil {
		return nil, err
	}

	resp := &models.ChatResponse{
		Response:      answer,
		NetworkStatus: status,
		Timestamp:     s.now().UTC(),
	}

	if mentionsIssue(answer) {
		resp.Issue = s.fileChatIssue(ctx, req.Message, answer, status)
	}

	conv := &models.Conversation{
		Message:       req.Message,
		Context:       req.Context,
		Response:      answer,
		NetworkStatus: status.AsMap(),
		CreatedAt:     resp.Timestamp,
	}
	if resp.Issue != nil {
		conv.IssueNumber = &resp.Issue.Number
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		s.logger.WithError(err).Error("Failed to save conversation")
	}

	return resp, nil
}

func (s *Service) fileChatIssue(ctx context.Context, message, answer string, status models.NetworkStatus) *models.IssueRef {
	if s.issues == nil {
		return nil
	}

	pretty, _ := json.MarshalIndent(status, "", "  ")
	title := fmt.Sprintf("CEO Agent Issue: %s...", truncateRunes(message, issueTitleChars))
	body := fmt.Sprintf("**Original Question:** %s\n\n**CEO Response:** %s\n\n**Network Status:** %s\n\n*This issue was automatically created by the CEO Agent.*",
		message, answer, pretty)

	issue, err := s.issues.CreateIssue(ctx, title, body, chatIssueLabels)
	if err != nil {
		if errors.Is(err, github.ErrGitHubNotConfigured) {
			s.logger.Debug("GitHub not configured, skipping issue creation")
		} else {
			s.logger.WithError(err).Error("Failed to create GitHub issue from chat")
		}
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"issue": issue.Number,
		"title": issue.Title,
	}).Info("Created GitHub issue from chat")
	return issue
}

// Conversations returns the most recent exchanges, oldest first
func (s *Service) Conversations(ctx context.Context) ([]models.Conversation, error) {
	return s.conversations.Recent(ctx, ConversationHistory)
}

func mentionsIssue(answer string) bool {
	lower := strings.ToLower(answer)
	for _, kw := range issueKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func newID() string {
	return uuid.New().String()
}

// mapStoreError converts repository errors to service errors
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrProposalNotFound
	case errors.Is(err, repositories.ErrAlreadyPublished):
		return ErrAlreadyPublished
	default:
		return err
	}
}
