package ceo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/github"
	"github.com/afro-network/ceo-agent/internal/models"
)

const (
	defaultPriority = "medium"
	maxTitleLength  = 255

	sourceManual  = "manual"
	sourceAgentic = "agentic"
)

// ListProposals returns proposals, optionally filtered by status
func (s *Service) ListProposals(ctx context.Context, status string) ([]models.Proposal, error) {
	if status != "" && !models.IsValidProposalStatus(models.ProposalStatus(status)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.proposals.List(ctx, models.ProposalStatus(status))
}

// CreateProposal stores a new draft proposal
func (s *Service) CreateProposal(ctx context.Context, req models.ProposalCreateRequest) (*models.Proposal, error) {
	priority := req.Priority
	if priority == "" {
		priority = defaultPriority
	}

	p := &models.Proposal{
		ID:          newID(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      models.ProposalDraft,
		Source:      sourceManual,
	}
	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":    p.ID,
		"title": p.Title,
	}).Info("Proposal created")
	return p, nil
}

// UpdateProposal applies the non-nil fields of req
func (s *Service) UpdateProposal(ctx context.Context, id string, req models.ProposalUpdateRequest) (*models.Proposal, error) {
	changes := make(map[string]interface{})
	if req.Title != nil {
		changes["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Category != nil {
		changes["category"] = *req.Category
	}
	if req.Priority != nil {
		changes["priority"] = *req.Priority
	}
	if req.Status != nil {
		status := models.ProposalStatus(*req.Status)
		if !models.IsValidProposalStatus(status) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		changes["status"] = status
	}

	if len(changes) == 0 {
		p, err := s.proposals.GetByID(ctx, id)
		return p, mapStoreError(err)
	}

	p, err := s.proposals.Update(ctx, id, changes)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return p, nil
}

// GenerateProposal asks the LLM for a proposal draft on topic
func (s *Service) GenerateProposal(ctx context.Context, req models.GenerateProposalRequest) (*models.AgenticProposal, error) {
	prompt := fmt.Sprintf(`Draft an improvement proposal for Afro Network about: %s

Start with a line "Title: <short title>", then describe the problem, the proposed change, the expected impact on mainnet and testnet, and the next steps.`, req.Topic)

	body, err := s.llm.Ask(ctx, prompt, req.Context)
	if err != nil {
		return nil, err
	}

	title, rest := parseDraft(body, req.Topic)
	draft := &models.AgenticProposal{
		ID:      newID(),
		Topic:   req.Topic,
		Context: req.Context,
		Title:   title,
		Body:    rest,
		Model:   s.llm.Model(),
		Status:  models.AgenticDraft,
	}
	if err := s.agentic.Create(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":    draft.ID,
		"topic": draft.Topic,
		"model": draft.Model,
	}).Info("Agentic proposal drafted")
	return draft, nil
}

// ListAgentic returns every agentic proposal, newest first
func (s *Service) ListAgentic(ctx context.Context) ([]models.AgenticProposal, error) {
	return s.agentic.List(ctx)
}

// Publish files an issue for the draft, when GitHub is configured, and turns
// it into an open proposal. A GitHub failure leaves the draft untouched.
func (s *Service) Publish(ctx context.Context, id string) (*models.PublishResponse, error) {
	draft, err := s.agentic.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if draft.Status == models.AgenticPublished {
		return nil, ErrAlreadyPublished
	}

	var issue *models.IssueRef
	if s.issues != nil {
		body := fmt.Sprintf("%s\n\n**Topic:** %s\n\n*This proposal was drafted by the CEO Agent (%s).*",
			draft.Body, draft.Topic, draft.Model)
		issue, err = s.issues.CreateIssue(ctx, draft.Title, body, proposalIssueLabels)
		switch {
		case errors.Is(err, github.ErrGitHubNotConfigured):
			issue = nil
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrIssueTracker, err)
		}
	}

	proposal := &models.Proposal{
		ID:          newID(),
		Title:       draft.Title,
		Description: draft.Body,
		Category:    sourceAgentic,
		Priority:    defaultPriority,
		Status:      models.ProposalOpen,
		Source:      sourceAgentic,
	}
	if issue != nil {
		proposal.IssueNumber = &issue.Number
		proposal.IssueURL = issue.URL
	}

	published, err := s.agentic.Publish(ctx, id, proposal, issue, s.now().UTC())
	if err != nil {
		return nil, mapStoreError(err)
	}

	fields := logrus.Fields{"id": id, "proposal_id": proposal.ID}
	if issue != nil {
		fields["issue"] = issue.Number
	}
	s.logger.WithFields(fields).Info("Agentic proposal published")

	return &models.PublishResponse{
		AgenticProposal: published,
		Proposal:        proposal,
		Issue:           issue,
	}, nil
}

// parseDraft takes the title from a "Title:" or markdown heading line and
// returns the remaining text as the body. Without one the title is derived
// from the topic.
func parseDraft(text, topic string) (string, string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		var title string
		switch {
		case strings.HasPrefix(strings.ToLower(trimmed), "title:"):
			title = strings.TrimSpace(trimmed[len("title:"):])
		case strings.HasPrefix(trimmed, "# "):
			title = strings.TrimSpace(trimmed[2:])
		default:
			continue
		}
		title = strings.Trim(title, "*\"")
		if title == "" {
			continue
		}
		rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
		return truncateRunes(title, maxTitleLength), strings.TrimSpace(strings.Join(rest, "\n"))
	}
	return truncateRunes("Proposal: "+strings.TrimSpace(topic), maxTitleLength), strings.TrimSpace(text)
}
