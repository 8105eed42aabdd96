package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// AgenticProposalRepository stores LLM drafted proposals
type AgenticProposalRepository struct {
	db *gorm.DB
}

// NewAgenticProposalRepository creates a new agentic proposal repository
func NewAgenticProposalRepository(db *gorm.DB) *AgenticProposalRepository {
	return &AgenticProposalRepository{db: db}
}

// Create stores a draft
func (r *AgenticProposalRepository) Create(ctx context.Context, p *models.AgenticProposal) error {
	return wrap(r.db.WithContext(ctx).Create(p).Error)
}

// GetByID returns a draft or ErrNotFound
func (r *AgenticProposalRepository) GetByID(ctx context.Context, id string) (*models.AgenticProposal, error) {
	var p models.AgenticProposal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// List returns every agentic proposal newest first
func (r *AgenticProposalRepository) List(ctx context.Context) ([]models.AgenticProposal, error) {
	proposals := make([]models.AgenticProposal, 0)
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&proposals).Error; err != nil {
		return nil, wrap(err)
	}
	return proposals, nil
}

// Publish marks the draft published and creates the regular proposal in one
// transaction. A draft that is already published gives ErrAlreadyPublished.
func (r *AgenticProposalRepository) Publish(ctx context.Context, id string, proposal *models.Proposal, issue *models.IssueRef, at time.Time) (*models.AgenticProposal, error) {
	var out models.AgenticProposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := map[string]interface{}{
			"status":       models.AgenticPublished,
			"proposal_id":  proposal.ID,
			"published_at": at,
		}
		if issue != nil {
			changes["issue_number"] = issue.Number
			changes["issue_url"] = issue.URL
		}

		res := tx.Model(&models.AgenticProposal{}).
			Where("id = ? AND status = ?", id, models.AgenticDraft).
			Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.AgenticProposal{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrAlreadyPublished
		}

		if err := tx.Create(proposal).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if errors.Is(err, ErrAlreadyPublished) {
		return nil, err
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}
