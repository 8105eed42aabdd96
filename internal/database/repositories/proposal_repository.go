package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// ProposalRepository stores proposals
type ProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create stores a new proposal
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	return wrap(r.db.WithContext(ctx).Create(p).Error)
}

// GetByID returns a proposal or ErrNotFound
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	var p models.Proposal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, wrap(err)
	}
	return &p, nil
}

// List returns proposals newest first, optionally filtered by status
func (r *ProposalRepository) List(ctx context.Context, status models.ProposalStatus) ([]models.Proposal, error) {
	query := r.db.WithContext(ctx).Model(&models.Proposal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	proposals := make([]models.Proposal, 0)
	if err := query.Order("created_at desc").Find(&proposals).Error; err != nil {
		return nil, wrap(err)
	}
	return proposals, nil
}

// Update applies the given column changes and returns the updated proposal
func (r *ProposalRepository) Update(ctx context.Context, id string, changes map[string]interface{}) (*models.Proposal, error) {
	var out *models.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(&p).Updates(changes).Error; err != nil {
				return err
			}
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}
