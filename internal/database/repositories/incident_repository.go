package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// IncidentRepository stores network outages
type IncidentRepository struct {
	db *gorm.DB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// FindOpen returns the unresolved incident of a network, or nil
func (r *IncidentRepository) FindOpen(ctx context.Context, network string) (*models.Incident, error) {
	var incident models.Incident
	err := r.db.WithContext(ctx).
		Where("network = ? AND resolved_at IS NULL", network).
		Order("opened_at desc").
		First(&incident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &incident, nil
}

// Create stores a new incident
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	return wrap(r.db.WithContext(ctx).Create(incident).Error)
}

// Resolve closes an incident
func (r *IncidentRepository) Resolve(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", at)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the most recent incidents
func (r *IncidentRepository) List(ctx context.Context, limit int) ([]models.Incident, error) {
	if limit <= 0 {
		limit = 50
	}
	incidents := make([]models.Incident, 0)
	if err := r.db.WithContext(ctx).Order("opened_at desc").Limit(limit).Find(&incidents).Error; err != nil {
		return nil, wrap(err)
	}
	return incidents, nil
}
