package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// DefaultOperationLimit is the history size returned when no limit is given
const DefaultOperationLimit = 100

// OperationRepository stores the operation history
type OperationRepository struct {
	db *gorm.DB
}

// NewOperationRepository creates a new operation repository
func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// Record stores an executed operation
func (r *OperationRepository) Record(ctx context.Context, op *models.Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	return wrap(r.db.WithContext(ctx).Create(op).Error)
}

// List returns the newest operations first, optionally filtered by kind
func (r *OperationRepository) List(ctx context.Context, kind models.OperationKind, limit int) ([]models.Operation, error) {
	if limit <= 0 || limit > DefaultOperationLimit {
		limit = DefaultOperationLimit
	}

	query := r.db.WithContext(ctx).Model(&models.Operation{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	ops := make([]models.Operation, 0)
	if err := query.Order("created_at desc").Limit(limit).Find(&ops).Error; err != nil {
		return nil, wrap(err)
	}
	return ops, nil
}
