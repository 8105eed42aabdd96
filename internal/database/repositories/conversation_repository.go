package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/afro-network/ceo-agent/internal/models"
)

// ConversationRepository stores chat exchanges
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create stores a conversation
func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	return wrap(r.db.WithContext(ctx).Create(c).Error)
}

// Recent returns the last n conversations, oldest first
func (r *ConversationRepository) Recent(ctx context.Context, n int) ([]models.Conversation, error) {
	conversations := make([]models.Conversation, 0, n)
	err := r.db.WithContext(ctx).
		Order("created_at desc").Order("id desc").
		Limit(n).
		Find(&conversations).Error
	if err != nil {
		return nil, wrap(err)
	}

	for i, j := 0, len(conversations)-1; i < j; i, j = i+1, j-1 {
		conversations[i], conversations[j] = conversations[j], conversations[i]
	}
	return conversations, nil
}
