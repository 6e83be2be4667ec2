package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

// MessageRepository defines data operations for direct messages.
type MessageRepository interface {
	GetByID(ctx context.Context, id uint) (models.Message, error)
	// Conversation returns all messages exchanged between two users in
	// chronological order.
	Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error)
	Create(ctx context.Context, message *models.Message) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository instantiates the repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Preload("Sender").
		Preload("Receiver")
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := r.baseQuery(ctx).First(&message, id).Error; err != nil {
		return models.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	var messages []models.Message
	if err := r.baseQuery(ctx).
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userA, userB).
				Or("sender_id = ? AND receiver_id = ?", userB, userA),
		).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}
