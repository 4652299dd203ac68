package repository

import (
	"context"

	"sports-meetup/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrUnknownChannel is returned when a message references a channel that does
// not exist, e.g. because its event already expired.
var ErrUnknownChannel = errors.New("chat channel does not exist")

// CreateChatMessage appends a message in its own transaction
func (r *Repository) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(msg).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUnknownChannel
	}
	if err != nil {
		return errors.Wrap(err, "failed to store chat message")
	}
	return nil
}

// GetChatHistory returns a channel's messages oldest first. A positive limit
// keeps only the most recent messages.
func (r *Repository) GetChatHistory(ctx context.Context, channelID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	query := r.db.WithContext(ctx).Where("channel_id = ?", channelID)

	var messages []models.ChatMessage
	if limit <= 0 {
		err := query.Order("timestamp ASC").Order("id ASC").Find(&messages).Error
		if err != nil {
			return nil, errors.Wrap(err, "failed to load chat history")
		}
		return messages, nil
	}

	err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load chat history")
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetChatChannel retrieves a channel, returning gorm.ErrRecordNotFound when absent
func (r *Repository) GetChatChannel(ctx context.Context, channelID uuid.UUID) (*models.ChatChannel, error) {
	var channel models.ChatChannel
	if err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}
