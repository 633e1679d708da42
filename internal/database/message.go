package database

import (
	"log"
	"time"

	"github.com/delwarHosen/pop-chat-server/internal/models"
	"github.com/google/uuid"
)

// AppendMessage stores a message and bumps the conversation's last-message
// pointer. A dangling conversation reference is rejected before anything is
// written. The pointer update is sequenced strictly after the append; if it
// fails the append still stands and the failure is only logged.
func (d *Database) AppendMessage(message *models.Message) error {
	var conv models.Conversation
	if err := d.db.First(&conv, "id = ?", message.ConversationID).Error; err != nil {
		return err
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	if err := d.db.Create(message).Error; err != nil {
		return err
	}

	err := d.db.Model(&models.Conversation{}).
		Where("id = ?", message.ConversationID).
		Updates(map[string]interface{}{
			"last_message_id": message.ID,
			"updated_at":      message.CreatedAt,
		}).Error
	if err != nil {
		log.Printf("Failed to update last message pointer for conversation %s: %v", message.ConversationID, err)
	}

	return nil
}

// GetConversationMessages returns history newest-first, ordered by creation
// time with the id as a stable tie-break, sender resolved for display.
func (d *Database) GetConversationMessages(conversationID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	query := d.db.Where("conversation_id = ?", conversationID)

	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}
