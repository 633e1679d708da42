package database

import (
	"errors"
	"time"

	"github.com/delwarHosen/pop-chat-server/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// PairKey canonicalizes a direct pair: sorted ids joined with ":", so the
// argument order never affects conversation identity.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// FindOrCreateDirect returns the direct conversation for the pair, creating it
// if none exists. Uniqueness is enforced by the pair_key index, not by the
// lookup: two racing creators both attempt the insert, the loser gets a
// duplicate-key error and re-reads the winner's row. The second return value
// reports whether this call created the conversation.
func (d *Database) FindOrCreateDirect(a, b, createdBy uuid.UUID) (*models.Conversation, bool, error) {
	key := PairKey(a, b)

	conv, err := d.findDirectByKey(key)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	users, err := d.usersByID([]uuid.UUID{a, b})
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	created := &models.Conversation{
		Type:      models.ConversationDirect,
		PairKey:   &key,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(created).Error; err != nil {
			return err
		}
		return tx.Model(created).Association("Participants").Append(&users)
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race; the winner committed before our insert failed.
		conv, err := d.findDirectByKey(key)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	created.Participants = users
	return created, true, nil
}

// CreateGroup always creates; group conversations carry no uniqueness constraint.
func (d *Database) CreateGroup(participantIDs []uuid.UUID, name, avatar string, createdBy uuid.UUID) (*models.Conversation, error) {
	users, err := d.usersByID(participantIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &models.Conversation{
		Type:      models.ConversationGroup,
		Name:      name,
		Avatar:    avatar,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(conv).Error; err != nil {
			return err
		}
		return tx.Model(conv).Association("Participants").Append(&users)
	})
	if err != nil {
		return nil, err
	}

	conv.Participants = users
	return conv, nil
}

// ListForUser returns every conversation the user participates in, most
// recently updated first, with participants and the last-message preview
// resolved.
func (d *Database) ListForUser(userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := d.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Preload("Participants").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		Find(&convs).Error
	return convs, err
}

// ConversationIDsForUser powers room resync on connect.
func (d *Database) ConversationIDsForUser(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.
		Table("conversation_participants").
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

func (d *Database) GetConversation(id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.Preload("Participants").First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (d *Database) findDirectByKey(key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.
		Preload("Participants").
		First(&conv, "pair_key = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (d *Database) usersByID(ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := d.db.Find(&users, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrUserNotFound
	}
	return users, nil
}
