package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

type Conversation struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type string    `gorm:"not null;check:type IN ('direct','group')"`
	Name string
	// PairKey is the sorted "<idA>:<idB>" participant pair, set for direct
	// conversations only. The unique index is what enforces one direct
	// conversation per pair; NULL rows (groups) never collide.
	PairKey       *string `gorm:"uniqueIndex"`
	Avatar        string
	LastMessageID *uuid.UUID `gorm:"type:uuid"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Participants []User   `gorm:"many2many:conversation_participants"`
	LastMessage  *Message `gorm:"foreignKey:LastMessageID"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
