package dto

import (
	"time"

	"github.com/google/uuid"
)

// Incoming event payloads. Every payload is validated at the boundary before
// it reaches the store.

type NewConversationPayload struct {
	Type         string      `json:"type"`
	Participants []uuid.UUID `json:"participants"`
	Name         string      `json:"name"`
	Avatar       string      `json:"avatar"`
}

type NewMessagePayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
	Attachment     string    `json:"attachment"`
}

type GetMessagesPayload struct {
	ConversationID uuid.UUID  `json:"conversationId"`
	Limit          int        `json:"limit"`
	Before         *time.Time `json:"before"`
}

type UpdateProfilePayload struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// Outgoing response shapes.

type UserInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Avatar string    `json:"avatar,omitempty"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
	Attachment     string    `json:"attachment,omitempty"`
	Sender         UserInfo  `json:"sender"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ConversationResponse struct {
	ID           uuid.UUID        `json:"id"`
	Type         string           `json:"type"`
	Name         string           `json:"name"`
	Avatar       string           `json:"avatar,omitempty"`
	Participants []UserInfo       `json:"participants"`
	LastMessage  *MessageResponse `json:"lastMessage,omitempty"`
	CreatedBy    uuid.UUID        `json:"createdBy"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	IsNew        *bool            `json:"isNew,omitempty"`
}
