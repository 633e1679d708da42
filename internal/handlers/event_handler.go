package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delwarHosen/pop-chat-server/internal/database"
	"github.com/delwarHosen/pop-chat-server/internal/handlers/dto"
	"github.com/delwarHosen/pop-chat-server/internal/models"
	"github.com/delwarHosen/pop-chat-server/internal/ws"
	"github.com/delwarHosen/pop-chat-server/pkg/auth"
)

// Client-visible failure messages. The read loop sends the error text as the
// msg of a {success:false} reply, so these double as wire strings.
var (
	ErrInvalidData          = errors.New("Invalid data")
	ErrUnauthorized         = errors.New("Unauthorized")
	ErrUserNotFound         = errors.New("User not found")
	ErrConversationNotFound = errors.New("Conversation not found")
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// EventRouter dispatches client intents to the conversation directory,
// message log and profile operations.
type EventRouter struct {
	db         *database.Database
	hub        *ws.Hub
	jwtManager *auth.JWTManager
}

func NewEventRouter(db *database.Database, hub *ws.Hub, jwtManager *auth.JWTManager) *EventRouter {
	return &EventRouter{db: db, hub: hub, jwtManager: jwtManager}
}

func (h *EventRouter) HandleEvent(client *ws.Client, event *ws.Event) error {
	switch event.Name {
	case "newConversation":
		return h.handleNewConversation(client, event.Data)

	case "getConversations":
		return h.handleGetConversations(client)

	case "newMessage":
		return h.handleNewMessage(client, event.Data)

	case "getMessages":
		return h.handleGetMessages(client, event.Data)

	case "updateProfile":
		return h.handleUpdateProfile(client, event.Data)

	case "getContacts":
		return h.handleGetContacts(client)

	default:
		log.Printf("Unknown event: %s", event.Name)
		client.SendError(event.Name, "Unknown event")
		return nil
	}
}

func (h *EventRouter) handleNewConversation(client *ws.Client, data json.RawMessage) error {
	var payload dto.NewConversationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrInvalidData
	}

	participants := dedupe(payload.Participants)
	if !containsUser(participants, client.UserID) {
		return ErrInvalidData
	}

	var (
		conv  *models.Conversation
		isNew bool
		err   error
	)

	switch payload.Type {
	case models.ConversationDirect:
		if len(participants) != 2 {
			return ErrInvalidData
		}
		conv, isNew, err = h.db.FindOrCreateDirect(participants[0], participants[1], client.UserID)

	case models.ConversationGroup:
		if len(participants) < 2 {
			return ErrInvalidData
		}
		conv, err = h.db.CreateGroup(participants, payload.Name, payload.Avatar, client.UserID)
		isNew = true

	default:
		return ErrInvalidData
	}

	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return ErrUserNotFound
		}
		log.Printf("Failed to create conversation: %v", err)
		return errors.New("Failed to create conversation")
	}

	// Join every participant's currently-connected sessions before emitting,
	// so the creation event is not lost. Offline participants resync their
	// rooms on next connect.
	for _, p := range conv.Participants {
		h.hub.JoinUser(p.ID, conv.ID)
	}

	resp := conversationResponse(conv)
	resp.IsNew = &isNew

	if isNew {
		return h.hub.BroadcastToRoom(conv.ID, "newConversation", resp)
	}
	return client.SendReply("newConversation", resp)
}

func (h *EventRouter) handleGetConversations(client *ws.Client) error {
	convs, err := h.db.ListForUser(client.UserID)
	if err != nil {
		log.Printf("Failed to fetch conversations for %s: %v", client.UserID, err)
		return errors.New("Failed to fetch conversations")
	}

	resp := make([]dto.ConversationResponse, len(convs))
	for i := range convs {
		resp[i] = conversationResponse(&convs[i])
	}

	return client.SendReply("getConversations", resp)
}

func (h *EventRouter) handleNewMessage(client *ws.Client, data json.RawMessage) error {
	var payload dto.NewMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrInvalidData
	}

	if payload.ConversationID == uuid.Nil || (payload.Content == "" && payload.Attachment == "") {
		return ErrInvalidData
	}

	// Sender identity comes from the authenticated connection, never from
	// the payload.
	sender, err := h.db.GetUser(client.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		log.Printf("Failed to load sender %s: %v", client.UserID, err)
		return errors.New("Failed to send message")
	}

	message := &models.Message{
		ConversationID: payload.ConversationID,
		SenderID:       client.UserID,
		Content:        payload.Content,
		Attachment:     payload.Attachment,
		CreatedAt:      time.Now(),
	}

	if err := h.db.AppendMessage(message); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		log.Printf("Failed to save message: %v", err)
		return errors.New("Failed to send message")
	}

	resp := dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Content:        message.Content,
		Attachment:     message.Attachment,
		Sender:         userInfo(sender),
		CreatedAt:      message.CreatedAt,
	}

	// Broadcast only after the append is durable. The sender's connection is
	// in the room, so the broadcast doubles as its acknowledgment.
	return h.hub.BroadcastToRoom(message.ConversationID, "newMessage", resp)
}

func (h *EventRouter) handleGetMessages(client *ws.Client, data json.RawMessage) error {
	var payload dto.GetMessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrInvalidData
	}

	if payload.ConversationID == uuid.Nil {
		return ErrInvalidData
	}

	if _, err := h.db.GetConversation(payload.ConversationID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		log.Printf("Failed to load conversation %s: %v", payload.ConversationID, err)
		return errors.New("Failed to fetch messages")
	}

	if !client.IsInRoom(payload.ConversationID) {
		return ErrUnauthorized
	}

	limit := payload.Limit
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	messages, err := h.db.GetConversationMessages(payload.ConversationID, limit, payload.Before)
	if err != nil {
		log.Printf("Failed to fetch messages for %s: %v", payload.ConversationID, err)
		return errors.New("Failed to fetch messages")
	}

	resp := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		resp[i] = messageResponse(&messages[i])
	}

	return client.SendReply("getMessages", resp)
}

func (h *EventRouter) handleUpdateProfile(client *ws.Client, data json.RawMessage) error {
	var payload dto.UpdateProfilePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrInvalidData
	}

	user, err := h.db.GetUser(client.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		log.Printf("Failed to load user %s: %v", client.UserID, err)
		return errors.New("Failed to update profile")
	}

	if payload.Name != nil {
		user.Name = *payload.Name
	}
	if payload.Avatar != nil {
		user.Avatar = *payload.Avatar
	}

	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("Failed to update user %s: %v", client.UserID, err)
		return errors.New("Failed to update profile")
	}

	// The live session keeps its identity; the updated profile travels in a
	// fresh token.
	token, err := h.jwtManager.Generate(user.ID.String(), user.Name, user.Email, user.Avatar)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", client.UserID, err)
		return errors.New("Failed to update profile")
	}

	return client.SendReply("updateProfile", dto.TokenResponse{Token: token})
}

func (h *EventRouter) handleGetContacts(client *ws.Client) error {
	users, err := h.db.ListContacts(client.UserID.String())
	if err != nil {
		log.Printf("Failed to fetch contacts for %s: %v", client.UserID, err)
		return errors.New("Failed to fetch contacts")
	}

	resp := make([]dto.UserInfo, len(users))
	for i := range users {
		resp[i] = userInfo(&users[i])
	}

	return client.SendReply("getContacts", resp)
}

func userInfo(u *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

func messageResponse(m *models.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Attachment:     m.Attachment,
		Sender:         userInfo(&m.Sender),
		CreatedAt:      m.CreatedAt,
	}
}

func conversationResponse(c *models.Conversation) dto.ConversationResponse {
	participants := make([]dto.UserInfo, len(c.Participants))
	for i := range c.Participants {
		participants[i] = userInfo(&c.Participants[i])
	}

	resp := dto.ConversationResponse{
		ID:           c.ID,
		Type:         c.Type,
		Name:         c.Name,
		Avatar:       c.Avatar,
		Participants: participants,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	if c.LastMessage != nil {
		last := messageResponse(c.LastMessage)
		resp.LastMessage = &last
	}

	return resp
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func containsUser(ids []uuid.UUID, userID uuid.UUID) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}
