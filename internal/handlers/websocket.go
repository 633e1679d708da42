package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/delwarHosen/pop-chat-server/internal/database"
	"github.com/delwarHosen/pop-chat-server/internal/middleware"
	"github.com/delwarHosen/pop-chat-server/internal/ws"
)

// WebSocketHandler upgrades authenticated requests to persistent connections.
type WebSocketHandler struct {
	hub      *ws.Hub
	db       *database.Database
	events   *EventRouter
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, db *database.Database, events *EventRouter) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		db:     db,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin in prod
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(uuid.UUID))

	h.hub.Register(client)
	h.joinUserRooms(client)

	go client.WritePump()
	go client.ReadPump(h.events)
}

// joinUserRooms subscribes the connection to every conversation the user
// already belongs to. Safe to repeat; this is also how a returning user picks
// up conversations created while offline.
func (h *WebSocketHandler) joinUserRooms(client *ws.Client) {
	ids, err := h.db.ConversationIDsForUser(client.UserID)
	if err != nil {
		log.Printf("Failed to join rooms for user %s: %v", client.UserID, err)
		return
	}

	for _, id := range ids {
		h.hub.JoinRoom(client, id)
	}
}
