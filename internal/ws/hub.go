package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is an incoming client intent. Replies echo the event name.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply is the outgoing envelope for acknowledgments, errors and broadcasts.
type Reply struct {
	Event   string      `json:"event"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[uuid.UUID]bool
	Hub    *Hub
	mu     sync.RWMutex
}

// Hub is the process-local connection registry: which connections belong to
// which user, and which rooms each connection listens to.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Connections per UserID; one user may hold several at once.
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Connections per conversation room.
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

// Unregister removes the connection from every room before closing its Send
// channel, so nothing is delivered to it afterwards. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	client.mu.RLock()
	rooms := make([]uuid.UUID, 0, len(client.Rooms))
	for roomID := range client.Rooms {
		rooms = append(rooms, roomID)
	}
	client.mu.RUnlock()

	for _, roomID := range rooms {
		h.removeFromRoomUnsafe(client, roomID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// JoinRoom adds the connection to a room. Idempotent.
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.joinRoomUnsafe(client, roomID)
}

// JoinUser adds every currently-connected session of the user to a room.
// Called when a conversation gains a participant, so the creation event
// reaches sessions that predate it; offline users resync on next connect.
func (h *Hub) JoinUser(userID uuid.UUID, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		h.joinRoomUnsafe(client, roomID)
	}
}

// LeaveRoom removes the connection from a room. Idempotent.
func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) joinRoomUnsafe(client *Client, roomID uuid.UUID) {
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()

	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// BroadcastToRoom delivers an event to every connection joined to the room.
func (h *Hub) BroadcastToRoom(roomID uuid.UUID, event string, payload interface{}) error {
	data, err := json.Marshal(Reply{Event: event, Success: true, Data: payload})
	if err != nil {
		return err
	}
	h.SendToRoom(roomID, data)
	return nil
}

func (h *Hub) SendToRoom(roomID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// SendToUser delivers to every connection mapped to the user, so multi-device
// sessions never miss a delivery.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}
