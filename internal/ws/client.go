package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB
)

// EventHandler processes one client intent. A returned error is reported to
// the originating connection only, as {success:false, msg} under the same
// event name.
type EventHandler interface {
	HandleEvent(client *Client, event *Event) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[uuid.UUID]bool),
		Hub:    hub,
	}
}

// ReadPump reads client intents in order. One read loop per connection keeps
// the per-connection ordering guarantee.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		err := c.Conn.ReadJSON(&event)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if event.Name == "" {
			c.SendError("error", ErrInvalidEvent.Error())
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &event); err != nil {
				log.Printf("Error handling %s event: %v", event.Name, err)
				c.SendError(event.Name, err.Error())
			}
		}
	}
}

// WritePump sends queued messages to the client and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush anything queued behind it
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendReply unicasts a successful response for the named event.
func (c *Client) SendReply(event string, data interface{}) error {
	return c.send(Reply{Event: event, Success: true, Data: data})
}

// SendError unicasts a failure response for the named event.
func (c *Client) SendError(event, msg string) {
	if err := c.send(Reply{Event: event, Success: false, Msg: msg}); err != nil {
		log.Printf("Failed to send error to client %s: %v", c.ID, err)
	}
}

func (c *Client) send(reply Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) IsInRoom(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}
