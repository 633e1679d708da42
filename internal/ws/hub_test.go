package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, userID uuid.UUID) *Client {
	// No underlying socket; tests read the Send channel directly.
	return NewClient(h, nil, userID)
}

// receive pops one queued frame without blocking; fails if none is queued.
func receive(t *testing.T, c *Client) Reply {
	t.Helper()

	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var reply Reply
		require.NoError(t, json.Unmarshal(data, &reply))
		return reply
	default:
		t.Fatal("no message queued")
		return Reply{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data, ok := <-c.Send:
		if ok {
			t.Fatalf("unexpected message: %s", data)
		}
	default:
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, uuid.New())
	h.Register(c)

	room := uuid.New()
	h.JoinRoom(c, room)
	h.JoinRoom(c, room)

	assert.Len(t, h.rooms[room], 1)
	assert.True(t, c.IsInRoom(room))
}

func TestLeaveRoomIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, uuid.New())
	h.Register(c)

	room := uuid.New()
	h.JoinRoom(c, room)
	h.LeaveRoom(c, room)
	h.LeaveRoom(c, room)

	assert.False(t, c.IsInRoom(room))
	assert.NotContains(t, h.rooms, room)
}

func TestBroadcastToRoomFanout(t *testing.T) {
	h := NewHub()
	alice, bob := uuid.New(), uuid.New()

	aliceDesk := newTestClient(h, alice)
	alicePhone := newTestClient(h, alice)
	bobDesk := newTestClient(h, bob)
	outsider := newTestClient(h, uuid.New())
	for _, c := range []*Client{aliceDesk, alicePhone, bobDesk, outsider} {
		h.Register(c)
	}

	room := uuid.New()
	h.JoinRoom(aliceDesk, room)
	h.JoinRoom(alicePhone, room)
	h.JoinRoom(bobDesk, room)

	require.NoError(t, h.BroadcastToRoom(room, "newMessage", map[string]string{"content": "hi"}))

	for _, c := range []*Client{aliceDesk, alicePhone, bobDesk} {
		reply := receive(t, c)
		assert.Equal(t, "newMessage", reply.Event)
		assert.True(t, reply.Success)
	}
	assertEmpty(t, outsider)
}

func TestJoinUserJoinsAllSessions(t *testing.T) {
	h := NewHub()
	alice := uuid.New()

	desk := newTestClient(h, alice)
	phone := newTestClient(h, alice)
	h.Register(desk)
	h.Register(phone)

	room := uuid.New()
	h.JoinUser(alice, room)

	assert.True(t, desk.IsInRoom(room))
	assert.True(t, phone.IsInRoom(room))

	// Unknown users are a no-op.
	h.JoinUser(uuid.New(), room)
	assert.Len(t, h.rooms[room], 2)
}

func TestSendToUserMultiDevice(t *testing.T) {
	h := NewHub()
	alice, bob := uuid.New(), uuid.New()

	desk := newTestClient(h, alice)
	phone := newTestClient(h, alice)
	other := newTestClient(h, bob)
	for _, c := range []*Client{desk, phone, other} {
		h.Register(c)
	}

	h.SendToUser(alice, []byte(`{"event":"ping","success":true}`))

	receive(t, desk)
	receive(t, phone)
	assertEmpty(t, other)
}

func TestUnregisterRemovesFromRooms(t *testing.T) {
	h := NewHub()
	staying := newTestClient(h, uuid.New())
	leaving := newTestClient(h, uuid.New())
	h.Register(staying)
	h.Register(leaving)

	room := uuid.New()
	h.JoinRoom(staying, room)
	h.JoinRoom(leaving, room)

	h.Unregister(leaving)
	h.Unregister(leaving) // safe to repeat

	require.NoError(t, h.BroadcastToRoom(room, "newMessage", nil))

	reply := receive(t, staying)
	assert.Equal(t, "newMessage", reply.Event)

	// The disconnected client's channel is closed and got nothing.
	_, ok := <-leaving.Send
	assert.False(t, ok)

	assert.NotContains(t, h.clients, leaving.ID)
	assert.NotContains(t, h.userClients, leaving.UserID)
}

func TestSendReplyAndError(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, uuid.New())
	h.Register(c)

	require.NoError(t, c.SendReply("getContacts", []string{}))
	reply := receive(t, c)
	assert.Equal(t, "getContacts", reply.Event)
	assert.True(t, reply.Success)

	c.SendError("newMessage", "Conversation not found")
	errReply := receive(t, c)
	assert.Equal(t, "newMessage", errReply.Event)
	assert.False(t, errReply.Success)
	assert.Equal(t, "Conversation not found", errReply.Msg)
}
