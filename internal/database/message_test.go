package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/delwarHosen/pop-chat-server/internal/models"
)

func TestAppendMessageUpdatesPointer(t *testing.T) {
	d := newTestDB(t)
	alice := seedUser(t, d, "alice")
	bob := seedUser(t, d, "bob")

	conv, _, err := d.FindOrCreateDirect(alice.ID, bob.ID, alice.ID)
	require.NoError(t, err)

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       alice.ID,
		Content:        "hi",
	}
	require.NoError(t, d.AppendMessage(msg))
	assert.False(t, msg.CreatedAt.IsZero())

	reloaded, err := d.GetConversation(conv.ID.String())
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastMessageID)
	assert.Equal(t, msg.ID, *reloaded.LastMessageID)

	// The pointer is immediately visible to listForUser reads.
	convs, err := d.ListForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, msg.ID, convs[0].LastMessage.ID)
}

func TestAppendMessageMissingConversation(t *testing.T) {
	d := newTestDB(t)
	alice := seedUser(t, d, "alice")

	msg := &models.Message{
		ConversationID: uuid.New(),
		SenderID:       alice.ID,
		Content:        "lost",
	}
	err := d.AppendMessage(msg)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHistoryNewestFirstWithTieBreak(t *testing.T) {
	d := newTestDB(t)
	alice := seedUser(t, d, "alice")
	bob := seedUser(t, d, "bob")

	conv, _, err := d.FindOrCreateDirect(alice.ID, bob.ID, alice.ID)
	require.NoError(t, err)

	base := time.Now().Truncate(time.Second)
	stamps := []time.Time{
		base,
		base.Add(time.Second),
		base.Add(2 * time.Second),
		base.Add(2 * time.Second), // deliberate tie
	}

	for _, ts := range stamps {
		require.NoError(t, d.AppendMessage(&models.Message{
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        "m",
			CreatedAt:      ts,
		}))
	}

	messages, err := d.GetConversationMessages(conv.ID, 10, nil)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	for i := 1; i < len(messages); i++ {
		prev, cur := messages[i-1], messages[i]
		assert.False(t, prev.CreatedAt.Before(cur.CreatedAt), "history must be newest-first")
		if prev.CreatedAt.Equal(cur.CreatedAt) {
			assert.Greater(t, prev.ID.String(), cur.ID.String(), "equal timestamps break ties on id")
		}
	}

	assert.Equal(t, "alice", messages[0].Sender.Name)
}

func TestHistoryPrependsNewMessage(t *testing.T) {
	d := newTestDB(t)
	alice := seedUser(t, d, "alice")
	bob := seedUser(t, d, "bob")

	conv, _, err := d.FindOrCreateDirect(alice.ID, bob.ID, alice.ID)
	require.NoError(t, err)

	old := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "old", CreatedAt: time.Now()}
	require.NoError(t, d.AppendMessage(old))

	latest := &models.Message{ConversationID: conv.ID, SenderID: bob.ID, Content: "new", CreatedAt: time.Now().Add(time.Second)}
	require.NoError(t, d.AppendMessage(latest))

	messages, err := d.GetConversationMessages(conv.ID, 10, nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, latest.ID, messages[0].ID)
	assert.Equal(t, old.ID, messages[1].ID)
}

func TestHistoryBeforeCursor(t *testing.T) {
	d := newTestDB(t)
	alice := seedUser(t, d, "alice")
	bob := seedUser(t, d, "bob")

	conv, _, err := d.FindOrCreateDirect(alice.ID, bob.ID, alice.ID)
	require.NoError(t, err)

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, d.AppendMessage(&models.Message{
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        "m",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	cursor := base.Add(3 * time.Second)
	page, err := d.GetConversationMessages(conv.ID, 2, &cursor)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.Before(cursor))
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))
}
