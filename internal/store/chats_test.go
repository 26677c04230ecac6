package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageOrderingIsStable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, st, "alice")

	chat, err := st.CreateChat(ctx, user.ID, nil, "ordering")
	require.NoError(t, err)

	// Insert rapidly so created_at values can collide; rowid breaks ties.
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		require.NoError(t, st.CreateMessage(ctx, &Message{
			ChatID:  chat.ID,
			Role:    role,
			Content: fmt.Sprintf("message %d", i),
		}))
	}

	messages, err := st.GetMessagesByChatID(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 10)
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
	}

	// Re-reading yields the identical order.
	again, err := st.GetMessagesByChatID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, messages, again)
}

func TestListPersonalChatsExcludesWorkspaceChats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, st, "alice")
	ws := createTestWorkspace(t, st, "Team", "team", user.ID)

	personal, err := st.CreateChat(ctx, user.ID, nil, "personal")
	require.NoError(t, err)
	_, err = st.CreateChat(ctx, user.ID, &ws.ID, "shared")
	require.NoError(t, err)

	chats, err := st.ListPersonalChats(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, personal.ID, chats[0].ID)

	wsChats, err := st.ListWorkspaceChats(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, wsChats, 1)
	assert.Equal(t, "shared", wsChats[0].Title)
}

func TestListPersonalChatsOrderedByActivity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, st, "alice")

	first, err := st.CreateChat(ctx, user.ID, nil, "first")
	require.NoError(t, err)
	second, err := st.CreateChat(ctx, user.ID, nil, "second")
	require.NoError(t, err)

	// Touching the older chat moves it to the front.
	require.NoError(t, st.TouchChat(ctx, first.ID))

	chats, err := st.ListPersonalChats(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)
}

func TestCanAccessChat(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, st, "owner")
	member := createTestUser(t, st, "member")
	outsider := createTestUser(t, st, "outsider")
	ws := createTestWorkspace(t, st, "Team", "team", owner.ID)
	require.NoError(t, st.AddWorkspaceMember(ctx, ws.ID, member.ID, WorkspaceRoleMember))

	personal, err := st.CreateChat(ctx, owner.ID, nil, "personal")
	require.NoError(t, err)
	shared, err := st.CreateChat(ctx, owner.ID, &ws.ID, "shared")
	require.NoError(t, err)

	check := func(chat *Chat, userID string) bool {
		ok, err := st.CanAccessChat(ctx, chat, userID)
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check(personal, owner.ID))
	assert.False(t, check(personal, member.ID))
	assert.True(t, check(shared, owner.ID))
	assert.True(t, check(shared, member.ID))
	assert.False(t, check(shared, outsider.ID))

	// Revoking membership revokes access to the shared chat.
	require.NoError(t, st.RemoveWorkspaceMember(ctx, ws.ID, member.ID))
	assert.False(t, check(shared, member.ID))
}

func TestUpdateMessageFeedback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, st, "alice")
	chat, err := st.CreateChat(ctx, user.ID, nil, "chat")
	require.NoError(t, err)

	msg := &Message{ChatID: chat.ID, Role: RoleAssistant, Content: "answer"}
	require.NoError(t, st.CreateMessage(ctx, msg))

	require.NoError(t, st.UpdateMessageFeedback(ctx, msg.ID, true))
	got, err := st.GetMessageByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.NegativeFeedback)

	require.NoError(t, st.UpdateMessageFeedback(ctx, msg.ID, false))
	got, err = st.GetMessageByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, got.NegativeFeedback)

	assert.Error(t, st.UpdateMessageFeedback(ctx, "no-such-message", true))
}

func TestUpdateChatTitle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, st, "alice")
	chat, err := st.CreateChat(ctx, user.ID, nil, "old title")
	require.NoError(t, err)

	require.NoError(t, st.UpdateChatTitle(ctx, chat.ID, "new title"))
	got, err := st.GetChatByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)

	assert.Error(t, st.UpdateChatTitle(ctx, "no-such-chat", "x"))
}
