package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatforge/chatforge/internal/ai"
	"github.com/chatforge/chatforge/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func createTestUser(t *testing.T, st *store.Store, username string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), username, username+"@example.com", "hash")
	require.NoError(t, err)
	return user
}

func createTestWorkspace(t *testing.T, st *store.Store, name, slug, ownerID string) *store.Workspace {
	t.Helper()
	ws, err := st.CreateWorkspace(context.Background(), name, slug, ownerID)
	require.NoError(t, err)
	require.NoError(t, st.AddWorkspaceMember(context.Background(), ws.ID, ownerID, store.WorkspaceRoleOwner))
	return ws
}

// fakeCompleter replays canned fragments and records what it was asked.
type fakeCompleter struct {
	fragments []ai.Fragment
	title     string
	titleErr  error

	titleCalls int
	lastPrompt []ai.ChatMessage
	lastModel  string
}

func (f *fakeCompleter) StreamCompletion(ctx context.Context, messages []ai.ChatMessage, model string) <-chan ai.Fragment {
	f.lastPrompt = messages
	f.lastModel = model
	out := make(chan ai.Fragment, len(f.fragments))
	for _, frag := range f.fragments {
		out <- frag
	}
	close(out)
	return out
}

func (f *fakeCompleter) GenerateTitle(ctx context.Context, content string) (string, error) {
	f.titleCalls++
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}
