package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore opens a store on a throwaway database file. A file (rather
// than :memory:) keeps the schema visible to every pooled connection.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func createTestUser(t *testing.T, st *Store, username string) *User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), username, username+"@example.com", "hash")
	require.NoError(t, err)
	return user
}

// createTestWorkspace creates a workspace with the owner already enrolled.
func createTestWorkspace(t *testing.T, st *Store, name, slug, ownerID string) *Workspace {
	t.Helper()
	ws, err := st.CreateWorkspace(context.Background(), name, slug, ownerID)
	require.NoError(t, err)
	require.NoError(t, st.AddWorkspaceMember(context.Background(), ws.ID, ownerID, WorkspaceRoleOwner))
	return ws
}
