package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatforge/chatforge/internal/ai"
	"github.com/chatforge/chatforge/internal/auth"
	"github.com/chatforge/chatforge/internal/core"
	"github.com/chatforge/chatforge/internal/store"
)

type fakeCompleter struct {
	fragments []ai.Fragment
}

func (f *fakeCompleter) StreamCompletion(ctx context.Context, messages []ai.ChatMessage, model string) <-chan ai.Fragment {
	out := make(chan ai.Fragment, len(f.fragments))
	for _, frag := range f.fragments {
		out <- frag
	}
	close(out)
	return out
}

func (f *fakeCompleter) GenerateTitle(ctx context.Context, content string) (string, error) {
	return "Generated Title", nil
}

type fakeCatalog struct {
	models   []ai.ModelInfo
	advisory string
}

func (f *fakeCatalog) Models(ctx context.Context) ([]ai.ModelInfo, string) {
	return f.models, f.advisory
}

func newTestRouter(t *testing.T, completer core.Completer) http.Handler {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens := auth.NewManager("test-secret")
	estimator := ai.NewEstimator(ai.DefaultPricingTable())
	catalog := &fakeCatalog{models: []ai.ModelInfo{{ID: "model-x", Name: "Model X"}}}

	handler := NewAPIHandler(
		core.NewAccountService(st, tokens),
		core.NewChatService(st, completer, estimator, core.SyncRunner{}, "default-model"),
		core.NewWorkspaceService(st),
		core.NewUsageService(st),
		core.NewLibraryService(st),
		catalog,
		tokens,
	)
	return NewRouter(handler)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// registerUser registers through the public endpoint and returns the token.
func registerUser(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{})

	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me store.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessageStreamsResponse(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{fragments: []ai.Fragment{{Text: "Hi"}, {Text: " there"}}})
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/chat/send", token, map[string]string{"content": "Hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := rec.Header().Get("Chat-Id")
	assert.NotEmpty(t, chatID, "new chat id travels in the Chat-Id header")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Hi there", rec.Body.String())

	// The chat is retrievable with both turns recorded.
	rec = doJSON(t, router, http.MethodGet, "/api/chat/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		Title    string          `json:"title"`
		Messages []store.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "Generated Title", details.Title)
	require.Len(t, details.Messages, 2)
	assert.Equal(t, "Hello", details.Messages[0].Content)
	assert.Equal(t, "Hi there", details.Messages[1].Content)

	// Follow-up into the same chat via chatId.
	rec = doJSON(t, router, http.MethodPost, "/api/chat/send", token, map[string]string{
		"chatId": chatID, "content": "And again",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chatID, rec.Header().Get("Chat-Id"))
}

func TestSendMessageValidationAndAccess(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{fragments: []ai.Fragment{{Text: "ok"}}})
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	rec := doJSON(t, router, http.MethodPost, "/api/chat/send", alice, map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/chat/send", alice, map[string]string{
		"chatId": "no-such-chat", "content": "hi",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Bob cannot read or continue Alice's personal chat.
	rec = doJSON(t, router, http.MethodPost, "/api/chat/send", alice, map[string]string{"content": "private"})
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := rec.Header().Get("Chat-Id")

	rec = doJSON(t, router, http.MethodGet, "/api/chat/"+chatID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/chat/send", bob, map[string]string{
		"chatId": chatID, "content": "intruding",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWorkspaceLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{fragments: []ai.Fragment{{Text: "ok"}}})
	owner := registerUser(t, router, "owner")
	joiner := registerUser(t, router, "joiner")

	rec := doJSON(t, router, http.MethodPost, "/api/teams", owner, map[string]string{"name": "My Team"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ws store.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ws))
	assert.Equal(t, "my-team", ws.Slug)

	rec = doJSON(t, router, http.MethodPost, "/api/teams/join", joiner, map[string]string{"token": ws.InviteToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Joined successfully")

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/teams/%s/members", ws.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []store.WorkspaceMember
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	assert.Len(t, members, 2)

	// A workspace-scoped send feeds the workspace usage dashboard.
	rec = doJSON(t, router, http.MethodPost, "/api/chat/send?workspace="+ws.ID, joiner, map[string]string{"content": "hi team"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics/usage?workspace="+ws.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash core.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 1, dash.TotalRequests)

	// Only the owner can delete the workspace.
	rec = doJSON(t, router, http.MethodDelete, "/api/teams/"+ws.ID, joiner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/teams/"+ws.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListModelsHandler(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{})
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodGet, "/api/models", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Models []ai.ModelInfo `json:"models"`
		Error  *string        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 1)
	assert.Equal(t, "model-x", resp.Models[0].ID)
	assert.Nil(t, resp.Error)
}

func TestMessageFeedbackOverHTTP(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{fragments: []ai.Fragment{{Text: "answer"}}})
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/chat/send", token, map[string]string{"content": "question"})
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := rec.Header().Get("Chat-Id")

	rec = doJSON(t, router, http.MethodGet, "/api/chat/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		Messages []store.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	require.Len(t, details.Messages, 2)

	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/messages/%s/feedback", details.Messages[1].ID), token,
		map[string]bool{"negative": true})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
