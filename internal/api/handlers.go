package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chatforge/chatforge/internal/ai"
	"github.com/chatforge/chatforge/internal/auth"
	"github.com/chatforge/chatforge/internal/core"
)

type contextKey string

const userIDKey contextKey = "userID"

type APIHandler struct {
	accounts   *core.AccountService
	chats      *core.ChatService
	workspaces *core.WorkspaceService
	usage      *core.UsageService
	library    *core.LibraryService
	catalog    ModelCatalog
	tokens     *auth.Manager
}

// ModelCatalog is the model listing as the API sees it.
type ModelCatalog interface {
	Models(ctx context.Context) ([]ai.ModelInfo, string)
}

func NewAPIHandler(
	accounts *core.AccountService,
	chats *core.ChatService,
	workspaces *core.WorkspaceService,
	usage *core.UsageService,
	library *core.LibraryService,
	catalog ModelCatalog,
	tokens *auth.Manager,
) *APIHandler {
	return &APIHandler{
		accounts:   accounts,
		chats:      chats,
		workspaces: workspaces,
		usage:      usage,
		library:    library,
		catalog:    catalog,
		tokens:     tokens,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.tokens.ValidateToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := h.accounts.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "User not found")
				return
			}
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to resolve authenticated user")
			writeError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serviceError maps the core error taxonomy onto response codes. Anything
// outside the taxonomy is an internal error and is logged, not leaked.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		logrus.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
