package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.JWTAuthMiddleware)

			r.Post("/auth/logout", h.LogoutHandler)
			r.Get("/auth/me", h.MeHandler)

			// Chat routes
			r.Post("/chat/send", h.SendMessageHandler)
			r.Get("/chat/history", h.ListChatsHandler)
			r.Get("/chat/{chatID}", h.GetChatHandler)
			r.Get("/models", h.ListModelsHandler)

			// Message feedback
			r.Post("/messages/{messageID}/feedback", h.MessageFeedbackHandler)

			// Analytics
			r.Get("/analytics/usage", h.UsageDashboardHandler)

			// Workspaces
			r.Post("/teams", h.CreateWorkspaceHandler)
			r.Get("/teams", h.ListWorkspacesHandler)
			r.Post("/teams/join", h.JoinWorkspaceHandler)
			r.Delete("/teams/{workspaceID}", h.DeleteWorkspaceHandler)
			r.Post("/teams/{workspaceID}/regenerate-invite", h.RegenerateInviteHandler)
			r.Get("/teams/{workspaceID}/members", h.ListWorkspaceMembersHandler)

			// Library
			r.Get("/library", h.ListLibraryItemsHandler)
			r.Post("/library", h.CreateLibraryItemHandler)
			r.Delete("/library/{itemID}", h.DeleteLibraryItemHandler)
		})
	})

	return r
}
