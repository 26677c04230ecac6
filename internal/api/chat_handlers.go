package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatforge/chatforge/internal/core"
	"github.com/chatforge/chatforge/internal/store"
)

type sendMessageRequest struct {
	ChatID  string `json:"chatId,omitempty"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// SendMessageHandler streams the completion back as a plain-text body. The
// resolved chat id travels out-of-band in the Chat-Id header so a caller
// who omitted chatId learns the new identifier before the first byte.
func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.chats.SendMessage(r.Context(), core.SendMessageRequest{
		ChatID:      req.ChatID,
		Content:     req.Content,
		Model:       req.Model,
		UserID:      requestUserID(r),
		WorkspaceID: r.URL.Query().Get("workspace"),
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	w.Header().Set("Chat-Id", sess.Chat.ID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	sess.Relay(func(text string) error {
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListChats(r.Context(), requestUserID(r), r.URL.Query().Get("workspace"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

type chatDetailsResponse struct {
	*store.Chat
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, messages, err := h.chats.GetChat(r.Context(), chi.URLParam(r, "chatID"), requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, chatDetailsResponse{Chat: chat, Messages: messages})
}

type feedbackRequest struct {
	Negative bool `json:"negative"`
}

func (h *APIHandler) MessageFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.chats.SetMessageFeedback(r.Context(), chi.URLParam(r, "messageID"), requestUserID(r), req.Negative)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListModelsHandler(w http.ResponseWriter, r *http.Request) {
	models, advisory := h.catalog.Models(r.Context())
	resp := map[string]interface{}{"models": models}
	if advisory != "" {
		resp["error"] = advisory
	} else {
		resp["error"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) UsageDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.usage.Dashboard(r.Context(), requestUserID(r), r.URL.Query().Get("workspace"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
