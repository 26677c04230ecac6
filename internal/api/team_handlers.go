package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatforge/chatforge/internal/core"
	"github.com/chatforge/chatforge/internal/store"
)

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) CreateWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ws, err := h.workspaces.CreateWorkspace(r.Context(), req.Name, requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (h *APIHandler) ListWorkspacesHandler(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.workspaces.ListWorkspaces(r.Context(), requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if workspaces == nil {
		workspaces = []store.Workspace{}
	}
	writeJSON(w, http.StatusOK, workspaces)
}

type joinWorkspaceRequest struct {
	Token string `json:"token"`
}

func (h *APIHandler) JoinWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	var req joinWorkspaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ws, alreadyMember, err := h.workspaces.Join(r.Context(), req.Token, requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if alreadyMember {
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Already a member", "workspace_id": ws.ID})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Joined successfully", "workspace": ws})
}

func (h *APIHandler) DeleteWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	err := h.workspaces.DeleteWorkspace(r.Context(), chi.URLParam(r, "workspaceID"), requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) RegenerateInviteHandler(w http.ResponseWriter, r *http.Request) {
	token, err := h.workspaces.RegenerateInvite(r.Context(), chi.URLParam(r, "workspaceID"), requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_token": token})
}

func (h *APIHandler) ListWorkspaceMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := h.workspaces.ListMembers(r.Context(), chi.URLParam(r, "workspaceID"), requestUserID(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if members == nil {
		members = []store.WorkspaceMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

type createLibraryItemRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ItemType    string   `json:"item_type,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	WorkspaceID string   `json:"workspace_id,omitempty"`
	MessageID   string   `json:"message_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (h *APIHandler) CreateLibraryItemHandler(w http.ResponseWriter, r *http.Request) {
	var req createLibraryItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.library.Create(r.Context(), requestUserID(r), core.CreateLibraryItemRequest{
		Title:       req.Title,
		Content:     req.Content,
		ItemType:    req.ItemType,
		Visibility:  req.Visibility,
		WorkspaceID: req.WorkspaceID,
		MessageID:   req.MessageID,
		Tags:        req.Tags,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *APIHandler) ListLibraryItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.library.List(r.Context(), requestUserID(r), r.URL.Query().Get("workspace"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if items == nil {
		items = []store.LibraryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) DeleteLibraryItemHandler(w http.ResponseWriter, r *http.Request) {
	err := h.library.Delete(r.Context(), requestUserID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
