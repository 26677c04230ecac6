package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatforge/chatforge/internal/store"
)

type LibraryService struct {
	store *store.Store
}

func NewLibraryService(st *store.Store) *LibraryService {
	return &LibraryService{store: st}
}

type CreateLibraryItemRequest struct {
	Title       string
	Content     string
	ItemType    string
	Visibility  string
	WorkspaceID string // required for WORKSPACE visibility
	MessageID   string // optional source message reference
	Tags        []string
}

func (s *LibraryService) Create(ctx context.Context, userID string, req CreateLibraryItemRequest) (*store.LibraryItem, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	itemType := req.ItemType
	if itemType == "" {
		itemType = store.ItemTypePrompt
	}
	switch itemType {
	case store.ItemTypePrompt, store.ItemTypeTemplate, store.ItemTypeConversation:
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", ErrValidation, req.ItemType)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = store.VisibilityPrivate
	}

	item := &store.LibraryItem{
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		ItemType:   itemType,
		Visibility: visibility,
	}

	switch visibility {
	case store.VisibilityPrivate:
	case store.VisibilityWorkspace:
		if req.WorkspaceID == "" {
			return nil, fmt.Errorf("%w: workspace is required for workspace visibility", ErrValidation)
		}
		ok, err := s.store.IsWorkspaceMember(ctx, req.WorkspaceID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: workspace %s", ErrAccessDenied, req.WorkspaceID)
		}
		wsID := req.WorkspaceID
		item.WorkspaceID = &wsID
	default:
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrValidation, req.Visibility)
	}

	if req.MessageID != "" {
		msg, err := s.store.GetMessageByID(ctx, req.MessageID)
		if err != nil {
			return nil, fmt.Errorf("failed to load source message: %w", err)
		}
		if msg == nil {
			return nil, fmt.Errorf("%w: message %s", ErrNotFound, req.MessageID)
		}
		msgID := req.MessageID
		item.MessageID = &msgID
	}

	if err := s.store.CreateLibraryItem(ctx, item, req.Tags); err != nil {
		return nil, fmt.Errorf("failed to create library item: %w", err)
	}
	return item, nil
}

// List returns the caller's private items, or a workspace's shared items
// when a workspace scope is supplied and the caller is a member.
func (s *LibraryService) List(ctx context.Context, userID, workspaceID string) ([]store.LibraryItem, error) {
	if workspaceID != "" {
		ok, err := s.store.IsWorkspaceMember(ctx, workspaceID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
		}
		return s.store.ListLibraryItems(ctx, userID, &workspaceID)
	}
	return s.store.ListLibraryItems(ctx, userID, nil)
}

// Delete removes a library item. Only the item's owner may delete it.
func (s *LibraryService) Delete(ctx context.Context, userID, itemID string) error {
	item, err := s.store.GetLibraryItemByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load library item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("%w: library item %s", ErrNotFound, itemID)
	}
	if item.UserID != userID {
		return fmt.Errorf("%w: library item %s", ErrAccessDenied, itemID)
	}
	return s.store.DeleteLibraryItem(ctx, itemID)
}
