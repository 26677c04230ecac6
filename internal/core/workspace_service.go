package core

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/chatforge/chatforge/internal/store"
)

type WorkspaceService struct {
	store *store.Store
}

func NewWorkspaceService(st *store.Store) *WorkspaceService {
	return &WorkspaceService{store: st}
}

// CreateWorkspace creates a workspace and records the creator as its OWNER
// member.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, name, ownerID string) (*store.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: workspace name is required", ErrValidation)
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	ws, err := s.store.CreateWorkspace(ctx, name, slug, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := s.store.AddWorkspaceMember(ctx, ws.ID, ownerID, store.WorkspaceRoleOwner); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}
	return ws, nil
}

func (s *WorkspaceService) ListWorkspaces(ctx context.Context, userID string) ([]store.Workspace, error) {
	return s.store.ListWorkspacesForUser(ctx, userID)
}

// Join adds the caller to the workspace matching the invite token. Joining
// a workspace the caller already belongs to is a no-op.
func (s *WorkspaceService) Join(ctx context.Context, token, userID string) (*store.Workspace, bool, error) {
	if token == "" {
		return nil, false, fmt.Errorf("%w: invite token is required", ErrValidation)
	}

	ws, err := s.store.GetWorkspaceByInviteToken(ctx, token)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve invite token: %w", err)
	}
	if ws == nil {
		return nil, false, fmt.Errorf("%w: invalid invite token", ErrNotFound)
	}

	isMember, err := s.store.IsWorkspaceMember(ctx, ws.ID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return ws, true, nil
	}

	if err := s.store.AddWorkspaceMember(ctx, ws.ID, userID, store.WorkspaceRoleMember); err != nil {
		return nil, false, fmt.Errorf("failed to add membership: %w", err)
	}
	return ws, false, nil
}

// RegenerateInvite rotates the workspace invite token. OWNER or ADMIN only.
func (s *WorkspaceService) RegenerateInvite(ctx context.Context, workspaceID, userID string) (string, error) {
	ws, err := s.store.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return "", fmt.Errorf("failed to load workspace: %w", err)
	}
	if ws == nil {
		return "", fmt.Errorf("%w: workspace %s", ErrNotFound, workspaceID)
	}

	role, err := s.store.GetWorkspaceMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load member role: %w", err)
	}
	if role != store.WorkspaceRoleOwner && role != store.WorkspaceRoleAdmin {
		return "", fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
	}

	return s.store.RegenerateInviteToken(ctx, workspaceID)
}

// DeleteWorkspace removes a workspace. OWNER only. Usage records survive
// with their workspace reference nulled.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, workspaceID, userID string) error {
	ws, err := s.store.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	if ws == nil {
		return fmt.Errorf("%w: workspace %s", ErrNotFound, workspaceID)
	}

	role, err := s.store.GetWorkspaceMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to load member role: %w", err)
	}
	if role != store.WorkspaceRoleOwner {
		return fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
	}

	return s.store.DeleteWorkspace(ctx, workspaceID)
}

func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID, userID string) ([]store.WorkspaceMember, error) {
	isMember, err := s.store.IsWorkspaceMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
	}
	return s.store.ListWorkspaceMembers(ctx, workspaceID)
}

func (s *WorkspaceService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true // trims leading dashes
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
