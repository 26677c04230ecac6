package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateWorkspace(ctx context.Context, name, slug, ownerID string) (*Workspace, error) {
	ws := &Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		OwnerID:     ownerID,
		InviteToken: uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, slug, owner_id, invite_token, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.Name, ws.Slug, ws.OwnerID, ws.InviteToken, ws.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert workspace: %w", err)
	}
	return ws, nil
}

func (s *Store) GetWorkspaceByID(ctx context.Context, id string) (*Workspace, error) {
	var ws Workspace
	err := s.db.GetContext(ctx, &ws, `SELECT * FROM workspaces WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query workspace: %w", err)
	}
	return &ws, nil
}

func (s *Store) GetWorkspaceByInviteToken(ctx context.Context, token string) (*Workspace, error) {
	var ws Workspace
	err := s.db.GetContext(ctx, &ws, `SELECT * FROM workspaces WHERE invite_token = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query workspace by invite token: %w", err)
	}
	return &ws, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM workspaces WHERE slug = ?`, slug)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// ListWorkspacesForUser returns the workspaces the user is a member of.
func (s *Store) ListWorkspacesForUser(ctx context.Context, userID string) ([]Workspace, error) {
	var workspaces []Workspace
	err := s.db.SelectContext(ctx, &workspaces,
		`SELECT w.* FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = ?
		 ORDER BY w.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *Store) AddWorkspaceMember(ctx context.Context, workspaceID, userID, role string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		workspaceID, userID, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert workspace member: %w", err)
	}
	return nil
}

func (s *Store) RemoveWorkspaceMember(ctx context.Context, workspaceID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?`, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove workspace member: %w", err)
	}
	return nil
}

// IsWorkspaceMember is the membership lookup behind every workspace-scoped
// authorization decision.
func (s *Store) IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ? AND user_id = ?`, workspaceID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (s *Store) GetWorkspaceMemberRole(ctx context.Context, workspaceID, userID string) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role,
		`SELECT role FROM workspace_members WHERE workspace_id = ? AND user_id = ?`, workspaceID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query member role: %w", err)
	}
	return role, nil
}

func (s *Store) ListWorkspaceMembers(ctx context.Context, workspaceID string) ([]WorkspaceMember, error) {
	var members []WorkspaceMember
	err := s.db.SelectContext(ctx, &members,
		`SELECT m.id, m.workspace_id, m.user_id, u.username, m.role, m.joined_at
		 FROM workspace_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.workspace_id = ?
		 ORDER BY m.joined_at ASC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspace members: %w", err)
	}
	return members, nil
}

// DeleteWorkspace removes a workspace. Chats, members and library items in
// it cascade away; usage records keep their rows with the workspace
// reference nulled, preserving history.
func (s *Store) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("workspace not found")
	}
	return nil
}

func (s *Store) RegenerateInviteToken(ctx context.Context, workspaceID string) (string, error) {
	token := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		`UPDATE workspaces SET invite_token = ? WHERE id = ?`, token, workspaceID)
	if err != nil {
		return "", fmt.Errorf("failed to regenerate invite token: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return "", fmt.Errorf("workspace not found, invite token not updated")
	}
	return token, nil
}
