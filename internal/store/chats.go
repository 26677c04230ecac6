package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateChat(ctx context.Context, userID string, workspaceID *string, title string) (*Chat, error) {
	now := time.Now().UTC()
	chat := &Chat{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, workspace_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		chat.ID, chat.UserID, chat.WorkspaceID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	return chat, nil
}

func (s *Store) GetChatByID(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	err := s.db.GetContext(ctx, &chat, `SELECT * FROM chats WHERE id = ?`, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	return &chat, nil
}

// ListPersonalChats returns the caller's private chats, newest activity first.
// Workspace-scoped chats are excluded; those are listed per workspace.
func (s *Store) ListPersonalChats(ctx context.Context, userID string) ([]Chat, error) {
	var chats []Chat
	err := s.db.SelectContext(ctx, &chats,
		`SELECT * FROM chats WHERE user_id = ? AND workspace_id IS NULL ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	return chats, nil
}

// ListWorkspaceChats returns every chat in the workspace, newest activity
// first. Membership must already be verified by the caller.
func (s *Store) ListWorkspaceChats(ctx context.Context, workspaceID string) ([]Chat, error) {
	var chats []Chat
	err := s.db.SelectContext(ctx, &chats,
		`SELECT * FROM chats WHERE workspace_id = ? ORDER BY updated_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspace chats: %w", err)
	}
	return chats, nil
}

func (s *Store) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`, title, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat not found, title not updated")
	}
	return nil
}

func (s *Store) TouchChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

// CanAccessChat is the uniform access predicate: the owner always passes,
// otherwise a verified member of the chat's workspace passes.
func (s *Store) CanAccessChat(ctx context.Context, chat *Chat, userID string) (bool, error) {
	if chat.UserID == userID {
		return true, nil
	}
	if chat.WorkspaceID == nil {
		return false, nil
	}
	return s.IsWorkspaceMember(ctx, *chat.WorkspaceID, userID)
}

func (s *Store) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, role, content, created_at, negative_feedback) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.CreatedAt, msg.NegativeFeedback)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessagesByChatID returns the chat's messages in chronological order.
// Ties on created_at fall back to insertion order via rowid.
func (s *Store) GetMessagesByChatID(ctx context.Context, chatID string) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages,
		`SELECT id, chat_id, role, content, created_at, negative_feedback
		 FROM messages WHERE chat_id = ? ORDER BY created_at ASC, rowid ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

func (s *Store) GetMessageByID(ctx context.Context, messageID string) (*Message, error) {
	var msg Message
	err := s.db.GetContext(ctx, &msg,
		`SELECT id, chat_id, role, content, created_at, negative_feedback FROM messages WHERE id = ?`, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return &msg, nil
}

func (s *Store) UpdateMessageFeedback(ctx context.Context, messageID string, negative bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET negative_feedback = ? WHERE id = ?`, negative, messageID)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("message not found, feedback not updated")
	}
	return nil
}
