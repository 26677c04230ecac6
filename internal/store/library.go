package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateLibraryItem(ctx context.Context, item *LibraryItem, tagNames []string) error {
	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO library_items (id, user_id, title, content, item_type, visibility, workspace_id, message_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Title, item.Content, item.ItemType, item.Visibility,
		item.WorkspaceID, item.MessageID, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert library item: %w", err)
	}

	for _, name := range tagNames {
		tag, err := s.getOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO library_item_tags (item_id, tag_id) VALUES (?, ?)`, item.ID, tag.ID)
		if err != nil {
			return fmt.Errorf("failed to attach tag: %w", err)
		}
		item.Tags = append(item.Tags, *tag)
	}
	return nil
}

func (s *Store) getOrCreateTag(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	err := s.db.GetContext(ctx, &tag, `SELECT * FROM tags WHERE name = ?`, name)
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Tag{ID: id, Name: name}, nil
}

func (s *Store) GetLibraryItemByID(ctx context.Context, id string) (*LibraryItem, error) {
	var item LibraryItem
	err := s.db.GetContext(ctx, &item, `SELECT * FROM library_items WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query library item: %w", err)
	}
	if err := s.loadTags(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLibraryItems returns the caller's private items, or a workspace's
// shared items when workspaceID is set. Membership must already be verified.
func (s *Store) ListLibraryItems(ctx context.Context, userID string, workspaceID *string) ([]LibraryItem, error) {
	var items []LibraryItem
	var err error
	if workspaceID != nil {
		err = s.db.SelectContext(ctx, &items,
			`SELECT * FROM library_items
			 WHERE workspace_id = ? AND visibility = 'WORKSPACE'
			 ORDER BY updated_at DESC`, *workspaceID)
	} else {
		err = s.db.SelectContext(ctx, &items,
			`SELECT * FROM library_items
			 WHERE user_id = ? AND visibility = 'PRIVATE'
			 ORDER BY updated_at DESC`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query library items: %w", err)
	}
	for i := range items {
		if err := s.loadTags(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Store) DeleteLibraryItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM library_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete library item: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("library item not found")
	}
	return nil
}

func (s *Store) loadTags(ctx context.Context, item *LibraryItem) error {
	var tags []Tag
	err := s.db.SelectContext(ctx, &tags,
		`SELECT t.* FROM tags t
		 JOIN library_item_tags lt ON lt.tag_id = t.id
		 WHERE lt.item_id = ?
		 ORDER BY t.name ASC`, item.ID)
	if err != nil {
		return fmt.Errorf("failed to query item tags: %w", err)
	}
	item.Tags = tags
	return nil
}
