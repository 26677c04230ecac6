package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	WorkspaceRoleOwner  = "OWNER"
	WorkspaceRoleAdmin  = "ADMIN"
	WorkspaceRoleMember = "MEMBER"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Chat is a conversation thread. Exactly one of personal scope (WorkspaceID
// nil) or workspace scope determines visibility; the owner never changes.
type Chat struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	WorkspaceID *string   `db:"workspace_id" json:"workspace_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Message is one turn within a chat. Immutable once created.
type Message struct {
	ID               string    `db:"id" json:"id"`
	ChatID           string    `db:"chat_id" json:"chat_id"`
	Role             string    `db:"role" json:"role"`
	Content          string    `db:"content" json:"content"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	NegativeFeedback bool      `db:"negative_feedback" json:"negative_feedback"`
}

type Workspace struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	InviteToken string    `db:"invite_token" json:"invite_token,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type WorkspaceMember struct {
	ID          int64     `db:"id" json:"id"`
	WorkspaceID string    `db:"workspace_id" json:"workspace_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	Role        string    `db:"role" json:"role"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// UsageRecord is one append-only accounting entry per completed chat turn.
// The cost estimate is computed once at write time and never recomputed.
type UsageRecord struct {
	ID           int64     `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	WorkspaceID  *string   `db:"workspace_id" json:"workspace_id,omitempty"`
	Model        string    `db:"model" json:"model"`
	InputTokens  int       `db:"input_tokens" json:"input_tokens"`
	OutputTokens int       `db:"output_tokens" json:"output_tokens"`
	CostEstimate float64   `db:"cost_estimate" json:"cost_estimate"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	ItemTypePrompt       = "PROMPT"
	ItemTypeTemplate     = "TEMPLATE"
	ItemTypeConversation = "CONVERSATION"

	VisibilityPrivate   = "PRIVATE"
	VisibilityWorkspace = "WORKSPACE"
)

type LibraryItem struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	ItemType    string    `db:"item_type" json:"item_type"`
	Visibility  string    `db:"visibility" json:"visibility"`
	WorkspaceID *string   `db:"workspace_id" json:"workspace_id,omitempty"`
	MessageID   *string   `db:"message_id" json:"message_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	Tags        []Tag     `db:"-" json:"tags"`
}

type Tag struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color string `db:"color" json:"color"`
}
