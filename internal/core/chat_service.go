package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chatforge/chatforge/internal/ai"
	"github.com/chatforge/chatforge/internal/store"
)

const titleMaxChars = 30

// Completer is the external chat-completion provider as the orchestrator
// sees it.
type Completer interface {
	StreamCompletion(ctx context.Context, messages []ai.ChatMessage, model string) <-chan ai.Fragment
	GenerateTitle(ctx context.Context, content string) (string, error)
}

// ChatService orchestrates chat turns: it resolves or creates the chat,
// persists the inbound message, streams the completion to the caller while
// accumulating a server-side copy, and performs the post-stream side
// effects (assistant message, usage accounting, title generation).
type ChatService struct {
	store        *store.Store
	completer    Completer
	estimator    *ai.Estimator
	tasks        TaskRunner
	defaultModel string
}

func NewChatService(st *store.Store, completer Completer, estimator *ai.Estimator, tasks TaskRunner, defaultModel string) *ChatService {
	return &ChatService{
		store:        st,
		completer:    completer,
		estimator:    estimator,
		tasks:        tasks,
		defaultModel: defaultModel,
	}
}

type SendMessageRequest struct {
	ChatID      string // optional; a new chat is created when empty
	Content     string
	Model       string // optional; falls back to the configured default
	UserID      string
	WorkspaceID string // optional workspace scope for new chats
}

// SendSession is an in-flight chat turn. The chat is resolved and the user
// message persisted before the session is returned, so the caller can
// expose the chat id out-of-band before relaying the stream.
type SendSession struct {
	Chat *store.Chat

	svc           *ChatService
	model         string
	userContent   string
	workspaceID   *string
	firstExchange bool
	fragments     <-chan ai.Fragment
	ctx           context.Context
}

// SendMessage validates and prepares a chat turn. Validation, not-found and
// access errors are returned here, before any stream begins. The returned
// session's Relay drives the stream and the post-stream side effects.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest) (*SendSession, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	// Resolve workspace scope. An unverified or failing membership lookup
	// degrades to personal scope rather than failing the send.
	var workspaceID *string
	if req.WorkspaceID != "" {
		ok, err := s.store.IsWorkspaceMember(ctx, req.WorkspaceID, req.UserID)
		if err != nil {
			logrus.WithError(err).WithField("workspace_id", req.WorkspaceID).Warn("Failed to resolve workspace scope")
		} else if ok {
			workspaceID = &req.WorkspaceID
		}
	}

	var chat *store.Chat
	if req.ChatID != "" {
		existing, err := s.store.GetChatByID(ctx, req.ChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chat: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: chat %s", ErrNotFound, req.ChatID)
		}
		ok, err := s.store.CanAccessChat(ctx, existing, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify chat access: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: chat %s", ErrAccessDenied, req.ChatID)
		}
		chat = existing
		workspaceID = existing.WorkspaceID
	} else {
		created, err := s.store.CreateChat(ctx, req.UserID, workspaceID, truncateRunes(req.Content, titleMaxChars))
		if err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
		chat = created
	}

	userMsg := store.Message{ChatID: chat.ID, Role: store.RoleUser, Content: req.Content}
	if err := s.store.CreateMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	// Full ordered history, including the message just added, becomes the
	// prompt context. No truncation or summarization here.
	history, err := s.store.GetMessagesByChatID(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	prompt := make([]ai.ChatMessage, len(history))
	for i, m := range history {
		prompt[i] = ai.ChatMessage{Role: m.Role, Content: m.Content}
	}

	// Detach from the caller's cancellation: accumulation and the
	// post-stream writes must complete even if the caller disconnects.
	streamCtx := context.WithoutCancel(ctx)

	return &SendSession{
		Chat:          chat,
		svc:           s,
		model:         model,
		userContent:   req.Content,
		workspaceID:   workspaceID,
		firstExchange: len(prompt) <= 2,
		fragments:     s.completer.StreamCompletion(streamCtx, prompt, model),
		ctx:           streamCtx,
	}, nil
}

// Relay consumes the completion stream, pushing each fragment to write as
// it arrives and accumulating a server-side copy. A failing write (caller
// gone) stops the relay but not the accumulation. After stream exhaustion
// it runs the persistence and accounting side effects.
//
// Provider failures arrive as diagnostic fragments; their text is relayed
// and persisted like any other content. That choice is deliberate: the
// conversation record shows the user what the assistant turn produced,
// error text included.
func (sess *SendSession) Relay(write func(text string) error) {
	var full strings.Builder
	writable := write != nil

	for frag := range sess.fragments {
		full.WriteString(frag.Text)
		if frag.Err != nil {
			logrus.WithError(frag.Err).WithField("chat_id", sess.Chat.ID).Warn("Completion stream ended with provider error")
		}
		if writable {
			if err := write(frag.Text); err != nil {
				logrus.WithField("chat_id", sess.Chat.ID).Debug("Caller disconnected mid-stream, continuing accumulation")
				writable = false
			}
		}
	}

	sess.finalize(full.String())
}

func (sess *SendSession) finalize(fullResponse string) {
	s := sess.svc
	ctx := sess.ctx
	log := logrus.WithField("chat_id", sess.Chat.ID)

	assistantMsg := store.Message{ChatID: sess.Chat.ID, Role: store.RoleAssistant, Content: fullResponse}
	if err := s.store.CreateMessage(ctx, &assistantMsg); err != nil {
		log.WithError(err).Error("Failed to store assistant message")
		return
	}
	if err := s.store.TouchChat(ctx, sess.Chat.ID); err != nil {
		log.WithError(err).Warn("Failed to bump chat activity timestamp")
	}

	// Accounting is best-effort: a failed usage write never disturbs the
	// assistant message already persisted above.
	est := s.estimator.Estimate(sess.userContent, fullResponse, sess.model)
	rec := store.UsageRecord{
		UserID:       sess.Chat.UserID,
		WorkspaceID:  sess.workspaceID,
		Model:        sess.model,
		InputTokens:  est.InputTokens,
		OutputTokens: est.OutputTokens,
		CostEstimate: est.Cost,
	}
	if err := s.store.AppendUsageRecord(ctx, &rec); err != nil {
		log.WithError(err).Error("Failed to append usage record")
	}

	if sess.firstExchange {
		chatID := sess.Chat.ID
		content := sess.userContent
		s.tasks.Run("generate-chat-title", func(taskCtx context.Context) {
			s.generateAndSaveTitle(taskCtx, chatID, content)
		})
	}
}

// generateAndSaveTitle is a detached one-shot summarization of the first
// user message. Every failure is logged and discarded; the chat keeps its
// truncated-content title.
func (s *ChatService) generateAndSaveTitle(ctx context.Context, chatID, basisContent string) {
	title, err := s.completer.GenerateTitle(ctx, basisContent)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to generate chat title")
		return
	}
	if err := s.store.UpdateChatTitle(ctx, chatID, title); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to save generated chat title")
		return
	}
	logrus.WithFields(logrus.Fields{"chat_id": chatID, "title": title}).Info("Saved generated chat title")
}

// ListChats returns the caller's personal chats, or every chat in a
// workspace when one is supplied and the caller is a verified member.
func (s *ChatService) ListChats(ctx context.Context, userID, workspaceID string) ([]store.Chat, error) {
	if workspaceID != "" {
		ok, err := s.store.IsWorkspaceMember(ctx, workspaceID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
		}
		return s.store.ListWorkspaceChats(ctx, workspaceID)
	}
	return s.store.ListPersonalChats(ctx, userID)
}

// GetChat returns one chat with its ordered messages, subject to the
// access predicate.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID string) (*store.Chat, []store.Message, error) {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, nil, fmt.Errorf("%w: chat %s", ErrNotFound, chatID)
	}
	ok, err := s.store.CanAccessChat(ctx, chat, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify chat access: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: chat %s", ErrAccessDenied, chatID)
	}

	messages, err := s.store.GetMessagesByChatID(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return chat, messages, nil
}

// SetMessageFeedback flags an assistant message, after verifying the caller
// can access the containing chat.
func (s *ChatService) SetMessageFeedback(ctx context.Context, messageID, userID string, negative bool) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}
	chat, err := s.store.GetChatByID(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return fmt.Errorf("%w: chat %s", ErrNotFound, msg.ChatID)
	}
	ok, err := s.store.CanAccessChat(ctx, chat, userID)
	if err != nil {
		return fmt.Errorf("failed to verify chat access: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: message %s", ErrAccessDenied, messageID)
	}
	return s.store.UpdateMessageFeedback(ctx, messageID, negative)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
