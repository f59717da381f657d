// ABOUTME: ConversationService bridges local conversation metadata with the remote service
// ABOUTME: Sole reader/writer of the store; owns best-effort background title generation

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parley-chat/parley/internal/genai"
	"github.com/parley-chat/parley/internal/store"
)

// titlePrompt is the fixed template for background title generation,
// embedding the conversation's first user message.
const titlePrompt = `Generate a short, concise title (3-5 words) for a conversation that starts with this message: "%s". Output only the title text.`

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	FindAll(ctx context.Context, userID string) ([]*store.Conversation, error)
	FindByID(ctx context.Context, id string) (*store.Conversation, error)
	Save(ctx context.Context, conv *store.Conversation) error
	UpdateTitle(ctx context.Context, id, title string) (bool, error)
}

// RemoteAPI defines what the service needs from the remote conversation service
type RemoteAPI interface {
	CreateConversation(ctx context.Context) (string, error)
	ListConversationItems(ctx context.Context, conversationID string) ([]genai.Item, error)
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates store reads/writes with calls to the remote
// conversation API. It is the only component that touches the store.
type Service struct {
	store  ConversationStore
	remote RemoteAPI
	logger *slog.Logger
}

// New creates a new conversation Service
func New(convStore ConversationStore, remote RemoteAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  convStore,
		remote: remote,
		logger: logger.With("component", "conversation"),
	}
}

// Created is the result of creating a conversation.
type Created struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
}

// CreateConversation creates a conversation in the remote service and
// persists the ownership record locally. The remote call comes first: if it
// fails no record is created. If persistence fails after a successful remote
// call, the remote conversation is orphaned; that is accepted and logged,
// never reconciled.
func (s *Service) CreateConversation(ctx context.Context, userID string) (*Created, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required")
	}

	conversationID, err := s.remote.CreateConversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating remote conversation: %w", err)
	}

	createdAt := time.Now().UnixMilli()
	conv := &store.Conversation{
		ID:        conversationID,
		UserID:    userID,
		CreatedAt: createdAt,
	}
	if err := s.store.Save(ctx, conv); err != nil {
		// The remote conversation now exists without a local owner.
		s.logger.Error("persisting conversation failed, remote conversation orphaned",
			"conversation_id", conversationID,
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("persisting conversation: %w", err)
	}

	s.logger.Info("conversation created",
		"conversation_id", conversationID,
		"user_id", userID)

	return &Created{ID: conversationID, CreatedAt: createdAt}, nil
}

// ListConversations returns conversations newest-first, optionally filtered
// by user. An empty userID returns all users' conversations.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*store.Conversation, error) {
	return s.store.FindAll(ctx, userID)
}

// GetConversation returns the metadata record, or store.ErrNotFound.
func (s *Service) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	return s.store.FindByID(ctx, id)
}

// GetConversationHistory returns the remote transcript items as-is.
// Format translation happens at the UI layer.
func (s *Service) GetConversationHistory(ctx context.Context, id string) ([]genai.Item, error) {
	return s.remote.ListConversationItems(ctx, id)
}

// UpdateConversationTitle sets the title of a known conversation. An unknown
// ID is only worth a warning: this is called from the best-effort background
// path and the conversation may never have been persisted.
func (s *Service) UpdateConversationTitle(ctx context.Context, id, title string) error {
	affected, err := s.store.UpdateTitle(ctx, id, title)
	if err != nil {
		return fmt.Errorf("updating conversation title: %w", err)
	}
	if !affected {
		s.logger.Warn("could not find conversation to update title", "conversation_id", id)
		return nil
	}
	s.logger.Info("updated conversation title", "conversation_id", id, "title", title)
	return nil
}

// AssignTitleIfAbsent generates and stores a title derived from the first
// message, unless the conversation already has one. It runs detached from the
// user-facing request cycle, so every failure is logged and swallowed; the
// conversation simply stays untitled.
func (s *Service) AssignTitleIfAbsent(ctx context.Context, conversationID, firstMessage string) {
	conv, err := s.store.FindByID(ctx, conversationID)
	if err != nil && err != store.ErrNotFound {
		s.logger.Error("failed to look up conversation for title generation",
			"conversation_id", conversationID,
			"error", err)
		return
	}
	if conv != nil && conv.Title != "" {
		s.logger.Debug("conversation already has title, skipping generation",
			"conversation_id", conversationID,
			"title", conv.Title)
		return
	}

	s.logger.Debug("generating title", "conversation_id", conversationID)
	title, err := s.remote.GenerateTitle(ctx, fmt.Sprintf(titlePrompt, firstMessage))
	if err != nil {
		s.logger.Error("failed to generate background title",
			"conversation_id", conversationID,
			"error", err)
		return
	}

	cleaned := stripOuterQuotes(strings.TrimSpace(title))
	if err := s.UpdateConversationTitle(ctx, conversationID, cleaned); err != nil {
		s.logger.Error("failed to store generated title",
			"conversation_id", conversationID,
			"error", err)
	}
}

// stripOuterQuotes removes a single layer of leading/trailing quote
// characters. Models like to quote the titles they are asked for; one layer
// only, never recursive.
func stripOuterQuotes(s string) string {
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}
