// ABOUTME: Chat page and history view handlers
// ABOUTME: Renders conversation list and transcripts with markdown for assistant messages

package webui

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/parley-chat/parley/internal/genai"
	"github.com/parley-chat/parley/internal/store"
)

// chatPageData holds data for the main chat page
type chatPageData struct {
	Title         string
	Conversations []conversationItemData
}

// conversationItemData represents a single conversation in the sidebar
type conversationItemData struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// chatViewData holds data for the conversation transcript view
type chatViewData struct {
	Title          string
	ConversationID string
	Conversations  []conversationItemData
	Messages       []renderedMessage
}

// renderedMessage is a transcript item prepared for the template.
// Assistant markdown is converted to HTML; user text stays escaped text.
type renderedMessage struct {
	Role string
	Text string
	HTML template.HTML
}

// handleChatPage renders the chat page with the poller's current snapshot
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	var snapshot []*store.Conversation
	if s.poller != nil {
		if err := s.poller.Refresh(r.Context()); err == nil {
			snapshot = s.poller.Snapshot()
		}
	}
	if snapshot == nil {
		var err error
		snapshot, err = s.service.ListConversations(r.Context(), "")
		if err != nil {
			s.logger.Error("failed to load conversations for chat page", "error", err)
		}
	}

	data := chatPageData{
		Title:         "Parley",
		Conversations: toSidebarItems(snapshot),
	}

	tmpl := template.Must(template.ParseFS(templateFS,
		"templates/base.html",
		"templates/chat.html",
	))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("failed to render chat page", "error", err)
	}
}

// handleChatView renders a conversation transcript
func (s *Server) handleChatView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	items, err := s.service.GetConversationHistory(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load history", "conversation_id", id, "error", err)
		http.Error(w, "Failed to load conversation history", http.StatusBadGateway)
		return
	}

	conversations, err := s.service.ListConversations(r.Context(), "")
	if err != nil {
		s.logger.Error("failed to list conversations", "error", err)
	}

	title := "Conversation"
	if conv, err := s.service.GetConversation(r.Context(), id); err == nil && conv.Title != "" {
		title = conv.Title
	}

	data := chatViewData{
		Title:          title,
		ConversationID: id,
		Conversations:  toSidebarItems(conversations),
		Messages:       renderMessages(items),
	}

	tmpl := template.Must(template.ParseFS(templateFS,
		"templates/base.html",
		"templates/chat_view.html",
	))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("failed to render chat view", "error", err)
	}
}

// toSidebarItems maps store records into sidebar entries, untitled
// conversations get a placeholder label.
func toSidebarItems(conversations []*store.Conversation) []conversationItemData {
	items := make([]conversationItemData, 0, len(conversations))
	for _, conv := range conversations {
		title := conv.Title
		if title == "" {
			title = "New conversation"
		}
		items = append(items, conversationItemData{
			ID:        conv.ID,
			Title:     title,
			CreatedAt: time.UnixMilli(conv.CreatedAt),
		})
	}
	return items
}

// renderMessages flattens transcript items and converts assistant markdown
// to HTML. Items without a role are dropped; they are service bookkeeping,
// not messages.
func renderMessages(items []genai.Item) []renderedMessage {
	var messages []renderedMessage
	for _, item := range items {
		if item.Role == "" {
			continue
		}
		text := item.Text()
		msg := renderedMessage{Role: item.Role, Text: text}

		if item.Role == "assistant" {
			var htmlBuf bytes.Buffer
			if err := goldmark.Convert([]byte(text), &htmlBuf); err == nil {
				msg.HTML = template.HTML(htmlBuf.String())
			}
		}
		messages = append(messages, msg)
	}
	return messages
}

// toUIMessages flattens transcript items for the JSON API. Items lacking an
// ID get a generated one so the browser has stable list keys.
func toUIMessages(items []genai.Item) []uiMessage {
	messages := make([]uiMessage, 0, len(items))
	for _, item := range items {
		if item.Role == "" {
			continue
		}
		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		text := item.Text()
		messages = append(messages, uiMessage{
			ID:      id,
			Role:    item.Role,
			Content: text,
			Parts:   []messagePart{{Type: "text", Text: text}},
		})
	}
	return messages
}
