// ABOUTME: Browser-facing HTTP layer for parley
// ABOUTME: JSON API for conversations plus the chat page and streaming proxy

package webui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/parley-chat/parley/internal/conversation"
	"github.com/parley-chat/parley/internal/genai"
	"github.com/parley-chat/parley/internal/poller"
	"github.com/parley-chat/parley/internal/store"
)

// titleGenTimeout bounds the detached title-generation call so a hung remote
// request cannot pin a goroutine forever.
const titleGenTimeout = 30 * time.Second

// ConversationAPI defines what the handlers need from the conversation service
type ConversationAPI interface {
	CreateConversation(ctx context.Context, userID string) (*conversation.Created, error)
	ListConversations(ctx context.Context, userID string) ([]*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	GetConversationHistory(ctx context.Context, id string) ([]genai.Item, error)
	AssignTitleIfAbsent(ctx context.Context, conversationID, firstMessage string)
}

// Streamer defines what the handlers need for the chat pass-through
type Streamer interface {
	StreamResponse(ctx context.Context, req *genai.StreamRequest) (io.ReadCloser, string, error)
}

// Server handles the chat UI routes and the JSON API consumed by the browser
type Server struct {
	service ConversationAPI
	remote  Streamer
	poller  *poller.Poller
	logger  *slog.Logger
}

// New creates a new webui Server
func New(service ConversationAPI, remote Streamer, titlePoller *poller.Poller) *Server {
	return &Server{
		service: service,
		remote:  remote,
		poller:  titlePoller,
		logger:  slog.Default().With("component", "webui"),
	}
}

// RegisterRoutes registers all webui routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleChatPage)
	mux.HandleFunc("GET /chat/{id}", s.handleChatView)

	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("GET /api/conversations/{id}/items", s.handleConversationItems)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /health", s.handleHealth)
}

// dataResponse wraps successful list/item payloads
type dataResponse struct {
	Data any `json:"data"`
}

// errorResponse is the JSON error body
type errorResponse struct {
	Error string `json:"error"`
}

// uiMessage is a transcript item flattened for the browser
type uiMessage struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Parts   []messagePart `json:"parts"`
}

type messagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// chatRequest is the JSON body of POST /api/chat
type chatRequest struct {
	UserMessage    string `json:"userMessage"`
	ConversationID string `json:"conversationId"`
}

// handleListConversations handles GET /api/conversations?userId=U.
// No filter returns all users' conversations.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	conversations, err := s.service.ListConversations(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list conversations", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch conversations"})
		return
	}

	if conversations == nil {
		conversations = []*store.Conversation{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: conversations})
}

// handleCreateConversation handles POST /api/conversations.
// Creation failures block the new chat and must surface to the user.
func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId is required"})
		return
	}

	created, err := s.service.CreateConversation(r.Context(), req.UserID)
	if err != nil {
		s.logger.Error("failed to create conversation", "user_id", req.UserID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to create conversation"})
		return
	}

	// Surface the title once background generation lands, even if the
	// client never drives the poll path itself.
	if s.poller != nil {
		s.poller.ScheduleRefreshes(context.Background())
	}

	writeJSON(w, http.StatusOK, created)
}

// handleGetConversation handles GET /api/conversations/{id}
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, err := s.service.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Conversation not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to get conversation", "conversation_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: conv})
}

// handleConversationItems handles GET /api/conversations/{id}/items,
// returning the remote transcript flattened for the UI.
func (s *Server) handleConversationItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	items, err := s.service.GetConversationHistory(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to fetch conversation history", "conversation_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to fetch conversation history"})
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: toUIMessages(items)})
}

// handleChat handles POST /api/chat: proxies the model's event stream back to
// the browser, then kicks off best-effort title generation and polling.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	if req.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "conversationId is required"})
		return
	}

	body, contentType, err := s.remote.StreamResponse(r.Context(), &genai.StreamRequest{
		ConversationID: req.ConversationID,
		UserMessage:    req.UserMessage,
	})
	if err != nil {
		s.logger.Error("stream error", "conversation_id", req.ConversationID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "An error occurred while processing your request"})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				s.logger.Debug("client disconnected during stream",
					"conversation_id", req.ConversationID)
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			s.logger.Error("stream read error",
				"conversation_id", req.ConversationID,
				"error", readErr)
			break
		}
	}

	// Title generation runs detached from the request with its own timeout,
	// so a cancelled response cannot abort it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleGenTimeout)
		defer cancel()
		s.service.AssignTitleIfAbsent(ctx, req.ConversationID, req.UserMessage)
	}()

	if s.poller != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			s.poller.PollForTitle(ctx, req.ConversationID)
		}()
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}
