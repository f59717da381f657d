// ABOUTME: HTTP client for the managed OpenAI-compatible conversation service
// ABOUTME: Creates conversations, lists items, generates titles, and streams responses

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parley-chat/parley/internal/config"
)

// Client talks to the remote conversation service. The service owns the
// conversation transcripts; parley only ever reads them back or appends via
// streamed responses.
type Client struct {
	baseURL    string
	apiKey     string
	storeID    string
	chatModel  string
	titleModel string
	httpClient *http.Client
	// streamClient has no client-level timeout; the request context bounds
	// streamed responses instead, since a stream can legitimately outlive
	// the JSON request timeout.
	streamClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a client from the genai config block.
func NewClient(cfg config.GenAIConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = config.DefaultRequestTimeout
	}
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		storeID:      cfg.ConversationStoreID,
		chatModel:    cfg.ChatModel,
		titleModel:   cfg.TitleModel,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		logger:       slog.Default().With("component", "genai"),
	}
}

// Item is a single conversation item as returned by the remote service.
// Content is either a plain string or an array of parts, so it stays raw
// until flattened.
type Item struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentPart is one element of an array-valued content field. The text
// field itself is either a string or an object carrying a value.
type contentPart struct {
	Text json.RawMessage `json:"text"`
}

// Text flattens the item content to plain text. String content is returned
// as-is; array content concatenates each part's text, unwrapping the
// {"value": ...} object form the service sometimes uses.
func (it *Item) Text() string {
	if len(it.Content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(it.Content, &s); err == nil {
		return s
	}

	var parts []contentPart
	if err := json.Unmarshal(it.Content, &parts); err != nil {
		return ""
	}

	var b strings.Builder
	for _, p := range parts {
		if len(p.Text) == 0 {
			continue
		}
		var text string
		if err := json.Unmarshal(p.Text, &text); err == nil {
			b.WriteString(text)
			continue
		}
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(p.Text, &obj); err == nil {
			b.WriteString(obj.Value)
		}
	}
	return b.String()
}

// CreateConversation creates a new conversation in the remote service and
// returns its ID. Any non-2xx response is a hard failure.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/conversations", []byte("{}"))
	if err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding conversation response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("conversation response did not include an ID")
	}

	c.logger.Debug("created remote conversation", "id", resp.ID)
	return resp.ID, nil
}

// ListConversationItems retrieves the items of a conversation in ascending
// order. The service wraps the list in either a data or items envelope, and
// older deployments return a bare array; all three are accepted.
func (c *Client) ListConversationItems(ctx context.Context, conversationID string) ([]Item, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/items?order=asc"
	body, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieving conversation %s: %w", conversationID, err)
	}

	var envelope struct {
		Data  []Item `json:"data"`
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Data != nil {
			return envelope.Data, nil
		}
		if envelope.Items != nil {
			return envelope.Items, nil
		}
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding conversation items: %w", err)
	}
	return items, nil
}

// GenerateTitle asks the title model for a completion of the given prompt
// and returns the output text.
func (c *Client) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"model": c.titleModel,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("encoding title request: %w", err)
	}

	body, err := c.doJSON(ctx, http.MethodPost, "/responses", reqBody)
	if err != nil {
		return "", fmt.Errorf("generating title: %w", err)
	}

	text, err := extractOutputText(body)
	if err != nil {
		return "", fmt.Errorf("decoding title response: %w", err)
	}
	return text, nil
}

// StreamRequest describes a streamed model turn on an existing conversation.
type StreamRequest struct {
	ConversationID string
	UserMessage    string
}

// StreamResponse sends a user message on an existing conversation and returns
// the raw event stream for pass-through to the browser. The caller owns the
// returned body and must close it.
func (c *Client) StreamResponse(ctx context.Context, req *StreamRequest) (io.ReadCloser, string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"model":        c.chatModel,
		"input":        req.UserMessage,
		"stream":       true,
		"store":        true,
		"conversation": req.ConversationID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("encoding stream request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/responses", bytes.NewReader(reqBody))
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("streaming response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, "", fmt.Errorf("streaming response: status %d: %s", resp.StatusCode, strings.TrimSpace(string(errText)))
	}

	c.logger.Debug("stream opened",
		"conversation_id", req.ConversationID,
		"elapsed", time.Since(start))

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	return resp.Body, contentType, nil
}

// newRequest builds a request with the auth and conversation-store headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.storeID != "" {
		req.Header.Set("opc-conversation-store-id", c.storeID)
	}
	return req, nil
}

// doJSON performs a request and returns the response body, treating any
// non-2xx status as an error carrying the response text.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// extractOutputText pulls the generated text out of a responses-API body,
// preferring the flattened output_text field when present.
func extractOutputText(body []byte) (string, error) {
	var resp struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}

	if resp.OutputText != "" {
		return resp.OutputText, nil
	}

	var b strings.Builder
	for _, out := range resp.Output {
		if out.Type != "" && out.Type != "message" {
			continue
		}
		for _, part := range out.Content {
			if part.Type == "output_text" || part.Type == "" {
				b.WriteString(part.Text)
			}
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("response did not include output text")
	}
	return b.String(), nil
}
