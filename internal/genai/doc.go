// Package genai is the HTTP client for the managed conversation service.
//
// The service speaks an OpenAI-compatible API rooted at a configured base
// URL. Four operations are used:
//
//   - POST /conversations: create a conversation, returns {id}
//   - GET /conversations/{id}/items?order=asc: ordered transcript items
//   - POST /responses (input only): one-shot generation, used for titles
//   - POST /responses (stream: true, conversation: id): streamed model turn
//
// Every request carries the bearer API key and, when configured, the
// conversation-store header the service uses to scope transcripts.
//
// Any non-2xx status is a hard failure; the response text is folded into the
// returned error. This package never retries — callers decide whether a
// failure is fatal (conversation creation) or best-effort (title generation).
package genai
