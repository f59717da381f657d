// Package conversation provides the service layer between local persistence
// and the remote conversation API.
//
// # Overview
//
// The Service is the only reader/writer of the conversation store. It
// coordinates three concerns:
//
//   - Creation: remote create first, then local Save. A remote failure
//     leaves no local record; a local failure after a successful remote
//     call orphans the remote conversation (accepted, logged, never
//     reconciled).
//   - Reads: ListConversations/GetConversation delegate to the store;
//     GetConversationHistory delegates to the remote item listing.
//   - Titles: AssignTitleIfAbsent derives a short label from the first
//     message via the title model. It is idempotent (an existing title
//     short-circuits before any remote call), strips one layer of quotes
//     from the model output, and swallows every failure because it runs
//     detached from the request/response cycle.
//
// # Error Taxonomy
//
// Validation errors (empty userId) and remote-dependency errors surface to
// the caller. Best-effort background errors are logged only. Unknown IDs on
// title update are a warning, not an error.
package conversation
