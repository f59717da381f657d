// ABOUTME: Package documentation for webui
// ABOUTME: Describes the browser-facing HTTP layer

// Package webui serves the chat interface and the JSON API behind it.
//
// The package owns two surfaces: the HTML pages (conversation list and
// transcript view, rendered from embedded templates) and the /api routes
// the pages call from the browser. Chat responses are proxied through
// unmodified so the browser consumes the model's event stream directly.
package webui
