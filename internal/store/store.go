// ABOUTME: Store interface and data types for parley conversation persistence
// ABOUTME: Defines the Conversation record and the Store interface for database operations

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested conversation does not exist
var ErrNotFound = errors.New("not found")

// Conversation maps a remote conversation ID to its owning local user.
// The remote conversation service has no concept of an end user, so this
// record is the only place ownership and display metadata live.
type Conversation struct {
	// ID is assigned by the remote conversation API, never generated locally.
	ID     string `json:"id"`
	UserID string `json:"userId"`

	// CreatedAt is epoch milliseconds, set once at creation.
	CreatedAt int64 `json:"createdAt"`

	// Title is empty until background generation completes.
	Title string `json:"title,omitempty"`
}

// Store defines the interface for conversation metadata persistence
type Store interface {
	// FindAll returns conversations ordered newest-first by created_at.
	// An empty userID returns all users' conversations. An empty result
	// is not an error.
	FindAll(ctx context.Context, userID string) ([]*Conversation, error)

	// FindByID returns the conversation or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Conversation, error)

	// Save upserts a conversation. On conflict the existing title is kept
	// when the incoming one is empty, so a metadata update can never erase
	// a generated title.
	Save(ctx context.Context, conv *Conversation) error

	// UpdateTitle sets the title unconditionally when the row exists.
	// Returns false (and no error) for an unknown ID; never creates a row.
	UpdateTitle(ctx context.Context, id, title string) (bool, error)

	// Close releases any resources held by the store
	Close() error
}
