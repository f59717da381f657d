// Package store provides persistent storage for conversation metadata using SQLite.
//
// # Why a local store at all
//
// Conversations live in the remote managed conversation service, which has no
// concept of an end user and cannot list conversations for one. This package
// owns the mapping from remote conversation IDs to a local user ID, plus
// display metadata such as the lazily generated title.
//
// # Data Model
//
// A single table:
//
//	conversations(id TEXT PRIMARY KEY, user_id TEXT NOT NULL,
//	              created_at INTEGER NOT NULL, title TEXT)
//
// with a secondary index on user_id. CreatedAt is epoch milliseconds. The
// title column is NULL until background generation completes; Save uses an
// upsert with COALESCE on title so a later metadata write can never erase a
// generated title with a blank one.
//
// # SQLite Configuration
//
// The store uses SQLite (modernc.org/sqlite, no cgo) with WAL mode for
// concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// The schema is created idempotently during NewSQLiteStore, before any
// operation can run.
//
// # Error Handling
//
// FindByID returns ErrNotFound for a missing row; UpdateTitle reports an
// unknown ID as (false, nil) rather than an error. Everything else wraps the
// underlying driver error. The store never retries.
//
// # Testing
//
// Use NewMockStore() for unit tests, or NewSQLiteStore with a t.TempDir()
// path for integration tests against real SQLite.
package store
