// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides conversation metadata persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// Running it is idempotent, and every operation goes through a store
// constructed here, so the schema is always ready before first use.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			title TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_user_id
			ON conversations(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// FindAll retrieves conversations ordered newest-first.
// An empty userID returns every user's conversations.
func (s *SQLiteStore) FindAll(ctx context.Context, userID string) ([]*Conversation, error) {
	query := `
		SELECT id, user_id, created_at, title
		FROM conversations
		ORDER BY created_at DESC
	`
	args := []any{}

	if userID != "" {
		query = `
			SELECT id, user_id, created_at, title
			FROM conversations
			WHERE user_id = ?
			ORDER BY created_at DESC
		`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}

	return conversations, nil
}

// FindByID retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, title
		FROM conversations
		WHERE id = ?
	`, id)

	conv, err := scanConversation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	return conv, nil
}

// Save inserts or updates a conversation.
// On conflict the title is coalesced: an empty incoming title leaves the
// stored one untouched, so a re-save can never blank out a generated title.
func (s *SQLiteStore) Save(ctx context.Context, conv *Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, created_at, title)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			title = COALESCE(excluded.title, conversations.title)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.UserID,
		conv.CreatedAt,
		nullString(conv.Title),
	)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	s.logger.Debug("saved conversation", "id", conv.ID, "user_id", conv.UserID)
	return nil
}

// UpdateTitle sets the title of an existing conversation.
// Returns whether a row was affected; an unknown ID reports false without error.
func (s *SQLiteStore) UpdateTitle(ctx context.Context, id, title string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET title = ? WHERE id = ?
	`, title, id)
	if err != nil {
		return false, fmt.Errorf("updating title: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("updated conversation title", "id", id, "title", title)
	}
	return rowsAffected > 0, nil
}

// scanConversation reads one row via the given scan function,
// mapping a NULL title to the empty string.
func scanConversation(scan func(dest ...any) error) (*Conversation, error) {
	var conv Conversation
	var title sql.NullString

	if err := scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &title); err != nil {
		return nil, err
	}

	if title.Valid {
		conv.Title = title.String
	}
	return &conv, nil
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
