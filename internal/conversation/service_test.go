// ABOUTME: Tests for the conversation Service
// ABOUTME: Verifies creation ordering, title generation, and best-effort semantics

package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/genai"
	"github.com/parley-chat/parley/internal/store"
)

// mockRemote implements RemoteAPI for testing
type mockRemote struct {
	conversationID string
	createErr      error
	createCalls    int

	items    []genai.Item
	itemsErr error

	title      string
	titleErr   error
	titleCalls int
	lastPrompt string
}

func (m *mockRemote) CreateConversation(ctx context.Context) (string, error) {
	m.createCalls++
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.conversationID, nil
}

func (m *mockRemote) ListConversationItems(ctx context.Context, id string) ([]genai.Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items, nil
}

func (m *mockRemote) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	m.titleCalls++
	m.lastPrompt = prompt
	if m.titleErr != nil {
		return "", m.titleErr
	}
	return m.title, nil
}

func createTestStore(t *testing.T) *store.SQLiteStore {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestService_CreateConversation(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{conversationID: "conv-remote-1"}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	before := time.Now().UnixMilli()
	created, err := svc.CreateConversation(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "conv-remote-1", created.ID, "ID comes from the remote service")
	assert.GreaterOrEqual(t, created.CreatedAt, before)

	// The record is visible via the list, with no title yet.
	conversations, err := svc.ListConversations(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "conv-remote-1", conversations[0].ID)
	assert.Equal(t, "user-1", conversations[0].UserID)
	assert.Empty(t, conversations[0].Title)
}

func TestService_CreateConversation_EmptyUserID(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{conversationID: "conv-1"}
	svc := New(testStore, remote, nil)

	_, err := svc.CreateConversation(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userId is required")
	assert.Zero(t, remote.createCalls, "validation failure must not reach the remote service")
}

func TestService_CreateConversation_RemoteFailure(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{createErr: errors.New("service unavailable")}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	_, err := svc.CreateConversation(ctx, "user-1")
	require.Error(t, err)

	// No local record when the remote call failed.
	conversations, err := svc.ListConversations(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, conversations)
}

func TestService_GetConversation(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockRemote{}, nil)
	ctx := context.Background()

	require.NoError(t, testStore.Save(ctx, &store.Conversation{ID: "c1", UserID: "u1", CreatedAt: 100}))

	conv, err := svc.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", conv.UserID)

	_, err = svc.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_GetConversationHistory(t *testing.T) {
	remote := &mockRemote{items: []genai.Item{
		{ID: "i1", Role: "user"},
		{ID: "i2", Role: "assistant"},
	}}
	svc := New(store.NewMockStore(), remote, nil)

	items, err := svc.GetConversationHistory(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "assistant", items[1].Role)
}

func TestService_UpdateConversationTitle_UnknownID(t *testing.T) {
	testStore := createTestStore(t)
	svc := New(testStore, &mockRemote{}, nil)

	// Unknown ID is a warning, not an error.
	err := svc.UpdateConversationTitle(context.Background(), "missing", "Title")
	assert.NoError(t, err)
}

func TestService_AssignTitleIfAbsent(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{title: "Weather Talk"}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	require.NoError(t, testStore.Save(ctx, &store.Conversation{ID: "c1", UserID: "u1", CreatedAt: 100}))

	svc.AssignTitleIfAbsent(ctx, "c1", "what's the weather like?")

	conv, err := testStore.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Weather Talk", conv.Title)
	assert.Contains(t, remote.lastPrompt, "what's the weather like?")
}

func TestService_AssignTitleIfAbsent_Idempotent(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{title: "First Title"}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	require.NoError(t, testStore.Save(ctx, &store.Conversation{ID: "c1", UserID: "u1", CreatedAt: 100}))

	svc.AssignTitleIfAbsent(ctx, "c1", "hello")
	svc.AssignTitleIfAbsent(ctx, "c1", "hello again")

	assert.Equal(t, 1, remote.titleCalls, "second call must skip generation entirely")

	conv, err := testStore.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "First Title", conv.Title)
}

func TestService_AssignTitleIfAbsent_StripsQuotes(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{title: `"My Chat"`}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	require.NoError(t, testStore.Save(ctx, &store.Conversation{ID: "c1", UserID: "u1", CreatedAt: 100}))

	svc.AssignTitleIfAbsent(ctx, "c1", "hi")

	conv, err := testStore.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "My Chat", conv.Title)
}

func TestService_AssignTitleIfAbsent_GenerationFailureIsSilent(t *testing.T) {
	testStore := createTestStore(t)
	remote := &mockRemote{titleErr: errors.New("model overloaded")}
	svc := New(testStore, remote, nil)
	ctx := context.Background()

	require.NoError(t, testStore.Save(ctx, &store.Conversation{ID: "c1", UserID: "u1", CreatedAt: 100}))

	// Must not panic or propagate; the conversation stays untitled.
	svc.AssignTitleIfAbsent(ctx, "c1", "hi")

	conv, err := testStore.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, conv.Title)
}

func TestStripOuterQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"My Chat"`, "My Chat"},
		{`'My Chat'`, "My Chat"},
		{`""Nested""`, `"Nested"`}, // one layer only, not recursive
		{`No Quotes`, "No Quotes"},
		{`"Mismatched`, "Mismatched"},
		{``, ``},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripOuterQuotes(tt.in), "input %q", tt.in)
	}
}
