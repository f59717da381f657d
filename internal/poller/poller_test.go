// ABOUTME: Tests for the title poller
// ABOUTME: Uses shrunken intervals and a scripted fetcher to exercise the schedule

package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/store"
)

// scriptedFetcher returns a configurable list and counts fetches.
// titleAfter, when positive, makes the target conversation gain its title
// on the Nth fetch.
type scriptedFetcher struct {
	mu         sync.Mutex
	list       []*store.Conversation
	err        error
	calls      int
	titleAfter int
	titleID    string
	title      string
}

func (f *scriptedFetcher) FetchConversations(ctx context.Context) ([]*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	if f.titleAfter > 0 && f.calls >= f.titleAfter {
		for _, conv := range f.list {
			if conv.ID == f.titleID {
				conv.Title = f.title
			}
		}
	}

	out := make([]*store.Conversation, len(f.list))
	for i, conv := range f.list {
		c := *conv
		out[i] = &c
	}
	return out, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() config.PollerConfig {
	return config.PollerConfig{
		Interval:      5 * time.Millisecond,
		MaxAttempts:   5,
		RefreshDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	}
}

func TestPoller_EmptyID_NoOp(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p := New(fetcher, testConfig(), nil)

	p.PollForTitle(context.Background(), "")

	assert.Zero(t, fetcher.callCount())
}

func TestPoller_TitleAlreadyKnown_SingleRefresh(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{
			{ID: "conv-1", UserID: "u1", CreatedAt: 100, Title: "Known"},
		},
	}
	p := New(fetcher, testConfig(), nil)

	// Seed the snapshot so the immediate check sees the title.
	require.NoError(t, p.Refresh(context.Background()))
	seeded := fetcher.callCount()

	p.PollForTitle(context.Background(), "conv-1")

	assert.Equal(t, seeded+1, fetcher.callCount(), "titled conversation needs exactly one refresh")
}

func TestPoller_StopsWhenTitleAppears(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{
			{ID: "conv-1", UserID: "u1", CreatedAt: 100},
			{ID: "conv-2", UserID: "u1", CreatedAt: 200},
		},
		titleAfter: 3,
		titleID:    "conv-1",
		title:      "Generated",
	}
	p := New(fetcher, testConfig(), nil)

	p.PollForTitle(context.Background(), "conv-1")

	assert.Equal(t, 3, fetcher.callCount(), "polling must stop on the tick that finds the title")

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "conv-2", snapshot[0].ID, "snapshot is sorted newest-first")
	assert.Equal(t, "Generated", snapshot[1].Title)
}

func TestPoller_ExhaustsAttemptBudget(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{
			{ID: "conv-other", UserID: "u1", CreatedAt: 100},
		},
	}
	p := New(fetcher, testConfig(), nil)

	// conv-1 never appears; the poller must give up after MaxAttempts.
	p.PollForTitle(context.Background(), "conv-1")

	assert.Equal(t, 5, fetcher.callCount())

	// The list is left as last fetched.
	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "conv-other", snapshot[0].ID)
}

func TestPoller_FetchErrorsCountTowardBudget(t *testing.T) {
	fetcher := &scriptedFetcher{err: errors.New("network down")}
	p := New(fetcher, testConfig(), nil)

	start := time.Now()
	p.PollForTitle(context.Background(), "conv-1")

	assert.Equal(t, 5, fetcher.callCount(), "errors consume attempts without aborting the schedule")
	assert.Less(t, time.Since(start), time.Second)
}

func TestPoller_ContextCancellation(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{{ID: "conv-1", UserID: "u1", CreatedAt: 100}},
	}
	cfg := testConfig()
	cfg.Interval = time.Hour // would block forever without cancellation
	p := New(fetcher, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.PollForTitle(ctx, "conv-1")
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PollForTitle did not stop after context cancellation")
	}
}

func TestPoller_ScheduleRefreshes(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{{ID: "conv-1", UserID: "u1", CreatedAt: 100}},
	}
	p := New(fetcher, testConfig(), nil)

	p.ScheduleRefreshes(context.Background())

	// Both scheduled refreshes fire within their tiny delays.
	assert.Eventually(t, func() bool {
		return fetcher.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "conv-1", snapshot[0].ID)
}

func TestPoller_SnapshotIsACopy(t *testing.T) {
	fetcher := &scriptedFetcher{
		list: []*store.Conversation{{ID: "conv-1", UserID: "u1", CreatedAt: 100}},
	}
	p := New(fetcher, testConfig(), nil)
	require.NoError(t, p.Refresh(context.Background()))

	snap := p.Snapshot()
	snap[0] = nil

	again := p.Snapshot()
	require.Len(t, again, 1)
	assert.NotNil(t, again[0])
}
