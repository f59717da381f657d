// ABOUTME: Title poller that converges the UI's conversation list after background title generation
// ABOUTME: Fixed-interval bounded polling plus an independent post-creation refresh schedule

package poller

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/store"
)

// ListFetcher fetches the current conversation list. In production this is
// the conversation service; tests substitute a scripted fetcher.
type ListFetcher interface {
	FetchConversations(ctx context.Context) ([]*store.Conversation, error)
}

// Poller keeps an in-memory snapshot of the conversation list and refreshes
// it until a freshly generated title shows up. There is no push channel from
// the title generator, so convergence is read-your-polls.
//
// The snapshot is only ever replaced wholesale; overlapping refreshes cannot
// corrupt it, the latest completed fetch simply wins.
type Poller struct {
	fetcher ListFetcher
	cfg     config.PollerConfig
	logger  *slog.Logger

	mu       sync.RWMutex
	snapshot []*store.Conversation
}

// New creates a Poller with the given policy. Zero values in cfg fall back
// to the defaults (2s interval, 5 attempts, refreshes at +2s/+7s/+17s).
func New(fetcher ListFetcher, cfg config.PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = config.DefaultPollInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = config.DefaultPollMaxAttempts
	}
	if len(cfg.RefreshDelays) == 0 {
		cfg.RefreshDelays = config.DefaultRefreshDelays()
	}
	return &Poller{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With("component", "poller"),
	}
}

// Snapshot returns a copy of the current conversation list, newest-first.
func (p *Poller) Snapshot() []*store.Conversation {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*store.Conversation, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// Refresh fetches the full list and replaces the snapshot.
func (p *Poller) Refresh(ctx context.Context) error {
	list, err := p.fetcher.FetchConversations(ctx)
	if err != nil {
		p.logger.Error("failed to fetch conversations", "error", err)
		return err
	}
	p.replaceSnapshot(list)
	return nil
}

// PollForTitle drives the snapshot toward a titled view of the given
// conversation after a message exchange completes.
//
// If the snapshot already shows a title for the conversation, a single
// refresh is enough. Otherwise it re-fetches on the configured interval
// until the title appears or the attempt budget is spent. Fetch errors
// count against the budget but do not abort the remaining ticks.
//
// The call blocks until polling terminates; run it on its own goroutine.
func (p *Poller) PollForTitle(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}

	if current := p.find(conversationID); current != nil && current.Title != "" {
		p.Refresh(ctx)
		return
	}

	p.logger.Debug("title missing or new conversation, polling for title",
		"conversation_id", conversationID)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for attempts := 1; attempts <= p.cfg.MaxAttempts; attempts++ {
		select {
		case <-ctx.Done():
			p.logger.Debug("title polling cancelled", "conversation_id", conversationID)
			return
		case <-ticker.C:
		}

		list, err := p.fetcher.FetchConversations(ctx)
		if err != nil {
			p.logger.Error("error polling for title",
				"conversation_id", conversationID,
				"attempt", attempts,
				"error", err)
			continue
		}

		p.replaceSnapshot(list)

		if conv := findIn(list, conversationID); conv != nil && conv.Title != "" {
			p.logger.Debug("title found",
				"conversation_id", conversationID,
				"title", conv.Title,
				"attempts", attempts)
			return
		}
	}

	p.logger.Debug("title polling exhausted", "conversation_id", conversationID)
}

// ScheduleRefreshes fires best-effort list refreshes at each configured
// delay after a brand-new conversation, independently of PollForTitle.
// Refreshes that fail are only logged.
func (p *Poller) ScheduleRefreshes(ctx context.Context) {
	for _, delay := range p.cfg.RefreshDelays {
		go func(d time.Duration) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			p.Refresh(ctx)
		}(delay)
	}
}

// replaceSnapshot installs a freshly fetched list, sorted newest-first.
func (p *Poller) replaceSnapshot(list []*store.Conversation) {
	sorted := make([]*store.Conversation, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	p.mu.Lock()
	p.snapshot = sorted
	p.mu.Unlock()
}

// find looks up a conversation in the current snapshot.
func (p *Poller) find(conversationID string) *store.Conversation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return findIn(p.snapshot, conversationID)
}

func findIn(list []*store.Conversation, conversationID string) *store.Conversation {
	for _, conv := range list {
		if conv.ID == conversationID {
			return conv
		}
	}
	return nil
}
