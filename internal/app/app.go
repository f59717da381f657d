// ABOUTME: Top-level composition of the parley server
// ABOUTME: Wires store, remote client, conversation service, poller, and webui

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/conversation"
	"github.com/parley-chat/parley/internal/genai"
	"github.com/parley-chat/parley/internal/poller"
	"github.com/parley-chat/parley/internal/store"
	"github.com/parley-chat/parley/internal/webui"
)

// App owns the long-lived pieces of the parley server.
type App struct {
	config     *config.Config
	store      store.Store
	poller     *poller.Poller
	httpServer *http.Server
	logger     *slog.Logger
}

// serviceFetcher adapts the conversation service to the poller, which
// watches the whole table rather than a single user's slice.
type serviceFetcher struct {
	service *conversation.Service
}

func (f serviceFetcher) FetchConversations(ctx context.Context) ([]*store.Conversation, error) {
	return f.service.ListConversations(ctx, "")
}

// New creates the app with all components wired together.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	remote := genai.NewClient(cfg.GenAI)
	convService := conversation.New(s, remote, logger.With("component", "conversation"))

	titlePoller := poller.New(serviceFetcher{service: convService}, cfg.Poller,
		logger.With("component", "poller"))

	mux := http.NewServeMux()
	webui.New(convService, remote, titlePoller).RegisterRoutes(mux)

	return &App{
		config: cfg,
		store:  s,
		poller: titlePoller,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "app"),
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		a.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		a.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := a.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the run context is already canceled.
func (a *App) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
