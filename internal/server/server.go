package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/connection"
	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/playback"
	"github.com/muurk/musikremote/internal/prefs"
	"github.com/muurk/musikremote/internal/settings"
	"github.com/muurk/musikremote/internal/streamproxy"
)

const shutdownTimeout = 10 * time.Second

// Config holds the daemon configuration
type Config struct {
	Listen   string // host:port for the control API and audio proxy
	CacheDir string // Stream cache directory
	Watch    bool   // Reload collaborators when the preferences file changes
}

// Watcher is implemented by stores that can report external changes
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Refresher is implemented by stores that cache their contents and can
// re-read them on demand
type Refresher interface {
	Refresh() error
}

// Server hosts the collaborators that react to preference changes: the
// streaming proxy, the connection service and the mixer.
type Server struct {
	config *Config
	store  prefs.Store
	rec    *settings.Reconciler

	proxy *streamproxy.Proxy
	conn  *connection.Service
	mixer *playback.Mixer

	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a daemon reading preferences from store
func New(config *Config, store prefs.Store) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: store is required")
	}

	s := &Server{
		config: config,
		store:  store,
		rec:    settings.NewReconciler(settings.Options{Store: store}),
		mixer:  playback.NewMixer(),
	}

	proxy, err := streamproxy.New(streamproxy.Options{
		Load:     s.load,
		Choices:  s.rec.Choices(),
		CacheDir: config.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream proxy: %w", err)
	}
	s.proxy = proxy
	s.conn = connection.NewService(s.load)

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// load returns the normalized preferences
func (s *Server) load() settings.WorkingSet {
	return s.rec.Load()
}

// refreshStore picks up writes made by other processes, when the store
// supports it
func (s *Server) refreshStore() {
	r, ok := s.store.(Refresher)
	if !ok {
		return
	}
	if err := r.Refresh(); err != nil {
		logging.Warn("Failed to refresh preferences, keeping previous values", zap.Error(err))
	}
}

// Start listens on the configured address and blocks until SIGINT/SIGTERM
// or a fatal serve error
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve runs the daemon on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.listener = listener
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	ws := s.load()
	logging.Info("Starting musikremote daemon",
		zap.String("addr", listener.Addr().String()),
		zap.String("server", settings.Summary(ws)),
		zap.String("cache_dir", s.config.CacheDir),
		zap.Bool("watch", s.config.Watch),
	)

	if s.config.Watch {
		if w, ok := s.store.(Watcher); ok {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := w.Watch(ctx, s.onStoreChanged); err != nil {
					logging.Error("Preference watcher stopped", zap.Error(err))
				}
			}()
		} else {
			logging.Debug("Store does not support watching, relying on control API")
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping daemon...")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// onStoreChanged applies preferences written by another process
func (s *Server) onStoreChanged() {
	if err := s.proxy.Reload(); err != nil {
		logging.LogNotification(settings.CollaboratorProxy, "reload", err)
	}
	if err := s.conn.Disconnect(); err != nil {
		logging.LogNotification(settings.CollaboratorConnection, "disconnect", err)
	}
}

// Addr returns the listening address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting requests, drops the server connection and waits
// for the watcher to exit
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down daemon...")

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := s.conn.Disconnect(); err != nil {
		logging.Warn("Error closing server connection", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Daemon stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}
