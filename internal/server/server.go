// Package server exposes a view-count strategy over HTTP so the load
// generator has something to race against.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/viewrace/internal/metrics"
	"github.com/wesleyorama2/viewrace/internal/viewcount"
)

// ShutdownTimeout bounds how long in-flight requests may take after the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

// Server represents the target HTTP server
type Server struct {
	strategy viewcount.Strategy
	postID   int64
	metrics  *metrics.Engine
	log      *zap.Logger
	handler  http.Handler
}

// Options configures a Server.
type Options struct {
	// PostID is the only post the server accepts increments for
	PostID int64

	// Logger receives access and error logs (default: no-op)
	Logger *zap.Logger

	// Metrics records increment latencies (default: a fresh engine)
	Metrics *metrics.Engine
}

// New creates a server for the given strategy.
func New(strategy viewcount.Strategy, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewEngine()
	}

	s := &Server{
		strategy: strategy,
		postID:   opts.PostID,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the latency engine behind /api/stats.
func (s *Server) Metrics() *metrics.Engine {
	return s.metrics
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("strategy", s.strategy.Name()),
			zap.Int64("post_id", s.postID))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", zap.Int("in_flight", s.metrics.InFlight()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
