// Package health serves the plain-text liveness endpoints probed by hosting platforms.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/m3rciful/gatekeeper/core/logger"
)

const (
	// RootBody is returned by GET /.
	RootBody = "Bot is running"
	// HealthBody is returned by GET /health.
	HealthBody = "OK"

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// NewHandler returns the liveness routes. They never touch the bot or the
// membership oracle, so they keep answering while Telegram is unreachable.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writePlain(w, r, RootBody)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writePlain(w, r, HealthBody)
	})
	return mux
}

func writePlain(w http.ResponseWriter, r *http.Request, body string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(body))
	}
}

// Server runs the liveness listener next to the bot.
type Server struct {
	addr string
	srv  *http.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer prepares a listener on addr ("host:port").
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start binds the listener and serves in the background. A bind failure is
// returned to the caller; the bot must not run without its liveness probe.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("health: already started on %s", s.Addr())
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		logger.Error(ctx, "health", "listen",
			slog.String("status", "fail"),
			slog.String("addr", s.addr),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("health: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "health", "serve",
				slog.String("status", "fail"),
				slog.String("addr", ln.Addr().String()),
				slog.String("err", err.Error()),
			)
		}
	}(s.done)

	logger.Info(ctx, "health", "listen",
		slog.String("status", "ok"),
		slog.String("addr", ln.Addr().String()),
	)
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops the listener and waits for in-flight probes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	started := s.listener != nil
	s.mu.Unlock()
	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(shutdownCtx)
	<-done

	logger.Info(ctx, "health", "shutdown",
		slog.String("status", statusOf(err)),
		slog.String("addr", s.addr),
	)
	return err
}

func statusOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}
