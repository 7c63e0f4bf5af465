package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskpad/internal/store"
)

const shutdownTimeout = 5 * time.Second

type Inspector interface {
	Snapshot() store.Snapshot
	Stats() store.Stats
}

// NewRouter exposes the inspector and, when metricsHandler is non-nil, the
// Prometheus endpoint.
func NewRouter(insp Inspector, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/debug", func(r chi.Router) {
		r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, insp.Snapshot())
		})
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, insp.Stats())
		})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type Server struct {
	addr    string
	handler http.Handler
	logger  *log.Logger
}

func NewServer(addr string, handler http.Handler, logger *log.Logger) *Server {
	return &Server{addr: addr, handler: handler, logger: logger}
}

// Run listens on the configured address and blocks until ctx is cancelled or
// the listener fails. On cancellation it shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Start runs the server in the background. The returned wait blocks until the
// server has stopped, which after ctx ends includes the graceful shutdown.
func (s *Server) Start(ctx context.Context) (wait func() error) {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return sync.OnceValue(func() error { return <-done })
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("debug server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("debug server stopped")
		return nil
	}
}
