// Package server exposes the scenario dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/san-kum/ctrlsim/internal/logger"
	"github.com/san-kum/ctrlsim/internal/sessionlog"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	sessionWriteTimeout    = 10 * time.Second
	maxBodyBytes           = 1 << 20
)

type Options struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	// AccessLog receives combined-format request logs; nil disables them.
	AccessLog io.Writer
}

// History looks up logged sessions.
type History interface {
	Recent(n int) ([]sessionlog.Entry, error)
	Get(id string) (sessionlog.Entry, error)
}

type Server struct {
	opts     Options
	sessions *sessionlog.Logger
	history  History
	log      *logger.Logger
	handler  http.Handler
	wg       sync.WaitGroup
}

// New builds the HTTP surface. sessions and history may be nil.
func New(opts Options, sessions *sessionlog.Logger, history History) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		opts:     opts,
		sessions: sessions,
		history:  history,
		log:      logger.New("HTTPServer"),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/simulate/{system_type}", s.handleSimulate).Methods(http.MethodPost)
	r.HandleFunc("/systems", s.handleSystems).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.handleSession).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.opts.AllowedOrigins),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	var h http.Handler = cors(r)
	if s.opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(s.opts.AccessLog, h)
	}
	return h
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully and
// waits for pending session writes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("Listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		s.log.Info("Stopped")
		return err
	case err := <-errCh:
		s.Close()
		if err != nil {
			s.log.Error("Stopped: %v", err)
		}
		return err
	}
}

// Close waits for background session writes to finish.
func (s *Server) Close() {
	s.wg.Wait()
}

func (s *Server) logSession(e sessionlog.Entry) {
	if !s.sessions.Enabled() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sessionWriteTimeout)
		defer cancel()
		if _, err := s.sessions.Log(ctx, e); err != nil {
			s.log.Error("session log for %s: %v", e.System, err)
		}
	}()
}
