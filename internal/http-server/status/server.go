package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// NewRouter builds the status routes.
func NewRouter(log *slog.Logger, tracker *Tracker) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Status requested", slog.String("request_id", middleware.GetReqID(r.Context())))
		render.JSON(w, r, tracker.Snapshot())
	})

	return router
}

// Server serves the status routes until its context is cancelled.
type Server struct {
	log *slog.Logger
	srv *http.Server
}

func NewServer(log *slog.Logger, address string, tracker *Tracker) *Server {
	return &Server{
		log: log,
		srv: &http.Server{
			Addr:              address,
			Handler:           NewRouter(log, tracker),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Run listens until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	const opn = "status.Run"
	log := s.log.With("op", opn)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Status server is starting...", "address", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s: %w", opn, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: failed to shut down: %w", opn, err)
	}
	log.Info("Status server is stopped...")

	return nil
}
