// Package server exposes the fact-check pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/worker"
)

// Checker runs one fact-check
type Checker interface {
	Check(ctx context.Context, input string) (*model.CheckResult, error)
}

// Server is a chi router plus a stdlib http.Server
type Server struct {
	cfg      model.ServerConfig
	checker  Checker
	state    *State
	validate *validator.Validate
	log      *logger.Logger
	mux      *chi.Mux
	srv      *http.Server
}

// New creates the HTTP service. Checks are refused until state is ready.
func New(cfg model.ServerConfig, checker Checker, state *State) *Server {
	if state == nil {
		state = NewState(nil)
	}
	s := &Server{
		cfg:      cfg,
		checker:  checker,
		state:    state,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.Named("http"),
	}
	s.mux = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(recoverJSON(s.log))
	r.Use(accessLog(s.log, 30*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", headerRequestID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(worker.NewLimiter(s.cfg.RequestsPerSecond, s.cfg.Burst)))
		r.Post("/check", s.handleCheck)
	})
	return r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// State returns the readiness state
func (s *Server) State() *State {
	return s.state
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.log.Info().Msg("http shutting down")
		return s.srv.Shutdown(shutdownCtx)
	}
}
