// Package server implements the HTTP surface for insightd: a chat endpoint
// with permissive CORS, JSON request/response shapes, and graceful
// shutdown.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/insightbot/insightd/agents"
	"github.com/insightbot/insightd/assistant"
	"github.com/rs/zerolog"
)

// Dispatcher runs the dispatch loop for one chat request.
type Dispatcher interface {
	Respond(ctx context.Context, registry *agents.Registry, req assistant.Request) (assistant.Outcome, error)
}

// RegistryLoader discovers the agent registry for a request.
type RegistryLoader interface {
	Discover(ctx context.Context) *agents.Registry
}

// Config holds server settings.
type Config struct {
	Addr string
}

// Server is the insightd HTTP server.
type Server struct {
	cfg        Config
	loader     RegistryLoader
	dispatcher Dispatcher
	logger     zerolog.Logger
	httpServer *http.Server
}

// New creates a Server.
func New(cfg Config, loader RegistryLoader, dispatcher Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		loader:     loader,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "http-server").Logger(),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		// Reflect the caller's origin so credentialed requests work.
		AllowOriginFunc:  func(_ *http.Request, _ string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Post("/api/chat", s.handleChat)
	// Route kept for clients still calling the old function endpoint.
	r.Post("/api/businessinsightbot_function", s.handleChat)

	return r
}

// Serve runs the server until the context is done or a termination signal
// arrives, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		Addr:              s.cfg.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("Server is starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Context done, shutting down server")
	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("Panic in request handler")
				writeError(w, http.StatusInternalServerError, "Internal server error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
