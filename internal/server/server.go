// Package server assembles the HTTP system of record: routes, middleware
// and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/autosave/internal/server/handlers"
	"github.com/iudanet/autosave/internal/server/middleware"
	"github.com/iudanet/autosave/internal/server/storage"
)

// HealthPath путь health endpoint
const HealthPath = "/api/v1/health"

// Config настройки HTTP сервера
type Config struct {
	Addr            string
	Version         string
	RateLimit       int // RateLimit записей на IP за RateWindow; 0 отключает ограничение
	RateWindow      time.Duration
	MaxPayloadBytes int64
	ShutdownTimeout time.Duration
}

// Server HTTP сервер хранилища записей
type Server struct {
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	logger     *slog.Logger
	cfg        Config
}

// New creates a server over store
func New(cfg Config, store storage.EntityStorage, logger *slog.Logger) *Server {
	s := &Server{
		logger: logger,
		cfg:    cfg,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(store),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return s
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(store storage.EntityStorage) http.Handler {
	entityHandler := handlers.NewEntityHandler(s.logger, store, s.cfg.MaxPayloadBytes)
	healthHandler := handlers.NewHealthHandler(s.logger, store, s.cfg.Version)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, healthHandler.Health)
	mux.HandleFunc("GET /api/v1/entities/{surface}/{id}", entityHandler.Get)
	mux.HandleFunc("PUT /api/v1/entities/{surface}/{id}", entityHandler.Put)

	var handler http.Handler = mux
	if s.cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(s.cfg.RateLimit, s.cfg.RateWindow)
		handler = middleware.RateLimit(s.limiter, s.logger, http.MethodPut)(handler)
	}
	// Порядок: RequestID -> Recovery -> Logging -> RateLimit -> mux
	handler = middleware.Logging(s.logger, HealthPath)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.stopLimiter()

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", ln.Addr().String(), "version", s.cfg.Version)
		errC <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) stopLimiter() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
