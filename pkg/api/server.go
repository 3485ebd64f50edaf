package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/pkg/api/docs"
	"github.com/fundify/indexer/pkg/config"
)

// Ensure docs are initialized
var _ = docs.SwaggerInfo

const shutdownCtxTimeout = 10 * time.Second

// Server represents the API HTTP server.
type Server struct {
	config  *config.APIConfig
	handler *Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a new API server.
func NewServer(cfg *config.APIConfig, store ReadModel, status StatusProvider, log *logger.Logger) *Server {
	log = log.WithComponent(common.ComponentReadAPI)
	handler := NewHandler(store, status, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /api/v1/status", handler.GetStatus)

	mux.HandleFunc("GET /api/v1/projects", handler.ListProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}", handler.GetProjectByID)
	mux.HandleFunc("GET /api/v1/projects/{owner}/{index}", handler.GetProject)
	mux.HandleFunc("GET /api/v1/projects/{owner}/{index}/investments", handler.GetProjectInvestments)
	mux.HandleFunc("GET /api/v1/projects/{owner}/{index}/voting-cycles", handler.ListVotingCycles)
	mux.HandleFunc("GET /api/v1/projects/{owner}/{index}/voting-cycles/{cycle}/votes", handler.ListVotes)

	mux.HandleFunc("GET /api/v1/votes/check", handler.CheckVote)
	mux.HandleFunc("GET /api/v1/investors/{address}/investments", handler.ListInvestorInvestments)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)

	if cfg.CORS.Enabled {
		h = CORSMiddleware(cfg.CORS.AllowedOrigins)(h)
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		log:     log,
	}
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves the API until ctx is cancelled. It returns immediately when the API is disabled.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.log.Infof("starting API server on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("shutting down API server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
