package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/logger"
)

// shutdownGrace bounds how long in-flight requests may finish after ctx ends
const shutdownGrace = 30 * time.Second

// Server is the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	http   *http.Server
	logger *logger.Logger
}

// New creates a server listening on cfg.Port
func New(cfg *config.Config, log *logger.Logger, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			// WriteTimeout 없음: /ws/runs 연결이 장시간 유지됨
		},
		logger: log,
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run serves until ctx ends, then shuts down gracefully.
// It returns early if the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("addr", ln.Addr().String()).Info("API server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
