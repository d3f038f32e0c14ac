package statusapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/varpipe-io/varpipe/internal/config"
	"github.com/varpipe-io/varpipe/internal/statusapi/middleware"
)

const shutdownTimeout = 10 * time.Second

// Server is the optional status HTTP server (spec.md §4.5).
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	registry    *Registry
	rateLimiter middleware.RateLimiter
	startTime   time.Time
}

// NewServer builds a Server reading its listen address, API key, and rate
// limit from cfg. registry supplies the run/stage data served by
// GET /runs/{id}.
func NewServer(cfg *config.Configuration, registry *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "statusapi"))

	var rateLimiter middleware.RateLimiter
	if rps := cfg.GetInt("status_api.rate_limit", 0); rps > 0 {
		rateLimiter = middleware.NewInMemoryRateLimiter(float64(rps))
	}

	server := &Server{
		logger:      logger,
		registry:    registry,
		rateLimiter: rateLimiter,
	}

	mux := http.NewServeMux()
	server.setupRoutes(mux)

	keyHash := cfg.GetString("status_api.api_key", "")

	handler := middleware.Apply(mux,
		middleware.CorrelationID(),
		middleware.Recovery(logger),
		middleware.BearerAuth(keyHash),
		middleware.RateLimit(rateLimiter),
	)

	server.httpServer = &http.Server{
		Addr:              cfg.GetString("status_api.listen_addr", ":8085"),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server
}

// Start runs the server until a SIGINT/SIGTERM is received, then shuts
// down gracefully.
func (s *Server) Start() error {
	s.startTime = time.Now()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting status api server", slog.String("address", s.httpServer.Addr))

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("status api server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-stop:
		s.logger.Info("received shutdown signal", slog.String("signal", sig.String()))

		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("status api shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	return nil
}
