package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// APIService runs the HTTP surface: the telemetry ingestion entry point,
// the dashboard read endpoints and the probes.
type APIService struct {
	addr   string
	server *echo.Echo
	logger zerolog.Logger

	running bool
}

// NewAPIService creates a new APIService around a configured Echo instance.
func NewAPIService(addr string, server *echo.Echo, logger zerolog.Logger) *APIService {
	return &APIService{
		addr:   addr,
		server: server,
		logger: logger,
	}
}

// Start serves HTTP in the background.
func (s *APIService) Start() error {
	if s.running {
		s.logger.Warn().Msg("APIService is already running")
		return errors.New("api service is already running")
	}
	s.running = true

	go func() {
		if err := s.server.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	s.logger.Info().Str("addr", s.addr).Msg("APIService started")
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (s *APIService) Stop() error {
	if !s.running {
		s.logger.Warn().Msg("APIService is not running")
		return errors.New("api service is not running")
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to shut down HTTP server")
		return err
	}

	s.logger.Info().Msg("APIService stopped")
	return nil
}
