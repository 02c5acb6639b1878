// Package httpserver exposes the bot's operational surface: health probes,
// version, Prometheus metrics, the live voting status and, when EventSub
// webhooks are configured, the webhook callback endpoint.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/chatplays/internal/adapter/postgres"
	"github.com/pscheid92/chatplays/internal/domain"
	"github.com/pscheid92/chatplays/internal/platform/config"
)

// cycleStatus is the slice of the voting cycle the status endpoint reports.
type cycleStatus interface {
	Running() bool
	Window() time.Duration
	MinVotes() int
}

// outcomeSource serves the recent-winners listing.
type outcomeSource interface {
	RecentOutcomes(ctx context.Context, limit int) ([]domain.Outcome, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	service  cycleStatus
	store    domain.VoteStore
	journal  outcomeSource
	commands domain.CommandSet

	metricsHandler http.Handler
	webhookHandler http.Handler

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the ops endpoints. journal and webhookHandler may be nil;
// the corresponding routes are then not registered.
func NewServer(cfg *config.Config, service cycleStatus, store domain.VoteStore, journal *postgres.OutcomeJournal, commands domain.CommandSet, metricsHandler, webhookHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		service:        service,
		store:          store,
		commands:       commands,
		metricsHandler: metricsHandler,
		webhookHandler: webhookHandler,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}
	if journal != nil {
		srv.journal = journal
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
