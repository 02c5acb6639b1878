package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/chatplays/internal/adapter/eventpublisher"
	"github.com/pscheid92/chatplays/internal/adapter/httpserver"
	"github.com/pscheid92/chatplays/internal/adapter/memory"
	"github.com/pscheid92/chatplays/internal/adapter/metrics"
	"github.com/pscheid92/chatplays/internal/adapter/postgres"
	"github.com/pscheid92/chatplays/internal/adapter/redis"
	"github.com/pscheid92/chatplays/internal/adapter/twitch"
	"github.com/pscheid92/chatplays/internal/app"
	"github.com/pscheid92/chatplays/internal/domain"
	"github.com/pscheid92/chatplays/internal/platform/config"
	"github.com/pscheid92/chatplays/internal/platform/logging"
)

type webhookResult struct {
	eventsubManager *twitch.EventSubManager
	webhookHandler  *twitch.WebhookHandler
}

func initWebhooks(cfg *config.Config, intake *app.Intake) webhookResult {
	eventsubManager, err := twitch.NewEventSubManager(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.WebhookCallbackURL, cfg.WebhookSecret, cfg.BotUserID)
	if err != nil {
		slog.Error("Failed to create EventSub manager", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := eventsubManager.Setup(ctx); err != nil {
		slog.Error("Failed to setup webhook conduit", "error", err)
		os.Exit(1)
	}
	if err := eventsubManager.Subscribe(ctx, cfg.BroadcasterUserID); err != nil {
		slog.Error("Failed to subscribe to channel chat", "error", err)
		os.Exit(1)
	}

	webhookHandler := twitch.NewWebhookHandler(cfg.WebhookSecret, cfg.BroadcasterUserID, intake.HandleMessage)

	return webhookResult{
		eventsubManager: eventsubManager,
		webhookHandler:  webhookHandler,
	}
}

func runGracefulShutdown(srv *httpserver.Server, cycle *app.Service, stopIntake context.CancelFunc, publisher *eventpublisher.OutcomePublisher, conduitMgr *twitch.EventSubManager) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cycle.Stop()
		stopIntake()

		if publisher != nil {
			if err := publisher.Close(); err != nil {
				slog.Error("Failed to close outcome publisher", "error", err)
			}
		}

		if conduitMgr != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := conduitMgr.Cleanup(shutdownCtx); err != nil {
				slog.Error("Failed to clean up conduit", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	commands, err := domain.NewCommandSet(cfg.CommandList())
	if err != nil {
		slog.Error("Invalid command set", "error", err)
		os.Exit(1)
	}

	var healthChecks []httpserver.HealthCheck

	// Vote ledger: Redis stream when configured, in-memory otherwise.
	var store domain.VoteStore
	if cfg.RedisURL != "" {
		redisClient := setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()

		store = redis.NewVoteLedger(redisClient, commands, cfg.VoteWindow, cfg.Channel)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	} else {
		store = memory.NewVoteLedger(commands, cfg.VoteWindow, clock)
	}

	registry := metrics.NewRegistry()
	observers := []domain.CycleObserver{app.LoggingObserver{}, metrics.NewCycleMetrics(registry)}

	// Outcome journal when a database is configured.
	var journal *postgres.OutcomeJournal
	if cfg.DatabaseURL != "" {
		pool := setupDB(cfg)
		defer pool.Close()

		journal = postgres.NewOutcomeJournal(pool)
		observers = append(observers, postgres.NewOutcomeObserver(journal))
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "postgres",
			Check: func(ctx context.Context) error { return pool.Ping(ctx) },
		})
	}

	// Kafka winner relay when brokers are configured.
	var publisher *eventpublisher.OutcomePublisher
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		publisher = eventpublisher.NewOutcomePublisher(brokers, cfg.KafkaTopic)
		observers = append(observers, publisher)
	}

	observer := app.CombineObservers(observers...)

	// The shipped action logs the winner; whatever drives the game follows
	// the Kafka relay or the outcome journal instead.
	action := domain.Action(func(ctx context.Context, command string) error {
		slog.InfoContext(ctx, "Executing winning command", "command", command)
		return nil
	})

	cycle := app.NewService(store, action, observer, cfg.VoteWindow, cfg.MinVotesThreshold, clock)

	selfID := cfg.BotUsername
	if cfg.WebhookConfigured() {
		selfID = cfg.BotUserID
	}
	intake := app.NewIntake(store, commands, cfg.CommandPrefix, selfID, observer)

	// Chat intake: EventSub webhooks if configured, IRC otherwise.
	intakeCtx, stopIntake := context.WithCancel(context.Background())
	defer stopIntake()

	var eventsubMgr *twitch.EventSubManager
	var webhookHdlr *twitch.WebhookHandler
	if cfg.WebhookConfigured() {
		wh := initWebhooks(cfg, intake)
		eventsubMgr = wh.eventsubManager
		webhookHdlr = wh.webhookHandler
	} else {
		irc := twitch.NewIRCClient(cfg.BotUsername, cfg.Token, cfg.Channel, intake.HandleMessage)
		go func() {
			if err := irc.Run(intakeCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Chat intake stopped", "error", err)
				os.Exit(1)
			}
		}()
	}

	if err := cycle.Start(); err != nil {
		slog.Error("Failed to start voting cycle", "error", err)
		os.Exit(1)
	}

	// Create and start the HTTP server (leave the handler nil unless webhooks
	// are configured to avoid a typed-nil interface).
	var webhookHandler http.Handler
	if webhookHdlr != nil {
		webhookHandler = http.HandlerFunc(webhookHdlr.HandleEventSub)
	}
	srv := httpserver.NewServer(cfg, cycle, store, journal, commands, metrics.Handler(registry), webhookHandler, healthChecks)

	done := runGracefulShutdown(srv, cycle, stopIntake, publisher, eventsubMgr)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
