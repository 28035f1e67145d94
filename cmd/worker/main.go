// The worker is a headless sync replica: it loads the auction state, follows
// the change feed, and keeps the continuity snapshot in Redis warm so an API
// instance can start even when the store is down. Run it alongside the API,
// or on its own while the API is being redeployed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/auctiondesk/pkg/app"
	"github.com/ghuser/auctiondesk/pkg/cache"
	"github.com/ghuser/auctiondesk/pkg/config"
	"github.com/ghuser/auctiondesk/pkg/database"
	"github.com/ghuser/auctiondesk/pkg/events"
	"github.com/ghuser/auctiondesk/pkg/logger"
	"github.com/ghuser/auctiondesk/pkg/telemetry"
	appsvcs "github.com/ghuser/auctiondesk/services/auction/application/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	db, err := database.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer db.Close() //nolint:errcheck
	log.Info("database connected")

	eventBus, err := events.NewEventBusWithDB(db.DB(), cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	appConfig := &app.Application{
		Db:       db,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	svcs := appsvcs.New(appConfig)

	// The worker's whole job is the snapshot, so a load that cannot reach
	// the store is fatal here; there is nothing useful to serve instead.
	if err := svcs.Sync.Load(ctx); err != nil {
		log.Error("failed to load auction state", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	if err := svcs.Sync.Start(feedCtx); err != nil {
		log.Error("failed to start change feed", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("worker following change feed")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancelFeed()

	if err := svcs.Sync.Persist(context.Background()); err != nil {
		log.Warn("failed to persist continuity snapshot on shutdown", "error", err)
	}
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}
