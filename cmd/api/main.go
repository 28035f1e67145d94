package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/auctiondesk/pkg/app"
	"github.com/ghuser/auctiondesk/pkg/auth"
	"github.com/ghuser/auctiondesk/pkg/cache"
	"github.com/ghuser/auctiondesk/pkg/config"
	"github.com/ghuser/auctiondesk/pkg/database"
	"github.com/ghuser/auctiondesk/pkg/events"
	"github.com/ghuser/auctiondesk/pkg/httpx"
	"github.com/ghuser/auctiondesk/pkg/logger"
	"github.com/ghuser/auctiondesk/pkg/telemetry"
	auctionapi "github.com/ghuser/auctiondesk/services/auction/application/api"
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

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	db, err := database.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
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

	sessionStore := auth.NewSessionStore(
		redisClient.Client(),
		[]byte(cfg.SessionAuthKey),
		[]byte(cfg.SessionEncryptionKey),
		cfg.Environment == config.EnvProduction,
	)
	log.Info("session store initialized", "backend", "redis")

	appConfig := &app.Application{
		Db:           db,
		Logger:       log,
		EventBus:     eventBus,
		Redis:        redisClient,
		SessionStore: sessionStore,
	}

	svcs := appsvcs.New(appConfig)

	// Fill the ledger before accepting traffic. A transport failure falls
	// back to the continuity snapshot; a configuration failure is fatal.
	if err := svcs.Sync.Load(ctx); err != nil {
		log.Error("failed to load auction state", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	if svcs.Sync.Degraded() {
		log.Warn("serving from continuity snapshot; remote writes will fail until the store recovers")
	}

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	if err := svcs.Sync.Start(feedCtx); err != nil {
		log.Error("failed to start change feed", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		Database: db,
		Redis:    redisClient,
		EventBus: eventBus,
		Sync:     svcs.Sync,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	auctionapi.Routes(r, appConfig, svcs)

	srv := httpx.NewServer(cfg.ListenAddr, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	cancelFeed()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	// Leave a fresh snapshot behind for the next start.
	if err := svcs.Sync.Persist(shutdownCtx); err != nil {
		log.Warn("failed to persist continuity snapshot on shutdown", "error", err)
	}
	log.Info("server stopped")
}
