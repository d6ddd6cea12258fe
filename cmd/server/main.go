package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/redresshq/redress/internal/api"
	"github.com/redresshq/redress/internal/buildconfig"
	"github.com/redresshq/redress/internal/config"
	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/extract"
	"github.com/redresshq/redress/internal/policy"
	"github.com/redresshq/redress/internal/pricing"
	"github.com/redresshq/redress/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	deps := api.Deps{}

	// DATABASE_URL unset means run on the in-memory stores: useful for
	// local development and integration tests against the full HTTP API.
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		deps.DB = pool
		deps.Sessions = store.NewSessionStore(pool)
		deps.Cases = store.NewCaseStore(pool)
		deps.Messages = store.NewMessageStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		deps.Sessions = store.NewMemorySessionStore()
		deps.Cases = store.NewMemoryCaseStore()
		deps.Messages = store.NewMemoryMessageStore()
	}

	table, err := policy.Load(config.PolicyPath())
	if err != nil {
		logger.Fatal("failed to load policy table", zap.Error(err))
	}
	deps.Engine = policy.NewEngine(table)

	extractor, err := extract.NewClient(config.ExtractProvider(), config.ExtractAPIKey())
	if err != nil {
		logger.Fatal("extraction client initialization failed",
			zap.String("provider", config.ExtractProvider()), zap.Error(err))
	}
	logger.Info("extraction client initialized", zap.String("provider", config.ExtractProvider()))
	deps.Extractor = extractor

	deps.Prices = buildPriceProvider(logger)

	app := api.NewApp(deps, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()),
			zap.String("built", buildconfig.Date()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildPriceProvider(logger *zap.Logger) domain.PriceProvider {
	accessKey := config.PAAPIAccessKey()
	secretKey := config.PAAPISecretKey()
	if accessKey == "" || secretKey == "" {
		logger.Warn("PAAPI credentials not set, price lookups disabled")
		return pricing.NewNullProvider()
	}

	paapi := pricing.NewPAAPIProvider(pricing.PAAPIConfig{
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		PartnerTag: config.PAAPIPartnerTag(),
		Host:       config.PAAPIHost(),
		Region:     config.PAAPIRegion(),
	})
	return pricing.NewCachingProvider(paapi, config.PriceCacheTTL())
}
