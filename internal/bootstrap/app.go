// Package bootstrap handles application initialization and lifecycle management
// for the tariff-classifier service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/api"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	infragin "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// Start initializes and runs the tariff-classifier HTTP service until
// SIGINT/SIGTERM.
func Start() error {
	ctx := context.Background()

	// Phase 1: Load config and create logger
	cfg, usedDefaults, err := LoadConfig()
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if usedDefaults {
		log.Warn("Config file not found, using defaults and environment")
	}

	// Phase 2: Lexicon and engine (fatal on failure)
	tp := telemetry.NewProvider()
	engine, err := SetupEngine(cfg, log, tp)
	if err != nil {
		log.Error("Lexicon unavailable", infralogger.Error(err))
		return err
	}

	// Phase 3: Optional result cache and selection store
	cacheComps := SetupCache(ctx, cfg, engine.Lexicon().Checksum, log)
	defer func() {
		if closeErr := cacheComps.Close(); closeErr != nil {
			log.Error("Failed to close Redis client", infralogger.Error(closeErr))
		}
	}()

	dbComps, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dbComps.Close(); closeErr != nil {
			log.Error("Failed to close database", infralogger.Error(closeErr))
		}
	}()

	// Phase 4: Service, batch processor and HTTP server
	server := SetupHTTPServer(cfg, engine, cacheComps, dbComps, tp, log)

	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}

// SetupBatchProcessor builds the batch worker pool. When rate limiting is
// enabled each batch item takes one token from a limiter separate from the
// per-request API limiter.
func SetupBatchProcessor(
	cfg *config.Config,
	service processor.Classifier,
	tp *telemetry.Provider,
	log infralogger.Logger,
) *processor.BatchProcessor {
	var limiter *processor.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = processor.NewRateLimiter(cfg.RateLimit.BatchItemsPerSecond, cfg.RateLimit.BatchBurst, log)
	}

	batchProcessor := processor.NewBatchProcessor(service, cfg.Service.Concurrency, limiter, tp, log)
	log.Info("Batch processor initialized",
		infralogger.Int("concurrency", batchProcessor.Concurrency()),
		infralogger.Bool("rate_limited", batchProcessor.RateLimited()),
	)
	return batchProcessor
}

// SetupHTTPServer wires the classification service into the HTTP server.
// cacheComps and dbComps may be nil.
func SetupHTTPServer(
	cfg *config.Config,
	engine *classifier.Engine,
	cacheComps *CacheComponents,
	dbComps *DatabaseComponents,
	tp *telemetry.Provider,
	log infralogger.Logger,
) *infragin.Server {
	serviceCfg := classifier.ServiceConfig{Telemetry: tp}
	if cacheComps != nil {
		serviceCfg.Cache = cacheComps.Cache
	}
	service := classifier.NewService(engine, log, serviceCfg)

	batchProcessor := SetupBatchProcessor(cfg, service, tp, log)

	handlerCfg := api.HandlerConfig{
		MaxBatchItems: cfg.Service.MaxBatchItems,
		Telemetry:     tp,
	}
	checks := make(map[string]infragin.HealthChecker)
	if dbComps != nil {
		handlerCfg.Selections = dbComps.SelectionRepo
		checks["database"] = infragin.PingHealthChecker("database", infragin.HealthStatusDegraded, func() error {
			return database.Ping(context.Background(), dbComps.DB)
		})
	}
	if cacheComps != nil {
		checks["redis"] = infragin.PingHealthChecker("redis", infragin.HealthStatusDegraded, func() error {
			return cacheComps.Cache.Ping(context.Background())
		})
	}

	routeOpts := api.RouteOptions{
		JWTSecret: cfg.Auth.JWTSecret,
		Telemetry: tp,
	}
	if cfg.RateLimit.Enabled {
		routeOpts.RateLimiter = processor.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set, /api/v1 is unauthenticated")
	}

	handler := api.NewHandler(service, batchProcessor, handlerCfg, log)
	return api.NewServer(handler, cfg, api.ServerOptions{
		Routes:       routeOpts,
		HealthChecks: checks,
	}, log)
}
