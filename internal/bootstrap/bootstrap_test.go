package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

func TestSetupEngine_InvalidLexiconPath(t *testing.T) {
	cfg := config.Default()
	cfg.Classification.LexiconPath = t.TempDir() + "/missing.yml"

	_, err := bootstrap.SetupEngine(cfg, infralogger.NewNop(), nil)
	assert.Error(t, err)
}

func TestSetupDatabase(t *testing.T) {
	ctx := context.Background()
	log := infralogger.NewNop()

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Enabled = false

		comps, err := bootstrap.SetupDatabase(ctx, cfg, log)
		require.NoError(t, err)
		assert.Nil(t, comps)
	})

	t.Run("sqlite with schema", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Enabled = true
		cfg.Database.AutoCreateSchema = true
		cfg.Database.Driver = database.DriverSQLite
		cfg.Database.SQLitePath = ":memory:"

		comps, err := bootstrap.SetupDatabase(ctx, cfg, log)
		require.NoError(t, err)
		require.NotNil(t, comps)
		t.Cleanup(func() { _ = comps.Close() })

		list, err := comps.SelectionRepo.ListByPratica(ctx, "p")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	unreachable := func() *config.Config {
		cfg := config.Default()
		cfg.Database.Enabled = true
		cfg.Database.Driver = database.DriverPostgres
		cfg.Database.Host = "127.0.0.1"
		cfg.Database.Port = 1
		return cfg
	}

	t.Run("optional and unreachable", func(t *testing.T) {
		comps, err := bootstrap.SetupDatabase(ctx, unreachable(), log)
		require.NoError(t, err)
		assert.Nil(t, comps)
	})

	t.Run("required and unreachable", func(t *testing.T) {
		cfg := unreachable()
		cfg.Database.Required = true

		_, err := bootstrap.SetupDatabase(ctx, cfg, log)
		assert.Error(t, err)
	})
}

func TestSetupCache(t *testing.T) {
	ctx := context.Background()
	log := infralogger.NewNop()

	cfg := config.Default()
	assert.Nil(t, bootstrap.SetupCache(ctx, cfg, "sum", log), "disabled by default")

	mr := miniredis.RunT(t)
	cfg.Redis.Enabled = true
	cfg.Redis.URL = mr.Addr()

	comps := bootstrap.SetupCache(ctx, cfg, "sum", log)
	require.NotNil(t, comps)
	t.Cleanup(func() { _ = comps.Close() })
	assert.NoError(t, comps.Cache.Ping(ctx))
}

func TestSetupHTTPServer(t *testing.T) {
	cfg := config.Default()
	log := infralogger.NewNop()
	tp := telemetry.NewProvider()

	engine, err := bootstrap.SetupEngine(cfg, log, tp)
	require.NoError(t, err)

	server := bootstrap.SetupHTTPServer(cfg, engine, nil, nil, tp, log)

	for _, path := range []string{"/health", "/ready", "/metrics", "/api/v1/functions"} {
		req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		server.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/selections/x", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupBatchProcessor(t *testing.T) {
	log := infralogger.NewNop()
	cfg := config.Default()
	engine, err := bootstrap.SetupEngine(cfg, log, nil)
	require.NoError(t, err)
	service := classifier.NewService(engine, log, classifier.ServiceConfig{})

	t.Run("disabled", func(t *testing.T) {
		bp := bootstrap.SetupBatchProcessor(cfg, service, nil, log)
		assert.False(t, bp.RateLimited())
	})

	t.Run("enabled throttles per item", func(t *testing.T) {
		limited := config.Default()
		limited.Service.Concurrency = 1
		limited.RateLimit.Enabled = true
		limited.RateLimit.BatchItemsPerSecond = 1
		limited.RateLimit.BatchBurst = 1

		bp := bootstrap.SetupBatchProcessor(limited, service, nil, log)
		require.True(t, bp.RateLimited())

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		results := bp.Process(ctx, []domain.ClassificationInput{
			{Description: "pressa idraulica"},
			{Description: "trasportatore a nastro"},
		})
		require.Len(t, results, 2)
		require.NoError(t, results[0].Error)
		assert.NotNil(t, results[0].Response)
		// One token per second: the second item cannot be served before the deadline.
		assert.Error(t, results[1].Error)
		assert.Nil(t, results[1].Response)
	})
}
