package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/config"
	infragin "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
)

// ServerOptions holds the optional pieces of the HTTP server.
type ServerOptions struct {
	Routes       RouteOptions
	HealthChecks map[string]infragin.HealthChecker
}

// NewServer creates a new HTTP server using the infrastructure gin package.
func NewServer(
	handler *Handler,
	cfg *config.Config,
	opts ServerOptions,
	infraLog infralogger.Logger,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(infraLog).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(cfg.Service.ReadTimeout, cfg.Service.WriteTimeout, cfg.Service.IdleTimeout)

	for name, check := range opts.HealthChecks {
		builder = builder.WithHealthCheck(name, check)
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			// Setup service-specific routes (health routes added by builder)
			SetupServiceRoutes(router, handler, opts.Routes)
		}).
		Build()
}
