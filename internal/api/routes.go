package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// RouteOptions configures service routes.
type RouteOptions struct {
	JWTSecret   string
	RateLimiter *processor.RateLimiter // Optional
	Telemetry   *telemetry.Provider    // Optional; serves /metrics when set
}

// SetupServiceRoutes configures service-specific API routes (not health routes).
// Health routes are handled by the infrastructure gin package.
func SetupServiceRoutes(router *gin.Engine, handler *Handler, opts RouteOptions) {
	router.GET("/ready", handler.ReadyCheck)
	if opts.Telemetry != nil {
		router.GET("/metrics", gin.WrapH(opts.Telemetry.Handler()))
	}

	// API v1 routes - protected with JWT
	v1 := infragin.ProtectedGroup(router, "/api/v1", opts.JWTSecret)
	if opts.RateLimiter != nil {
		v1.Use(RateLimitMiddleware(opts.RateLimiter, opts.Telemetry))
	}

	// Classification endpoints
	classify := v1.Group("/classify")
	classify.POST("", handler.Classify)            // POST /api/v1/classify
	classify.POST("/batch", handler.ClassifyBatch) // POST /api/v1/classify/batch

	// Function category endpoints
	functions := v1.Group("/functions")
	functions.GET("", handler.ListFunctions)        // GET /api/v1/functions
	functions.POST("/infer", handler.InferFunction) // POST /api/v1/functions/infer

	v1.GET("/lexicon", handler.GetLexicon) // GET /api/v1/lexicon

	// Selection endpoints need a database
	if handler.selections != nil {
		selections := v1.Group("/selections")
		selections.POST("", handler.CreateSelection)       // POST /api/v1/selections
		selections.GET("/:id", handler.GetSelection)       // GET /api/v1/selections/:id
		selections.DELETE("/:id", handler.DeleteSelection) // DELETE /api/v1/selections/:id

		v1.GET("/pratiche/:pratica_id/selections", handler.ListPraticaSelections)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
