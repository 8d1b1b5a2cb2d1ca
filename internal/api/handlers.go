// Package api exposes the tariff classifier over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/jwt"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// SelectionStore persists HS code selections. *database.SelectionRepository
// implements it.
type SelectionStore interface {
	Create(ctx context.Context, s *domain.Selection) error
	GetByID(ctx context.Context, id string) (*domain.Selection, error)
	ListByPratica(ctx context.Context, praticaID string) ([]domain.Selection, error)
	Delete(ctx context.Context, id string) error
}

// HandlerConfig holds handler limits and optional collaborators.
type HandlerConfig struct {
	MaxBatchItems int
	Selections    SelectionStore      // Optional; selection routes are disabled when nil
	Telemetry     *telemetry.Provider // Optional
}

// Handler handles HTTP requests for the tariff classifier API
type Handler struct {
	service        *classifier.Service
	batchProcessor *processor.BatchProcessor
	selections     SelectionStore
	telemetry      *telemetry.Provider
	maxBatchItems  int
	logger         infralogger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	service *classifier.Service,
	batchProcessor *processor.BatchProcessor,
	cfg HandlerConfig,
	logger infralogger.Logger,
) *Handler {
	if logger == nil {
		logger = infralogger.NewNop()
	}
	maxBatch := cfg.MaxBatchItems
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchItems
	}
	return &Handler{
		service:        service,
		batchProcessor: batchProcessor,
		selections:     cfg.Selections,
		telemetry:      cfg.Telemetry,
		maxBatchItems:  maxBatch,
		logger:         logger,
	}
}

const defaultMaxBatchItems = 100

// Classify handles POST /api/v1/classify
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := bindStrictJSON(c, &req); err != nil {
		h.log(c).Warn("Invalid classification request", infralogger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := h.service.Classify(c.Request.Context(), req.toInput())

	h.log(c).Debug("Description classified",
		infralogger.Int("results", len(resp.Results)),
		infralogger.String("function_category", resp.FunctionCategory),
	)

	c.JSON(http.StatusOK, resp)
}

// ClassifyBatch handles POST /api/v1/classify/batch
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req BatchClassifyRequest
	if err := bindStrictJSON(c, &req); err != nil {
		h.log(c).Warn("Invalid batch classification request", infralogger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) > h.maxBatchItems {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "too many items",
			"max_items": h.maxBatchItems,
		})
		return
	}

	inputs := make([]domain.ClassificationInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = item.toInput()
	}

	h.log(c).Info("Batch classifying descriptions", infralogger.Int("batch_size", len(inputs)))

	processed := h.batchProcessor.Process(c.Request.Context(), inputs)

	resp := BatchClassifyResponse{
		Results: make([]BatchItemResult, len(processed)),
		Total:   len(processed),
	}
	for i, r := range processed {
		item := BatchItemResult{Index: r.Index, Response: r.Response}
		if r.Error != nil {
			item.Error = r.Error.Error()
			resp.Failed++
		} else {
			resp.Success++
		}
		resp.Results[i] = item
	}

	c.JSON(http.StatusOK, resp)
}

// InferFunction handles POST /api/v1/functions/infer
func (h *Handler) InferFunction(c *gin.Context) {
	var req InferFunctionRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp InferFunctionResponse
	if category, ok := h.service.InferFunction(c.Request.Context(), req.Description); ok {
		resp.FunctionCategory = &category.ID
		resp.Label = &category.Label
	}
	c.JSON(http.StatusOK, resp)
}

// ListFunctions handles GET /api/v1/functions
func (h *Handler) ListFunctions(c *gin.Context) {
	functions := h.service.Functions()
	c.JSON(http.StatusOK, FunctionsResponse{
		Functions: functions,
		Total:     len(functions),
	})
}

// GetLexicon handles GET /api/v1/lexicon
func (h *Handler) GetLexicon(c *gin.Context) {
	lex := h.service.Lexicon()

	entries := make([]LexiconEntrySummary, len(lex.Entries))
	for i, e := range lex.Entries {
		entries[i] = LexiconEntrySummary{
			HSCode:    e.HSCode,
			Label:     e.Label,
			Functions: e.Functions,
			DutyHint:  e.DutyHint,
		}
	}

	c.JSON(http.StatusOK, LexiconResponse{
		Version:            lex.Version,
		Checksum:           lex.Checksum,
		Source:             lex.Source,
		FunctionCategories: len(lex.FunctionCategories),
		Entries:            entries,
		Total:              len(entries),
	})
}

// CreateSelection handles POST /api/v1/selections
func (h *Handler) CreateSelection(c *gin.Context) {
	var req CreateSelectionRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selection := &domain.Selection{
		PraticaID:      req.PraticaID,
		MachineryID:    req.MachineryID,
		HSCode:         req.HSCode,
		Description:    req.Description,
		Confidence:     req.Confidence,
		DutyRate:       req.DutyRate,
		VATRate:        req.VATRate,
		LexiconVersion: req.LexiconVersion,
		SelectedBy:     jwt.Subject(c),
	}
	if selection.LexiconVersion == "" {
		selection.LexiconVersion = h.service.Lexicon().Version
	}

	if err := h.selections.Create(c.Request.Context(), selection); err != nil {
		if errors.Is(err, database.ErrInvalidSelection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log(c).Error("Failed to create selection",
			infralogger.String("pratica_id", req.PraticaID),
			infralogger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create selection"})
		return
	}

	if h.telemetry != nil {
		h.telemetry.RecordSelectionCreated(c.Request.Context())
	}
	h.log(c).Info("Selection recorded",
		infralogger.String("selection_id", selection.ID),
		infralogger.String("pratica_id", selection.PraticaID),
		infralogger.String("hs_code", selection.HSCode),
	)

	c.JSON(http.StatusCreated, toSelectionResponse(selection))
}

// GetSelection handles GET /api/v1/selections/:id
func (h *Handler) GetSelection(c *gin.Context) {
	selection, err := h.selections.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.selectionError(c, err, "Failed to get selection")
		return
	}
	c.JSON(http.StatusOK, toSelectionResponse(selection))
}

// DeleteSelection handles DELETE /api/v1/selections/:id
func (h *Handler) DeleteSelection(c *gin.Context) {
	if err := h.selections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.selectionError(c, err, "Failed to delete selection")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPraticaSelections handles GET /api/v1/pratiche/:pratica_id/selections
func (h *Handler) ListPraticaSelections(c *gin.Context) {
	selections, err := h.selections.ListByPratica(c.Request.Context(), c.Param("pratica_id"))
	if err != nil {
		h.selectionError(c, err, "Failed to list selections")
		return
	}

	resp := SelectionsListResponse{
		Selections: make([]SelectionResponse, len(selections)),
		Total:      len(selections),
	}
	for i := range selections {
		resp.Selections[i] = toSelectionResponse(&selections[i])
	}
	c.JSON(http.StatusOK, resp)
}

// log returns the request-scoped logger set by the request id middleware.
func (h *Handler) log(c *gin.Context) infralogger.Logger {
	return infralogger.FromContext(c.Request.Context(), h.logger)
}

func (h *Handler) selectionError(c *gin.Context, err error, msg string) {
	if errors.Is(err, database.ErrSelectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "selection not found"})
		return
	}
	h.log(c).Error(msg, infralogger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// ReadyCheck handles GET /ready. The service is ready once the lexicon is loaded.
func (h *Handler) ReadyCheck(c *gin.Context) {
	lex := h.service.Lexicon()
	if lex == nil || lex.Empty() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"lexicon_version": lex.Version,
	})
}
