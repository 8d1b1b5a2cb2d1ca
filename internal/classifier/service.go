package classifier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// ResultCache stores formatted responses keyed by input.
// Implementations report failures as errors; the service logs and bypasses them.
type ResultCache interface {
	Get(ctx context.Context, input domain.ClassificationInput) (*domain.ClassificationResponse, bool, error)
	Set(ctx context.Context, input domain.ClassificationInput, resp *domain.ClassificationResponse) error
}

// ServiceConfig holds the optional collaborators of a Service.
type ServiceConfig struct {
	Cache     ResultCache         // Optional
	Telemetry *telemetry.Provider // Optional
}

// Service wraps the engine with caching, metrics and tracing.
type Service struct {
	engine    *Engine
	cache     ResultCache
	telemetry *telemetry.Provider
	logger    infralogger.Logger
}

// NewService creates a classification service.
func NewService(engine *Engine, logger infralogger.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = infralogger.NewNop()
	}
	return &Service{
		engine:    engine,
		cache:     cfg.Cache,
		telemetry: cfg.Telemetry,
		logger:    logger,
	}
}

// Classify returns ranked suggestions for input. Infrastructure failures
// (cache, metrics) never fail the call.
func (s *Service) Classify(ctx context.Context, input domain.ClassificationInput) *domain.ClassificationResponse {
	start := time.Now()
	lex := s.engine.Lexicon()

	var span trace.Span
	if s.telemetry != nil {
		ctx, span = s.telemetry.StartSpan(ctx, "classifier.Classify",
			attribute.String("lexicon.version", lex.Version),
			attribute.Bool("input.function_hint", input.FunctionHint != ""),
			attribute.Bool("input.type_hint", input.TypeHint != ""),
		)
		defer span.End()
	}

	resp, cached := s.classify(ctx, input)
	s.record(ctx, resp.FunctionCategory, len(resp.Results), start)

	if span != nil {
		span.SetAttributes(
			attribute.Int("result.count", len(resp.Results)),
			attribute.Bool("result.cached", cached),
			attribute.String("result.function_category", resp.FunctionCategory),
		)
		span.SetStatus(codes.Ok, "")
	}

	infralogger.FromContext(ctx, s.logger).Debug("Classification completed",
		infralogger.String("function_category", resp.FunctionCategory),
		infralogger.Int("candidates", len(resp.Results)),
		infralogger.Duration("duration", time.Since(start)),
	)
	return resp
}

func (s *Service) classify(ctx context.Context, input domain.ClassificationInput) (*domain.ClassificationResponse, bool) {
	version := s.engine.Lexicon().Version
	if lexicon.Normalize(input.Description) == "" {
		return Format(Evaluation{}, version), false
	}
	if resp, ok := s.cacheGet(ctx, input); ok {
		return resp, true
	}

	resp := Format(s.engine.Evaluate(input), version)
	s.cacheSet(ctx, input, resp)
	return resp, false
}

// InferFunction exposes function inference on its own.
func (s *Service) InferFunction(_ context.Context, description string) (domain.FunctionCategory, bool) {
	return s.engine.Functions().Infer(description)
}

// Functions lists the closed function category set in priority order.
func (s *Service) Functions() []domain.FunctionCategory {
	return s.engine.Functions().Categories()
}

// Lexicon returns the loaded lexicon.
func (s *Service) Lexicon() *lexicon.Lexicon {
	return s.engine.Lexicon()
}

func (s *Service) cacheGet(ctx context.Context, input domain.ClassificationInput) (*domain.ClassificationResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	resp, ok, err := s.cache.Get(ctx, input)
	switch {
	case err != nil:
		infralogger.FromContext(ctx, s.logger).Warn("Result cache lookup failed, bypassing", infralogger.Error(err))
		s.recordCache(ctx, telemetry.CacheError)
		return nil, false
	case !ok:
		s.recordCache(ctx, telemetry.CacheMiss)
		return nil, false
	default:
		s.recordCache(ctx, telemetry.CacheHit)
		return resp, true
	}
}

func (s *Service) cacheSet(ctx context.Context, input domain.ClassificationInput, resp *domain.ClassificationResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, input, resp); err != nil {
		infralogger.FromContext(ctx, s.logger).Warn("Result cache store failed", infralogger.Error(err))
	}
}

func (s *Service) recordCache(ctx context.Context, result string) {
	if s.telemetry != nil {
		s.telemetry.RecordCache(ctx, result)
	}
}

func (s *Service) record(ctx context.Context, function string, candidates int, start time.Time) {
	if s.telemetry != nil {
		s.telemetry.RecordClassification(ctx, function, candidates, time.Since(start))
	}
}
