// Package processor classifies batches of descriptions with a bounded worker pool.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// DefaultConcurrency is used when no positive concurrency is configured.
const DefaultConcurrency = 10

// Classifier is the subset of the classification service used by the processor.
type Classifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) *domain.ClassificationResponse
}

// ProcessResult holds the result of processing a single item
type ProcessResult struct {
	Index    int
	Input    domain.ClassificationInput
	Response *domain.ClassificationResponse
	Error    error
}

// BatchProcessor processes multiple descriptions in parallel using a worker pool
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
	limiter     *RateLimiter
	telemetry   *telemetry.Provider
	logger      infralogger.Logger
}

// NewBatchProcessor creates a new batch processor. limiter and tp may be nil.
func NewBatchProcessor(
	classifier Classifier,
	concurrency int,
	limiter *RateLimiter,
	tp *telemetry.Provider,
	logger infralogger.Logger,
) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = infralogger.NewNop()
	}

	return &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
		limiter:     limiter,
		telemetry:   tp,
		logger:      logger,
	}
}

// Process classifies every input and returns results in input order.
// Items not started before ctx is done carry ctx.Err().
func (b *BatchProcessor) Process(ctx context.Context, inputs []domain.ClassificationInput) []*ProcessResult {
	results := make([]*ProcessResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	startTime := time.Now()
	if b.telemetry != nil {
		b.telemetry.RecordBatchSize(len(inputs))
	}

	workers := min(b.concurrency, len(inputs))
	jobs := make(chan int, len(inputs))
	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go b.worker(ctx, inputs, jobs, results, &wg)
	}
	wg.Wait()

	errorCount := 0
	for i, r := range results {
		if r == nil {
			results[i] = &ProcessResult{Index: i, Input: inputs[i], Error: ctx.Err()}
			errorCount++
		} else if r.Error != nil {
			errorCount++
		}
	}

	b.logger.Info("Batch processing complete",
		infralogger.Int("total", len(inputs)),
		infralogger.Int("errors", errorCount),
		infralogger.Int("workers", workers),
		infralogger.Duration("duration", time.Since(startTime)),
	)

	return results
}

func (b *BatchProcessor) worker(
	ctx context.Context,
	inputs []domain.ClassificationInput,
	jobs <-chan int,
	results []*ProcessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	if b.telemetry != nil {
		b.telemetry.AddActiveWorkers(1)
		defer b.telemetry.AddActiveWorkers(-1)
	}

	for idx := range jobs {
		if ctx.Err() != nil {
			return
		}

		result := &ProcessResult{Index: idx, Input: inputs[idx]}
		if err := b.wait(ctx); err != nil {
			result.Error = err
			results[idx] = result
			continue
		}

		result.Response = b.classifier.Classify(ctx, inputs[idx])
		results[idx] = result
	}
}

func (b *BatchProcessor) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	if !b.limiter.Allow() {
		if b.telemetry != nil {
			b.telemetry.IncrementThrottleCount()
		}
		return b.limiter.Wait(ctx)
	}
	return nil
}

// RateLimited reports whether items wait on a limiter before classification.
func (b *BatchProcessor) RateLimited() bool {
	return b.limiter != nil
}

// Concurrency returns the configured worker count.
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}
