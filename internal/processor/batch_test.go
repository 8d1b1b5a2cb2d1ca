package processor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

// echoClassifier returns the description as the only hs_code, after an optional delay.
type echoClassifier struct {
	delay  time.Duration
	calls  atomic.Int64
	onCall func(n int64)
}

func (e *echoClassifier) Classify(_ context.Context, in domain.ClassificationInput) *domain.ClassificationResponse {
	n := e.calls.Add(1)
	if e.onCall != nil {
		e.onCall(n)
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return &domain.ClassificationResponse{
		Results: []domain.ClassificationResult{{HSCode: in.Description}},
	}
}

func inputs(codes ...string) []domain.ClassificationInput {
	out := make([]domain.ClassificationInput, len(codes))
	for i, c := range codes {
		out[i] = domain.ClassificationInput{Description: c}
	}
	return out
}

func TestBatchProcessor_PreservesOrder(t *testing.T) {
	clf := &echoClassifier{delay: time.Millisecond}
	bp := processor.NewBatchProcessor(clf, 4, nil, telemetry.NewProvider(), infralogger.NewNop())

	codes := []string{"8462", "8428", "8458", "8515.80", "8422.40", "8413", "8465", "8438.10", "8443", "8445"}
	results := bp.Process(context.Background(), inputs(codes...))

	require.Len(t, results, len(codes))
	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, codes[i], r.Response.Results[0].HSCode)
	}
	assert.Equal(t, int64(len(codes)), clf.calls.Load())
}

func TestBatchProcessor_Empty(t *testing.T) {
	bp := processor.NewBatchProcessor(&echoClassifier{}, 0, nil, nil, nil)

	assert.Empty(t, bp.Process(context.Background(), nil))
	assert.Equal(t, processor.DefaultConcurrency, bp.Concurrency())
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clf := &echoClassifier{onCall: func(n int64) {
		if n == 2 {
			cancel()
		}
	}}
	bp := processor.NewBatchProcessor(clf, 1, nil, nil, nil)

	results := bp.Process(ctx, inputs("a", "b", "c", "d"))

	require.Len(t, results, 4)
	assert.NoError(t, results[0].Error)
	assert.NoError(t, results[1].Error)
	for _, r := range results[2:] {
		assert.ErrorIs(t, r.Error, context.Canceled)
		assert.Nil(t, r.Response)
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	limiter := processor.NewRateLimiter(1000, 1, nil)
	clf := &echoClassifier{}
	bp := processor.NewBatchProcessor(clf, 2, limiter, telemetry.NewProvider(), nil)

	results := bp.Process(context.Background(), inputs("a", "b", "c"))
	for _, r := range results {
		assert.NoError(t, r.Error)
	}
}

func TestBatchProcessor_RateLimitWaitFails(t *testing.T) {
	limiter := processor.NewRateLimiter(1, 1, nil)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	bp := processor.NewBatchProcessor(&echoClassifier{}, 1, limiter, nil, nil)
	results := bp.Process(ctx, inputs("a"))

	require.Len(t, results, 1)
	assert.Error(t, results[0].Error)
}

func TestRateLimiter(t *testing.T) {
	limiter := processor.NewRateLimiter(0, 0, nil)
	for range processor.DefaultRPS {
		assert.True(t, limiter.Allow())
	}
	assert.False(t, limiter.Allow(), "burst defaults to the rate")
	require.NoError(t, limiter.Wait(context.Background()))
}
