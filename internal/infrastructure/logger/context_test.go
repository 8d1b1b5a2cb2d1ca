package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	stored := logger.Must(logger.Config{OutputPaths: []string{"stderr"}})
	ctx := logger.WithContext(context.Background(), stored)

	if got := logger.FromContext(ctx, logger.NewNop()); got != stored {
		t.Errorf("FromContext returned %v, want the stored logger", got)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	t.Parallel()

	fallback := logger.Must(logger.Config{OutputPaths: []string{"stderr"}})
	if got := logger.FromContext(context.Background(), fallback); got != fallback {
		t.Errorf("FromContext returned %v, want the fallback logger", got)
	}

	nop := logger.FromContext(context.Background(), nil)
	if nop == nil {
		t.Fatal("expected a no-op logger when no fallback is given")
	}
	nop.Warn("dropped", logger.String("key", "value"))
}

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	child := l.With(logger.String("service", "tariff-classifier"))
	if child == l {
		t.Error("With() returned the parent logger, want a new instance")
	}
}
