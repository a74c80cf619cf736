package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkmatch/internal/model"
)

// DefaultConcurrency is the number of sources processed at once.
const DefaultConcurrency = 4

// BatchProcessor runs a fresh pipeline for every source.
type BatchProcessor struct {
	// pipelineFactory builds the pipeline for one source, so that
	// per-host settings can be chosen.
	pipelineFactory func(source string) *Pipeline
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sources.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func(source string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch processes sources and returns their extractions in source
// order. A source that was never started because ctx ended has a nil entry
// and the context error is returned. Pipeline errors do not stop the batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*model.Extraction, error) {
	results := make([]*model.Extraction, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, func(e *model.Extraction, i int) {
		results[i] = e
	})
	return results, err
}

// ProcessBatchWithCallback processes sources and calls callback with each
// finished extraction and its source index. The callback runs on the worker
// goroutine; distinct indexes may be reported concurrently.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(extraction *model.Extraction, index int),
) error {
	bp.logger.Debug("starting batch", "sources", len(sources), "concurrency", bp.concurrency)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			extraction := model.NewExtraction(source)
			if err := bp.pipelineFactory(source).Execute(ctx, extraction); err != nil {
				if errors.Is(err, ErrNotStarted) {
					return ctx.Err()
				}
				bp.logger.Warn("pipeline failed", "source", source, "error", err)
			}
			callback(extraction, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch complete", "sources", len(sources), "elapsed", time.Since(start))
	return err
}
