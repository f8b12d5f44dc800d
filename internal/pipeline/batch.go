package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/picase/internal/model"
)

// AggregateFunc aggregates one case folder.
type AggregateFunc func(ctx context.Context, dir string) (*model.CaseRecord, error)

// Result is the outcome of aggregating one case folder.
type Result struct {
	// Dir is the case folder.
	Dir string
	// Record is nil when Err is set.
	Record *model.CaseRecord
	// Err is the aggregation error, if any.
	Err error
}

// BatchProcessor aggregates multiple case folders concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// aggregate processes one case. Each call builds its own pipeline and
	// record, so nothing is shared between goroutines.
	aggregate AggregateFunc

	// concurrency is the maximum number of cases processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent cases.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// DefaultConcurrency is the number of cases processed at once by default.
const DefaultConcurrency = 4

// NewBatchProcessor creates a new BatchProcessor.
// A nil aggregate uses Aggregate with the given pipeline options.
func NewBatchProcessor(aggregate AggregateFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		aggregate:   aggregate,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	if bp.aggregate == nil {
		logger := bp.logger
		bp.aggregate = func(ctx context.Context, dir string) (*model.CaseRecord, error) {
			return Aggregate(ctx, dir, WithLogger(logger))
		}
	}

	return bp
}

// ProcessBatch aggregates the case folders concurrently.
// Results are returned in the order of dirs. A failing case does not stop
// the others; its error is stored in its Result. The returned error is
// non-nil only when the context was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, dirs []string) ([]Result, error) {
	bp.logger.Info("starting batch processing",
		"total_cases", len(dirs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]Result, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, dir := range dirs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = Result{Dir: dir, Err: gctx.Err()}
				return gctx.Err()
			default:
			}

			bp.logger.Info("aggregating case",
				"dir", dir,
				"index", i+1,
				"total", len(dirs),
			)

			record, err := bp.aggregate(gctx, dir)
			results[i] = Result{Dir: dir, Record: record, Err: err}
			if err != nil {
				bp.logger.Warn("case failed", "dir", dir, "error", err)
				return nil
			}

			bp.logger.Info("case completed", "dir", dir)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_cases", len(dirs),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback aggregates the case folders and calls callback
// for each finished case. The callback runs on the worker goroutine and
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	dirs []string,
	callback func(result Result, index int),
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, dir := range dirs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			record, err := bp.aggregate(gctx, dir)
			callback(Result{Dir: dir, Record: record, Err: err}, i)
			return nil
		})
	}

	return g.Wait()
}
