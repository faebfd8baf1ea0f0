package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the number of runs executed at once when no
// limit is configured.
const defaultConcurrency = 10

// BatchProcessor runs one stage list against many seeds concurrently.
// Every run gets a fresh context and report; the runs share nothing.
type BatchProcessor struct {
	// runnerFactory creates the runner for each run.
	runnerFactory func() *Runner

	// stages is the stage list executed for every seed.
	stages []Stage

	// concurrency is the maximum number of concurrent runs.
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

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor. runnerFactory is
// called once per seed so each run may carry its own reporter.
func NewBatchProcessor(runnerFactory func() *Runner, stages []Stage, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runnerFactory: runnerFactory,
		stages:        stages,
		concurrency:   defaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the stages once per seed and returns the reports in
// seed order. Failed runs still produce a report. The error is non-nil
// only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []map[string]any) ([]*Report, error) {
	reports := make([]*Report, len(seeds))
	err := bp.ProcessBatchWithCallback(ctx, seeds, func(report *Report, index int) {
		reports[index] = report
	})
	return reports, err
}

// ProcessBatchWithCallback runs the stages once per seed and calls
// callback as each run finishes. The callback is called from the
// goroutine that ran the seed, so it must be safe for concurrent use
// unless it only touches its own index.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []map[string]any,
	callback func(report *Report, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_runs", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			runner := bp.runnerFactory()
			report := runner.Run(ctx, bp.stages, seed)

			if report.Succeeded() {
				bp.logger.Info("run completed",
					"index", i+1,
					"total", len(seeds),
					"run_id", report.RunID,
				)
			} else {
				bp.logger.Warn("run failed",
					"index", i+1,
					"total", len(seeds),
					"run_id", report.RunID,
					"failed_stage", report.FailedStage,
				)
			}

			callback(report, i)

			// Failures live in the report; they must not cancel siblings.
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	bp.logger.Info("batch processing complete",
		"total_runs", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return ctx.Err()
}
