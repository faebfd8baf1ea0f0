package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Runner executes stages in order, threading each validated result into
// the context seen by the next stage. It stops at the first failure and
// never retries.
//
// A Runner holds no per-run state and may be shared by concurrent runs.
type Runner struct {
	// name labels reports and log lines.
	name string

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// reporter receives stage events.
	reporter Reporter
}

// Option is a function that configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithReporter sets the status reporter. Without it events are discarded.
func WithReporter(reporter Reporter) Option {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithName sets the flow name recorded in reports.
func WithName(name string) Option {
	return func(r *Runner) {
		r.name = name
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.reporter == nil {
		r.reporter = NopReporter{}
	}

	return r
}

// Name returns the flow name recorded in reports.
func (r *Runner) Name() string {
	return r.name
}

// Run executes stages against seed and returns the report. It never
// returns an error and never panics: every failure, including a
// malformed stage list, becomes a failed report.
//
// ctx is checked before each stage and handed to Invoke. A cancelled
// context fails the stage that would have run with a TransportError.
func (r *Runner) Run(ctx context.Context, stages []Stage, seed map[string]any) *Report {
	meta := runMeta{
		runID:       uuid.NewString(),
		flow:        r.name,
		fingerprint: Fingerprint(r.name, seed),
		startedAt:   time.Now(),
	}
	pc := NewContext(seed)

	logger := r.logger.With("run_id", meta.runID)
	if r.name != "" {
		logger = logger.With("flow", r.name)
	}

	if name, err := checkStages(stages); err != nil {
		logger.Error("invalid stage list", "error", err)
		meta.finishedAt = time.Now()
		return toReport(meta, pc, nil, newStageError(KindPrecondition, name, err))
	}

	completed := make([]string, 0, len(stages))
	var failure *StageError

	for i, st := range stages {
		r.notify(logger, "start", st.Name, func() {
			r.reporter.OnStageStart(st.Name, i+1, len(stages))
		})

		// Check for cancellation before starting each stage
		if err := ctx.Err(); err != nil {
			logger.Warn("pipeline cancelled", "stage", st.Name, "reason", err)
			failure = newStageError(KindTransport, st.Name, fmt.Errorf("run cancelled: %w", err))
			r.notify(logger, "failure", st.Name, func() {
				r.reporter.OnStageFailure(st.Name, failure)
			})
			break
		}

		logger.Info("executing stage", "stage", st.Name, "index", i+1, "total", len(stages))

		started := time.Now()
		result, serr := r.execute(ctx, st, pc)
		meta.timings = append(meta.timings, StageTiming{Stage: st.Name, Duration: time.Since(started)})

		if serr != nil {
			logger.Error("stage failed",
				"stage", st.Name,
				"kind", serr.Kind,
				"error", serr.Message,
			)
			failure = serr
			r.notify(logger, "failure", st.Name, func() {
				r.reporter.OnStageFailure(st.Name, serr)
			})
			break
		}

		pc = pc.with(st.Name, result)
		completed = append(completed, st.Name)

		logger.Debug("stage completed", "stage", st.Name)
		r.notify(logger, "success", st.Name, func() {
			r.reporter.OnStageSuccess(st.Name, result)
		})
	}

	meta.finishedAt = time.Now()
	return toReport(meta, pc, completed, failure)
}

// execute runs the three phases of one stage and classifies the first
// error by the phase that produced it.
func (r *Runner) execute(ctx context.Context, st Stage, pc PipelineContext) (any, *StageError) {
	var input any
	if st.BuildInput != nil {
		in, err := guard(func() (any, error) { return st.BuildInput(pc) })
		if err != nil {
			return nil, newStageError(KindPrecondition, st.Name, err)
		}
		input = in
	}

	raw, err := guard(func() (any, error) { return st.Invoke(ctx, input) })
	if err != nil {
		return nil, newStageError(KindTransport, st.Name, err)
	}

	if st.Validate == nil {
		return raw, nil
	}
	result, err := guard(func() (any, error) { return st.Validate(raw) })
	if err != nil {
		return nil, newStageError(KindValidation, st.Name, err)
	}
	return result, nil
}

// notify delivers a reporter event, logging rather than propagating a
// panic from the callback.
func (r *Runner) notify(logger *slog.Logger, event, stage string, fn func()) {
	safeCall(logger, event, stage, fn)
}

// guard converts a panic in a stage function into an error.
func guard(fn func() (any, error)) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
