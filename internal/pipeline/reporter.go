package pipeline

import (
	"log/slog"
)

// Reporter observes stage progress. The runner calls it synchronously
// and recovers any panic raised by a callback, so a broken reporter can
// never abort a run.
type Reporter interface {
	// OnStageStart is called before a stage runs. index is 1-based.
	OnStageStart(name string, index, total int)

	// OnStageSuccess is called with the validated result of a stage.
	OnStageSuccess(name string, result any)

	// OnStageFailure is called once when a stage fails.
	OnStageFailure(name string, err *StageError)
}

// NopReporter discards all events. It is the runner's default.
type NopReporter struct{}

// OnStageStart implements Reporter.
func (NopReporter) OnStageStart(string, int, int) {}

// OnStageSuccess implements Reporter.
func (NopReporter) OnStageSuccess(string, any) {}

// OnStageFailure implements Reporter.
func (NopReporter) OnStageFailure(string, *StageError) {}

// ReporterFuncs adapts plain functions to a Reporter. Nil fields are
// ignored.
type ReporterFuncs struct {
	Start   func(name string, index, total int)
	Success func(name string, result any)
	Failure func(name string, err *StageError)
}

// OnStageStart implements Reporter.
func (f ReporterFuncs) OnStageStart(name string, index, total int) {
	if f.Start != nil {
		f.Start(name, index, total)
	}
}

// OnStageSuccess implements Reporter.
func (f ReporterFuncs) OnStageSuccess(name string, result any) {
	if f.Success != nil {
		f.Success(name, result)
	}
}

// OnStageFailure implements Reporter.
func (f ReporterFuncs) OnStageFailure(name string, err *StageError) {
	if f.Failure != nil {
		f.Failure(name, err)
	}
}

// safeCall runs fn and logs instead of propagating a panic.
func safeCall(logger *slog.Logger, event, stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status reporter panicked",
				"event", event,
				"stage", stage,
				"panic", r,
			)
		}
	}()
	fn()
}
