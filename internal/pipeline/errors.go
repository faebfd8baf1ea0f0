package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a stage failed.
// The kind is fixed by the phase that failed: input construction,
// invocation, or validation of the raw response.
type ErrorKind string

const (
	// KindPrecondition means the stage could not be started: a required
	// value was missing from the context or the stage list itself was
	// malformed.
	KindPrecondition ErrorKind = "PreconditionError"

	// KindTransport means the remote call did not complete. Network
	// failures, timeouts and cancellation all fall here.
	KindTransport ErrorKind = "TransportError"

	// KindValidation means the call completed but the response reported
	// failure or did not have the expected shape.
	KindValidation ErrorKind = "ValidationError"
)

// String returns the kind name.
func (k ErrorKind) String() string {
	return string(k)
}

// Stage list errors. These surface as PreconditionError reports; Run
// never returns them directly.
var (
	// ErrNoStages is reported when Run is called with an empty stage list.
	ErrNoStages = errors.New("pipeline has no stages")

	// ErrDuplicateStage is reported when two stages share a name.
	ErrDuplicateStage = errors.New("duplicate stage name")

	// ErrReservedStageName is reported when a stage uses the seed key as its name.
	ErrReservedStageName = errors.New("stage name is reserved")

	// ErrEmptyStageName is reported when a stage has no name.
	ErrEmptyStageName = errors.New("stage name is empty")

	// ErrNoInvoke is reported when a stage has no invocation function.
	ErrNoInvoke = errors.New("stage has no invoke function")
)

// Context lookup errors, returned by PipelineContext accessors so that
// input builders can propagate them as precondition failures.
var (
	// ErrMissingSeed is returned when a required seed value is absent or empty.
	ErrMissingSeed = errors.New("missing seed value")

	// ErrMissingResult is returned when an earlier stage's result is absent.
	ErrMissingResult = errors.New("missing stage result")

	// ErrUnexpectedType is returned when a stored value has a different type
	// than the caller asked for.
	ErrUnexpectedType = errors.New("unexpected value type")
)

// StageError is the failure recorded for a single stage.
type StageError struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Stage is the name of the stage that failed. It is empty only when
	// the stage list was empty.
	Stage string

	// Message is the human-readable cause. For validation failures this
	// carries the remote service's own message when it supplied one.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements error.
func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s in stage %q: %s", e.Kind, e.Stage, e.Message)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError classifies err under kind for the named stage. If err
// already is a *StageError its kind and message win, so stage functions
// can report a more precise classification than their phase implies.
func newStageError(kind ErrorKind, stage string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		out := *se
		if out.Kind == "" {
			out.Kind = kind
		}
		out.Stage = stage
		return &out
	}

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &StageError{
		Kind:    kind,
		Stage:   stage,
		Message: msg,
		Err:     err,
	}
}

// Validation returns an error that stage validators use to report a
// failure message verbatim, e.g. "Meta attractions failed: 500".
func Validation(format string, args ...any) error {
	return &StageError{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Precondition returns an error that input builders use to report a
// missing or unusable input.
func Precondition(format string, args ...any) error {
	return &StageError{
		Kind:    KindPrecondition,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of err if it is (or wraps) a *StageError.
func KindOf(err error) (ErrorKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
