package pipeline

import (
	"context"
	"fmt"
)

// Stage is one remote operation in a pipeline.
//
// BuildInput derives the request from the context and must not perform
// I/O. Invoke is the only function allowed to talk to the outside world.
// Validate turns the raw response into the result that later stages may
// read; a stage never sees another stage's raw response.
type Stage struct {
	// Name identifies the stage in reports and in the context.
	Name string

	// BuildInput constructs the invocation input from prior results.
	// A nil BuildInput passes a nil input to Invoke.
	BuildInput func(pc PipelineContext) (any, error)

	// Invoke performs the remote call.
	Invoke func(ctx context.Context, input any) (any, error)

	// Validate checks the raw response and returns the result to store.
	// A nil Validate stores the raw response unchanged.
	Validate func(raw any) (any, error)
}

// NewStage builds a Stage from typed functions. The type assertions
// between phases cannot fail because each phase only receives what the
// previous one returned.
func NewStage[In, Raw, Out any](
	name string,
	build func(pc PipelineContext) (In, error),
	invoke func(ctx context.Context, in In) (Raw, error),
	validate func(raw Raw) (Out, error),
) Stage {
	st := Stage{
		Name: name,
		BuildInput: func(pc PipelineContext) (any, error) {
			return build(pc)
		},
		Invoke: func(ctx context.Context, input any) (any, error) {
			in, ok := input.(In)
			if !ok && input != nil {
				return nil, fmt.Errorf("%w: input is %T", ErrUnexpectedType, input)
			}
			return invoke(ctx, in)
		},
	}
	if validate != nil {
		st.Validate = func(raw any) (any, error) {
			r, ok := raw.(Raw)
			if !ok && raw != nil {
				return nil, fmt.Errorf("%w: raw response is %T", ErrUnexpectedType, raw)
			}
			return validate(r)
		}
	}
	return st
}

// StageNames returns the names of stages in order.
func StageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	return names
}

// checkStages verifies the stage list can be run. The returned error
// names the offending stage.
func checkStages(stages []Stage) (string, error) {
	if len(stages) == 0 {
		return "", ErrNoStages
	}
	seen := make(map[string]struct{}, len(stages))
	for i, st := range stages {
		switch {
		case st.Name == "":
			return "", fmt.Errorf("%w: stage #%d", ErrEmptyStageName, i+1)
		case st.Name == SeedKey:
			return st.Name, fmt.Errorf("%w: %q", ErrReservedStageName, st.Name)
		case st.Invoke == nil:
			return st.Name, fmt.Errorf("%w: %q", ErrNoInvoke, st.Name)
		}
		if _, dup := seen[st.Name]; dup {
			return st.Name, fmt.Errorf("%w: %q", ErrDuplicateStage, st.Name)
		}
		seen[st.Name] = struct{}{}
	}
	return "", nil
}
