package pipeline

import (
	"fmt"
	"maps"
	"slices"
)

// SeedKey is the reserved context key holding the caller-supplied seed.
// No stage may use it as its name.
const SeedKey = "seed"

// PipelineContext is an immutable snapshot of a run: the seed plus the
// validated result of every stage completed so far.
//
// Stages only ever receive a snapshot. The runner is the sole writer and
// produces a new snapshot after each successful stage, so nothing a stage
// does to its copy can affect what later stages see.
type PipelineContext struct {
	seed    map[string]any
	results map[string]any
	order   []string
}

// NewContext returns a context holding a copy of seed and no results.
func NewContext(seed map[string]any) PipelineContext {
	s := make(map[string]any, len(seed))
	maps.Copy(s, seed)
	return PipelineContext{
		seed:    s,
		results: make(map[string]any),
	}
}

// with returns a new snapshot that also holds result under name.
func (c PipelineContext) with(name string, result any) PipelineContext {
	results := make(map[string]any, len(c.results)+1)
	maps.Copy(results, c.results)
	results[name] = result

	order := make([]string, len(c.order), len(c.order)+1)
	copy(order, c.order)
	order = append(order, name)

	return PipelineContext{
		seed:    c.seed,
		results: results,
		order:   order,
	}
}

// Seed returns a copy of the seed values.
func (c PipelineContext) Seed() map[string]any {
	return maps.Clone(c.seed)
}

// SeedValue returns the seed value stored under key.
func (c PipelineContext) SeedValue(key string) (any, bool) {
	v, ok := c.seed[key]
	return v, ok
}

// SeedString returns the seed value under key as a non-empty string.
// A missing, empty or non-string value yields ErrMissingSeed.
func (c PipelineContext) SeedString(key string) (string, error) {
	v, ok := c.seed[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingSeed, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSeed, key)
	}
	return s, nil
}

// SeedStringOr returns the seed string under key, or def when it is
// missing or empty.
func (c PipelineContext) SeedStringOr(key, def string) string {
	if s, err := c.SeedString(key); err == nil {
		return s
	}
	return def
}

// Result returns the validated result of a completed stage.
func (c PipelineContext) Result(name string) (any, bool) {
	v, ok := c.results[name]
	return v, ok
}

// Has reports whether the named stage has completed.
func (c PipelineContext) Has(name string) bool {
	_, ok := c.results[name]
	return ok
}

// Names returns the completed stage names in execution order.
func (c PipelineContext) Names() []string {
	return slices.Clone(c.order)
}

// Len returns the number of completed stages.
func (c PipelineContext) Len() int {
	return len(c.order)
}

// ResultAs returns the named stage result as a T.
func ResultAs[T any](c PipelineContext, name string) (T, error) {
	var zero T
	v, ok := c.results[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingResult, name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: result of %s is %T, want %T", ErrUnexpectedType, name, v, zero)
	}
	return t, nil
}

// SeedAs returns the seed value under key as a T.
func SeedAs[T any](c PipelineContext, key string) (T, error) {
	var zero T
	v, ok := c.seed[key]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingSeed, key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: seed %s is %T, want %T", ErrUnexpectedType, key, v, zero)
	}
	return t, nil
}
