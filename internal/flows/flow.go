package flows

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/tripwell"
)

// ErrUnknownFlow is returned when a flow name is not registered.
var ErrUnknownFlow = errors.New("unknown flow")

// Caller performs one TripWell call. *tripwell.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, ep tripwell.Endpoint, payload any) (*tripwell.Response, error)
}

// Flow is a named, declarative stage list.
type Flow struct {
	// Name is the registry key, e.g. "place".
	Name string

	// Description is a one-line summary for listings.
	Description string

	// Required lists seed keys that must be supplied.
	Required []string

	// Defaults are seed values used when the caller omits them.
	Defaults map[string]any

	stages func(c Caller) []pipeline.Stage
}

// Stages returns the flow's stages bound to c.
func (f Flow) Stages(c Caller) []pipeline.Stage {
	return f.stages(c)
}

// StageNames returns the stage names in execution order.
func (f Flow) StageNames() []string {
	return pipeline.StageNames(f.stages(nil))
}

// Seed merges values over the flow defaults. The result is a new map.
func (f Flow) Seed(values map[string]any) map[string]any {
	seed := maps.Clone(f.Defaults)
	if seed == nil {
		seed = make(map[string]any, len(values))
	}
	maps.Copy(seed, values)
	return seed
}

// Registry holds flows by name.
type Registry struct {
	flows map[string]Flow
	order []string
}

// NewRegistry builds a registry. Later flows replace earlier ones with
// the same name.
func NewRegistry(flows ...Flow) *Registry {
	r := &Registry{flows: make(map[string]Flow, len(flows))}
	for _, f := range flows {
		if _, ok := r.flows[f.Name]; !ok {
			r.order = append(r.order, f.Name)
		}
		r.flows[f.Name] = f
	}
	return r
}

// Default returns a registry with every built-in flow.
func Default() *Registry {
	return NewRegistry(
		Place(),
		Persona(),
		CityMeta(),
		TripSetup(),
		CityParser(),
	)
}

// Get looks up a flow.
func (r *Registry) Get(name string) (Flow, error) {
	f, ok := r.flows[name]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownFlow, name, r.Names())
	}
	return f, nil
}

// Names returns the registered flow names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// List returns the registered flows in registration order.
func (r *Registry) List() []Flow {
	out := make([]Flow, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.flows[name])
	}
	return out
}

// call builds a stage that sends the input to ep and decodes the
// response into an Out.
func call[Out, In any](c Caller, name string, ep tripwell.Endpoint, build func(pc pipeline.PipelineContext) (In, error)) pipeline.Stage {
	return pipeline.NewStage(name,
		build,
		func(ctx context.Context, in In) (*tripwell.Response, error) {
			return c.Call(ctx, ep, in)
		},
		tripwell.Decoder[Out](ep),
	)
}
