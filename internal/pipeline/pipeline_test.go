package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// countingStage builds a stage that records how often each phase ran.
type countingStage struct {
	name      string
	build     func(pc PipelineContext) (any, error)
	invoke    func(ctx context.Context, input any) (any, error)
	validate  func(raw any) (any, error)
	mu        sync.Mutex
	callCount int
}

func (c *countingStage) stage() Stage {
	st := Stage{
		Name: c.name,
		Invoke: func(ctx context.Context, input any) (any, error) {
			c.mu.Lock()
			c.callCount++
			c.mu.Unlock()
			if c.invoke != nil {
				return c.invoke(ctx, input)
			}
			return c.name + "-raw", nil
		},
	}
	if c.build != nil {
		st.BuildInput = c.build
	}
	if c.validate != nil {
		st.Validate = c.validate
	}
	return st
}

func (c *countingStage) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callCount
}

// recordingReporter captures events in order.
type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingReporter) OnStageStart(name string, index, total int) {
	r.add(fmt.Sprintf("start:%s:%d/%d", name, index, total))
}

func (r *recordingReporter) OnStageSuccess(name string, _ any) {
	r.add("success:" + name)
}

func (r *recordingReporter) OnStageFailure(name string, err *StageError) {
	r.add(fmt.Sprintf("failure:%s:%s", name, err.Kind))
}

func (r *recordingReporter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

// TestRunnerNew tests the Runner constructor.
func TestRunnerNew(t *testing.T) {
	t.Parallel()

	t.Run("creates runner with default settings", func(t *testing.T) {
		t.Parallel()

		r := New()

		if r == nil {
			t.Fatal("expected non-nil runner")
		}
		if r.logger == nil {
			t.Error("expected default logger")
		}
		if _, ok := r.reporter.(NopReporter); !ok {
			t.Errorf("expected NopReporter, got %T", r.reporter)
		}
	})

	t.Run("applies WithName option", func(t *testing.T) {
		t.Parallel()

		r := New(WithName("place"))

		if r.Name() != "place" {
			t.Errorf("expected name %q, got %q", "place", r.Name())
		}
	})
}

// TestRunnerRun tests sequential fail-fast execution.
func TestRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("all stages succeed", func(t *testing.T) {
		t.Parallel()

		stages := []*countingStage{{name: "a"}, {name: "b"}, {name: "c"}}
		list := make([]Stage, 0, len(stages))
		for _, s := range stages {
			list = append(list, s.stage())
		}

		report := New().Run(context.Background(), list, nil)

		if report.Status != StatusSuccess {
			t.Fatalf("expected success, got %s (%v)", report.Status, report.Error)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, report.CompletedStages); diff != "" {
			t.Errorf("completed stages mismatch (-want +got):\n%s", diff)
		}
		if len(report.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(report.Results))
		}
		if report.FailedStage != "" || report.Error != nil {
			t.Errorf("expected no failure, got %q %v", report.FailedStage, report.Error)
		}
		for _, s := range stages {
			if s.calls() != 1 {
				t.Errorf("stage %s: expected 1 call, got %d", s.name, s.calls())
			}
		}
	})

	t.Run("stops at the first failing stage", func(t *testing.T) {
		t.Parallel()

		for k := 1; k <= 3; k++ {
			stages := []*countingStage{{name: "s1"}, {name: "s2"}, {name: "s3"}}
			stages[k-1].validate = func(any) (any, error) {
				return nil, errors.New("bad shape")
			}
			list := make([]Stage, 0, len(stages))
			for _, s := range stages {
				list = append(list, s.stage())
			}

			report := New().Run(context.Background(), list, nil)

			if report.Status != StatusFailed {
				t.Fatalf("k=%d: expected failed status", k)
			}
			if report.FailedStage != stages[k-1].name {
				t.Errorf("k=%d: expected failed stage %q, got %q", k, stages[k-1].name, report.FailedStage)
			}
			if len(report.CompletedStages) != k-1 {
				t.Errorf("k=%d: expected %d completed, got %v", k, k-1, report.CompletedStages)
			}
			if _, ok := report.Results[stages[k-1].name]; ok {
				t.Errorf("k=%d: failed stage must not have a result", k)
			}
			for i, s := range stages {
				want := 0
				if i < k {
					want = 1
				}
				if s.calls() != want {
					t.Errorf("k=%d: stage %s called %d times, want %d", k, s.name, s.calls(), want)
				}
			}
		}
	})

	t.Run("threads validated results to later stages", func(t *testing.T) {
		t.Parallel()

		var seenInput any
		first := &countingStage{
			name: "profile",
			invoke: func(context.Context, any) (any, error) {
				return map[string]any{"status": "success", "placeProfileId": "pp-1"}, nil
			},
			validate: func(raw any) (any, error) {
				return raw.(map[string]any)["placeProfileId"], nil
			},
		}
		second := &countingStage{
			name: "meta",
			build: func(pc PipelineContext) (any, error) {
				return ResultAs[string](pc, "profile")
			},
			invoke: func(_ context.Context, input any) (any, error) {
				seenInput = input
				return "ok", nil
			},
		}

		report := New().Run(context.Background(), []Stage{first.stage(), second.stage()}, nil)

		if !report.Succeeded() {
			t.Fatalf("expected success, got %v", report.Error)
		}
		if seenInput != "pp-1" {
			t.Errorf("expected validated result as input, got %v", seenInput)
		}
		if report.Results["profile"] != "pp-1" {
			t.Errorf("expected validated result stored, got %v", report.Results["profile"])
		}
	})

	t.Run("classifies errors by phase", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			stage *countingStage
			want  ErrorKind
		}{
			{
				name: "input builder failure",
				stage: &countingStage{name: "x", build: func(pc PipelineContext) (any, error) {
					return pc.SeedString("city")
				}},
				want: KindPrecondition,
			},
			{
				name: "invoke failure",
				stage: &countingStage{name: "x", invoke: func(context.Context, any) (any, error) {
					return nil, errors.New("connection refused")
				}},
				want: KindTransport,
			},
			{
				name: "validate failure",
				stage: &countingStage{name: "x", validate: func(any) (any, error) {
					return nil, errors.New("status != success")
				}},
				want: KindValidation,
			},
			{
				name: "panic in invoke",
				stage: &countingStage{name: "x", invoke: func(context.Context, any) (any, error) {
					panic("boom")
				}},
				want: KindTransport,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				report := New().Run(context.Background(), []Stage{tt.stage.stage()}, nil)

				if report.Error == nil {
					t.Fatal("expected error")
				}
				if report.Error.Kind != tt.want {
					t.Errorf("expected kind %s, got %s", tt.want, report.Error.Kind)
				}
				if report.FailedStage != "x" {
					t.Errorf("expected failed stage x, got %q", report.FailedStage)
				}
			})
		}
	})

	t.Run("precondition failure does not invoke", func(t *testing.T) {
		t.Parallel()

		s := &countingStage{name: "meta", build: func(pc PipelineContext) (any, error) {
			return ResultAs[string](pc, "profile")
		}}

		report := New().Run(context.Background(), []Stage{s.stage()}, nil)

		if s.calls() != 0 {
			t.Errorf("invoke should not run, got %d calls", s.calls())
		}
		if !errors.Is(report.Err(), ErrMissingResult) {
			t.Errorf("expected ErrMissingResult, got %v", report.Err())
		}
	})

	t.Run("validation message is preserved verbatim", func(t *testing.T) {
		t.Parallel()

		s := &countingStage{name: "meta", validate: func(any) (any, error) {
			return nil, Validation("Meta creator failed: %s", "quota exceeded")
		}}

		report := New().Run(context.Background(), []Stage{s.stage()}, nil)

		if report.Error.Message != "Meta creator failed: quota exceeded" {
			t.Errorf("unexpected message %q", report.Error.Message)
		}
	})
}

// TestRunnerPreconditions tests stage list checks.
func TestRunnerPreconditions(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, any) (any, error) { return nil, nil }

	tests := []struct {
		name      string
		stages    []Stage
		wantErr   error
		wantStage string
	}{
		{name: "empty list", stages: nil, wantErr: ErrNoStages},
		{
			name:      "duplicate names",
			stages:    []Stage{{Name: "a", Invoke: noop}, {Name: "a", Invoke: noop}},
			wantErr:   ErrDuplicateStage,
			wantStage: "a",
		},
		{
			name:      "reserved name",
			stages:    []Stage{{Name: SeedKey, Invoke: noop}},
			wantErr:   ErrReservedStageName,
			wantStage: SeedKey,
		},
		{
			name:      "missing invoke",
			stages:    []Stage{{Name: "a"}},
			wantErr:   ErrNoInvoke,
			wantStage: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recordingReporter{}
			report := New(WithReporter(rec)).Run(context.Background(), tt.stages, nil)

			if report.Status != StatusFailed {
				t.Fatalf("expected failed status, got %s", report.Status)
			}
			if report.Error.Kind != KindPrecondition {
				t.Errorf("expected PreconditionError, got %s", report.Error.Kind)
			}
			if !errors.Is(report.Err(), tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, report.Err())
			}
			if report.FailedStage != tt.wantStage {
				t.Errorf("expected failed stage %q, got %q", tt.wantStage, report.FailedStage)
			}
			if len(rec.snapshot()) != 0 {
				t.Errorf("expected no events, got %v", rec.snapshot())
			}
		})
	}
}

// TestRunnerCancellation tests context handling between stages.
func TestRunnerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	first := &countingStage{name: "first", invoke: func(context.Context, any) (any, error) {
		cancel()
		return "done", nil
	}}
	second := &countingStage{name: "second"}

	report := New().Run(ctx, []Stage{first.stage(), second.stage()}, nil)

	if second.calls() != 0 {
		t.Error("second stage should not have been invoked")
	}
	if report.FailedStage != "second" {
		t.Errorf("expected failed stage second, got %q", report.FailedStage)
	}
	if report.Error.Kind != KindTransport {
		t.Errorf("expected TransportError, got %s", report.Error.Kind)
	}
	if !errors.Is(report.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", report.Err())
	}
	if diff := cmp.Diff([]string{"first"}, report.CompletedStages); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
}

// TestRunnerIdempotence tests that identical runs give identical reports.
func TestRunnerIdempotence(t *testing.T) {
	t.Parallel()

	build := func() []Stage {
		return []Stage{
			{
				Name: "profile",
				BuildInput: func(pc PipelineContext) (any, error) {
					return pc.SeedString("city")
				},
				Invoke: func(_ context.Context, in any) (any, error) {
					return map[string]any{"city": in, "id": "pp-" + in.(string)}, nil
				},
			},
			{
				Name: "meta",
				Invoke: func(context.Context, any) (any, error) {
					return nil, errors.New("Meta attractions failed: 500")
				},
			},
		}
	}
	seed := map[string]any{"city": "Paris"}

	r := New(WithName("place"))
	a := r.Run(context.Background(), build(), seed)
	b := r.Run(context.Background(), build(), seed)

	opts := cmp.Options{
		cmpopts.IgnoreFields(Report{}, "RunID", "StartedAt", "FinishedAt", "Timings"),
		cmpopts.IgnoreUnexported(Report{}),
	}
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("reports differ (-a +b):\n%s", diff)
	}
	if a.RunID == b.RunID {
		t.Error("expected distinct run IDs")
	}
	if a.Fingerprint != b.Fingerprint {
		t.Error("expected equal fingerprints")
	}
}

// TestContextIsolation tests that stages cannot affect later snapshots.
func TestContextIsolation(t *testing.T) {
	t.Parallel()

	var seenCity string
	stages := []Stage{
		{
			Name: "mutator",
			BuildInput: func(pc PipelineContext) (any, error) {
				s := pc.Seed()
				s["city"] = "Rome"
				return nil, nil
			},
			Invoke: func(context.Context, any) (any, error) { return "ok", nil },
		},
		{
			Name: "reader",
			BuildInput: func(pc PipelineContext) (any, error) {
				return pc.SeedString("city")
			},
			Invoke: func(_ context.Context, in any) (any, error) {
				seenCity = in.(string)
				return in, nil
			},
		},
	}
	seed := map[string]any{"city": "Paris"}

	report := New().Run(context.Background(), stages, seed)

	if !report.Succeeded() {
		t.Fatalf("expected success, got %v", report.Error)
	}
	if seenCity != "Paris" {
		t.Errorf("expected Paris, got %q", seenCity)
	}
	if seed["city"] != "Paris" {
		t.Error("caller seed was modified")
	}
}

// TestReporterEvents tests event ordering and panic recovery.
func TestReporterEvents(t *testing.T) {
	t.Parallel()

	t.Run("emits one start and one outcome per executed stage", func(t *testing.T) {
		t.Parallel()

		rec := &recordingReporter{}
		stages := []Stage{
			(&countingStage{name: "a"}).stage(),
			(&countingStage{name: "b", validate: func(any) (any, error) {
				return nil, errors.New("nope")
			}}).stage(),
			(&countingStage{name: "c"}).stage(),
		}

		New(WithReporter(rec)).Run(context.Background(), stages, nil)

		want := []string{
			"start:a:1/3",
			"success:a",
			"start:b:2/3",
			"failure:b:ValidationError",
		}
		if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("panicking reporter does not abort the run", func(t *testing.T) {
		t.Parallel()

		panicky := ReporterFuncs{
			Start:   func(string, int, int) { panic("start") },
			Success: func(string, any) { panic("success") },
		}
		stages := []Stage{(&countingStage{name: "a"}).stage(), (&countingStage{name: "b"}).stage()}
		report := New(WithReporter(panicky)).Run(context.Background(), stages, nil)

		if !report.Succeeded() {
			t.Fatalf("expected success, got %v", report.Error)
		}
		if diff := cmp.Diff([]string{"a", "b"}, report.CompletedStages); diff != "" {
			t.Errorf("completed stages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("panicking reporter passed directly", func(t *testing.T) {
		t.Parallel()

		panicky := ReporterFuncs{Failure: func(string, *StageError) { panic("failure") }}
		stages := []Stage{(&countingStage{name: "a", invoke: func(context.Context, any) (any, error) {
			return nil, errors.New("down")
		}}).stage()}

		report := New(WithReporter(panicky)).Run(context.Background(), stages, nil)

		if report.Status != StatusFailed || report.FailedStage != "a" {
			t.Errorf("unexpected report %+v", report)
		}
	})
}

// TestEndToEndPlaceFlow exercises profile, meta, build with in-memory stages.
func TestEndToEndPlaceFlow(t *testing.T) {
	t.Parallel()

	type placeProfile struct{ ID string }

	newStages := func(metaStatus int) []Stage {
		return []Stage{
			NewStage("profile",
				func(pc PipelineContext) (string, error) { return pc.SeedString("city") },
				func(_ context.Context, city string) (map[string]any, error) {
					return map[string]any{"status": "success", "placeProfileId": "pp-" + city}, nil
				},
				func(raw map[string]any) (placeProfile, error) {
					return placeProfile{ID: raw["placeProfileId"].(string)}, nil
				},
			),
			NewStage("meta",
				func(pc PipelineContext) (string, error) {
					p, err := ResultAs[placeProfile](pc, "profile")
					return p.ID, err
				},
				func(_ context.Context, id string) (int, error) { return metaStatus, nil },
				func(code int) ([]string, error) {
					if code != 200 {
						return nil, Validation("Meta attractions failed: %d", code)
					}
					return []string{"Louvre", "Eiffel Tower"}, nil
				},
			),
			NewStage("build",
				func(pc PipelineContext) ([]string, error) { return ResultAs[[]string](pc, "meta") },
				func(_ context.Context, metas []string) (int, error) { return len(metas), nil },
				func(n int) (int, error) { return n, nil },
			),
		}
	}
	seed := map[string]any{"city": "Paris", "season": "Spring", "whoWith": "solo"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		report := New(WithName("place")).Run(context.Background(), newStages(200), seed)

		if !report.Succeeded() {
			t.Fatalf("expected success, got %v", report.Error)
		}
		if diff := cmp.Diff([]string{"profile", "meta", "build"}, report.CompletedStages); diff != "" {
			t.Errorf("completed mismatch (-want +got):\n%s", diff)
		}
		if report.Results["build"] != 2 {
			t.Errorf("expected build result 2, got %v", report.Results["build"])
		}
		ordered := report.OrderedResults()
		if ordered[0].Stage != "profile" || ordered[2].Stage != "build" {
			t.Errorf("unexpected order %+v", ordered)
		}
	})

	t.Run("meta failure", func(t *testing.T) {
		t.Parallel()

		report := New(WithName("place")).Run(context.Background(), newStages(500), seed)

		want := &ReportError{Kind: KindValidation, Message: "Meta attractions failed: 500"}
		if diff := cmp.Diff(want, report.Error); diff != "" {
			t.Errorf("error mismatch (-want +got):\n%s", diff)
		}
		if report.FailedStage != "meta" {
			t.Errorf("expected failed stage meta, got %q", report.FailedStage)
		}
		if diff := cmp.Diff([]string{"profile"}, report.CompletedStages); diff != "" {
			t.Errorf("completed mismatch (-want +got):\n%s", diff)
		}
		if _, ok := report.Results["profile"]; !ok {
			t.Error("expected partial profile result")
		}
	})
}

// TestFingerprint tests that fingerprints depend on flow and seed only.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("place", map[string]any{"city": "Paris", "season": "Spring"})
	b := Fingerprint("place", map[string]any{"season": "Spring", "city": "Paris"})
	c := Fingerprint("persona", map[string]any{"city": "Paris", "season": "Spring"})

	if a != b {
		t.Error("expected key order to be irrelevant")
	}
	if a == c {
		t.Error("expected flow name to change the fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
