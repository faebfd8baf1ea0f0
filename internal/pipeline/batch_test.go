package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// seedEcho returns a stage that echoes the "city" seed value.
func seedEcho(onInvoke func(ctx context.Context, city string) error) []Stage {
	return []Stage{{
		Name: "echo",
		BuildInput: func(pc PipelineContext) (any, error) {
			return pc.SeedString("city")
		},
		Invoke: func(ctx context.Context, in any) (any, error) {
			city := in.(string)
			if onInvoke != nil {
				if err := onInvoke(ctx, city); err != nil {
					return nil, err
				}
			}
			return city, nil
		},
	}}
}

func citySeeds(cities ...string) []map[string]any {
	seeds := make([]map[string]any, len(cities))
	for i, c := range cities {
		seeds[i] = map[string]any{"city": c}
	}
	return seeds
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, nil)

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != 10 {
			t.Errorf("expected default concurrency 10, got %d", bp.concurrency)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, nil, WithConcurrency(5))

		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, nil, WithConcurrency(0))

		if bp.concurrency != 10 {
			t.Errorf("expected concurrency 10, got %d", bp.concurrency)
		}
	})

	t.Run("falls back to default logger", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, nil, WithBatchLogger(nil))

		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("runs every seed and keeps order", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32
		bp := NewBatchProcessor(func() *Runner { return New() }, seedEcho(func(context.Context, string) error {
			processed.Add(1)
			return nil
		}))

		cities := []string{"Paris", "Rome", "Lisbon"}
		reports, err := bp.ProcessBatch(context.Background(), citySeeds(cities...))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processed.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processed.Load())
		}
		for i, r := range reports {
			if r.Results["echo"] != cities[i] {
				t.Errorf("report[%d]: got %v, want %q", i, r.Results["echo"], cities[i])
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, maxSeen atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(
			func() *Runner { return New() },
			seedEcho(func(context.Context, string) error {
				n := current.Add(1)
				mu.Lock()
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				mu.Unlock()
				time.Sleep(20 * time.Millisecond)
				current.Add(-1)
				return nil
			}),
			WithConcurrency(2),
		)

		seeds := citySeeds("a", "b", "c", "d", "e", "f", "g", "h")
		if _, err := bp.ProcessBatch(context.Background(), seeds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxSeen.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", maxSeen.Load())
		}
	})

	t.Run("one failure does not stop the others", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, seedEcho(func(_ context.Context, city string) error {
			if city == "fail" {
				return errors.New("simulated failure")
			}
			return nil
		}))

		reports, err := bp.ProcessBatch(context.Background(), citySeeds("Paris", "fail", "Rome"))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reports[0].Succeeded() || !reports[2].Succeeded() {
			t.Error("expected siblings to succeed")
		}
		if reports[1].Status != StatusFailed || reports[1].Error.Kind != KindTransport {
			t.Errorf("expected transport failure, got %+v", reports[1].Error)
		}
	})

	t.Run("missing seed value is a precondition failure", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Runner { return New() }, seedEcho(nil))

		reports, err := bp.ProcessBatch(context.Background(), []map[string]any{{}})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[0].Error == nil || reports[0].Error.Kind != KindPrecondition {
			t.Errorf("expected precondition failure, got %+v", reports[0].Error)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var started atomic.Int32

		bp := NewBatchProcessor(
			func() *Runner { return New() },
			seedEcho(func(ctx context.Context, _ string) error {
				started.Add(1)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
					return nil
				}
			}),
			WithConcurrency(2),
		)

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		seeds := citySeeds("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
		reports, err := bp.ProcessBatch(ctx, seeds)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if started.Load() >= int32(len(seeds)) {
			t.Error("expected some runs to be skipped")
		}
		for i, r := range reports {
			if r == nil {
				t.Fatalf("report %d missing", i)
			}
			if r.Succeeded() {
				t.Errorf("report %d: expected failure after cancellation", i)
			}
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	got := make(map[int]string)

	bp := NewBatchProcessor(func() *Runner { return New(WithName("echo")) }, seedEcho(nil))

	err := bp.ProcessBatchWithCallback(context.Background(), citySeeds("Paris", "Rome"), func(r *Report, i int) {
		mu.Lock()
		defer mu.Unlock()
		got[i] = r.Results["echo"].(string)
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != "Paris" || got[1] != "Rome" {
		t.Errorf("unexpected callbacks: %v", got)
	}
}
