package pipeline

import (
	"errors"
	"testing"
)

func TestPipelineContext(t *testing.T) {
	t.Parallel()

	t.Run("seed accessors", func(t *testing.T) {
		t.Parallel()

		pc := NewContext(map[string]any{"city": "Paris", "empty": "", "days": 3})

		if s, err := pc.SeedString("city"); err != nil || s != "Paris" {
			t.Errorf("SeedString(city) = %q, %v", s, err)
		}
		if _, err := pc.SeedString("empty"); !errors.Is(err, ErrMissingSeed) {
			t.Errorf("expected ErrMissingSeed for empty value, got %v", err)
		}
		if _, err := pc.SeedString("days"); !errors.Is(err, ErrMissingSeed) {
			t.Errorf("expected ErrMissingSeed for non-string value, got %v", err)
		}
		if got := pc.SeedStringOr("season", "Spring"); got != "Spring" {
			t.Errorf("SeedStringOr default = %q", got)
		}
		if n, err := SeedAs[int](pc, "days"); err != nil || n != 3 {
			t.Errorf("SeedAs[int] = %d, %v", n, err)
		}
		if _, err := SeedAs[int](pc, "city"); !errors.Is(err, ErrUnexpectedType) {
			t.Errorf("expected ErrUnexpectedType, got %v", err)
		}
	})

	t.Run("with returns a new snapshot", func(t *testing.T) {
		t.Parallel()

		base := NewContext(nil)
		next := base.with("profile", "pp-1")

		if base.Has("profile") {
			t.Error("base snapshot was modified")
		}
		if !next.Has("profile") || next.Len() != 1 {
			t.Error("expected profile in next snapshot")
		}

		later := next.with("meta", 42)
		names := later.Names()
		if len(names) != 2 || names[0] != "profile" || names[1] != "meta" {
			t.Errorf("unexpected order %v", names)
		}
		names[0] = "changed"
		if later.Names()[0] != "profile" {
			t.Error("Names must return a copy")
		}
		if next.Len() != 1 {
			t.Error("intermediate snapshot was modified")
		}
	})

	t.Run("ResultAs", func(t *testing.T) {
		t.Parallel()

		pc := NewContext(nil).with("meta", []string{"Louvre"})

		got, err := ResultAs[[]string](pc, "meta")
		if err != nil || len(got) != 1 {
			t.Errorf("ResultAs = %v, %v", got, err)
		}
		if _, err := ResultAs[string](pc, "meta"); !errors.Is(err, ErrUnexpectedType) {
			t.Errorf("expected ErrUnexpectedType, got %v", err)
		}
		if _, err := ResultAs[string](pc, "build"); !errors.Is(err, ErrMissingResult) {
			t.Errorf("expected ErrMissingResult, got %v", err)
		}
	})
}
