package tui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwell/tripctl/internal/pipeline"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModel_StageLifecycle(t *testing.T) {
	t.Parallel()

	m := NewModel("place Paris", []string{"profile", "meta", "build"}, nil)
	view := m.View()
	assert.Contains(t, view, "place Paris")
	assert.Contains(t, view, "· 1/3 profile")
	assert.Contains(t, view, "q to cancel")

	m = apply(t, m,
		StageStartedMsg{Name: "profile", Index: 1, Total: 3, At: t0},
		StageSucceededMsg{Name: "profile", At: t0.Add(250 * time.Millisecond)},
		StageStartedMsg{Name: "meta", Index: 2, Total: 3, At: t0.Add(time.Second)},
	)
	assert.Equal(t, stageDone, m.stages[0].status)
	assert.Equal(t, 250*time.Millisecond, m.stages[0].elapsed)
	assert.Equal(t, stageRunning, m.stages[1].status)
	assert.Equal(t, stagePending, m.stages[2].status)

	view = m.View()
	assert.Contains(t, view, "✓ 1/3 profile")
	assert.Contains(t, view, "250ms")
	assert.Contains(t, view, "2/3 meta")

	serr := &pipeline.StageError{Kind: pipeline.KindValidation, Stage: "meta", Message: "Meta attractions failed: 500"}
	m = apply(t, m, StageFailedMsg{Name: "meta", Err: serr, At: t0.Add(2 * time.Second)})
	assert.Equal(t, stageFailed, m.stages[1].status)
	assert.Contains(t, m.View(), "Meta attractions failed: 500")
}

func TestModel_RunFinishedQuits(t *testing.T) {
	t.Parallel()

	m := NewModel("run", []string{"a"}, nil)
	rep := &pipeline.Report{Status: pipeline.StatusSuccess, CompletedStages: []string{"a"}}

	next, cmd := m.Update(RunFinishedMsg{Report: rep})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	final := next.(Model)
	assert.Same(t, rep, final.Report())
	assert.Contains(t, final.View(), "done")
}

func TestModel_CancelKey(t *testing.T) {
	t.Parallel()

	calls := 0
	m := NewModel("run", []string{"a"}, func() { calls++ })

	m = apply(t, m,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")},
		tea.KeyMsg{Type: tea.KeyCtrlC},
	)
	assert.Equal(t, 1, calls, "cancel should be called once")
	assert.Contains(t, m.View(), "cancelling...")
}

func TestModel_UnknownStageIsAppended(t *testing.T) {
	t.Parallel()

	m := NewModel("run", nil, nil)
	m = apply(t, m, StageStartedMsg{Name: "extra", Index: 1, Total: 1, At: t0})
	require.Len(t, m.stages, 1)
	assert.Equal(t, "extra", m.stages[0].name)
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestReporter_ForwardsEvents(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	r := NewReporter(s)
	r.now = func() time.Time { return t0 }

	serr := &pipeline.StageError{Kind: pipeline.KindTransport, Stage: "meta", Err: errors.New("refused")}
	r.OnStageStart("profile", 1, 2)
	r.OnStageSuccess("profile", map[string]any{"placeSlug": "ParisSolo"})
	r.OnStageFailure("meta", serr)

	assert.Equal(t, []tea.Msg{
		StageStartedMsg{Name: "profile", Index: 1, Total: 2, At: t0},
		StageSucceededMsg{Name: "profile", At: t0},
		StageFailedMsg{Name: "meta", Err: serr, At: t0},
	}, s.msgs)
}
