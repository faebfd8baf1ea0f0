package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tripwell/tripctl/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

type stageStatus int

const (
	stagePending stageStatus = iota
	stageRunning
	stageDone
	stageFailed
)

type stageRow struct {
	name    string
	status  stageStatus
	started time.Time
	elapsed time.Duration
	err     string
}

// StageStartedMsg is sent when a stage begins.
type StageStartedMsg struct {
	Name  string
	Index int
	Total int
	At    time.Time
}

// StageSucceededMsg is sent when a stage's result has been stored.
type StageSucceededMsg struct {
	Name string
	At   time.Time
}

// StageFailedMsg is sent when a stage fails.
type StageFailedMsg struct {
	Name string
	Err  *pipeline.StageError
	At   time.Time
}

// RunFinishedMsg carries the final report and ends the program.
type RunFinishedMsg struct {
	Report *pipeline.Report
}

// Model renders a run as a list of stages with a spinner on the active one.
type Model struct {
	title   string
	stages  []stageRow
	index   map[string]int
	spinner spinner.Model
	report  *pipeline.Report
	cancel  context.CancelFunc

	cancelling bool
}

// NewModel creates a model for the named stages. cancel is called when the
// user presses q or ctrl+c; the program keeps running until the run
// reports back.
func NewModel(title string, stages []string, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	rows := make([]stageRow, len(stages))
	index := make(map[string]int, len(stages))
	for i, name := range stages {
		rows[i] = stageRow{name: name}
		index[name] = i
	}
	return Model{
		title:   title,
		stages:  rows,
		index:   index,
		spinner: s,
		cancel:  cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case StageStartedMsg:
		row := m.row(msg.Name)
		row.status = stageRunning
		row.started = msg.At
		return m, nil

	case StageSucceededMsg:
		row := m.row(msg.Name)
		row.status = stageDone
		row.elapsed = msg.At.Sub(row.started)
		return m, nil

	case StageFailedMsg:
		row := m.row(msg.Name)
		row.status = stageFailed
		if !row.started.IsZero() {
			row.elapsed = msg.At.Sub(row.started)
		}
		if msg.Err != nil {
			row.err = msg.Err.Error()
		}
		return m, nil

	case RunFinishedMsg:
		m.report = msg.Report
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// row returns the row for name, appending one for stages the model was
// not told about up front.
func (m *Model) row(name string) *stageRow {
	if i, ok := m.index[name]; ok {
		return &m.stages[i]
	}
	m.stages = append(m.stages, stageRow{name: name})
	if m.index == nil {
		m.index = map[string]int{}
	}
	m.index[name] = len(m.stages) - 1
	return &m.stages[len(m.stages)-1]
}

// Report returns the final report once the run has finished.
func (m Model) Report() *pipeline.Report {
	return m.report
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, row := range m.stages {
		label := fmt.Sprintf("%d/%d %s", i+1, len(m.stages), row.name)
		switch row.status {
		case stagePending:
			b.WriteString("  " + pendingStyle.Render("· "+label))
		case stageRunning:
			b.WriteString("  " + m.spinner.View() + label)
		case stageDone:
			b.WriteString("  " + doneStyle.Render("✓ "+label) + " " + faintStyle.Render(row.elapsed.Round(time.Millisecond).String()))
		case stageFailed:
			b.WriteString("  " + failedStyle.Render("✗ "+label))
			if row.err != "" {
				b.WriteString("\n    " + errorStyle.Render(row.err))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.report != nil && m.report.Succeeded():
		b.WriteString(doneStyle.Render("done") + "\n")
	case m.report != nil:
		b.WriteString(failedStyle.Render("failed") + "\n")
	case m.cancelling:
		b.WriteString(faintStyle.Render("cancelling...") + "\n")
	default:
		b.WriteString(faintStyle.Render("q to cancel") + "\n")
	}
	return b.String()
}
