package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tripwell/tripctl/internal/pipeline"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Reporter forwards pipeline events to a bubbletea program.
type Reporter struct {
	to  Sender
	now func() time.Time
}

var _ pipeline.Reporter = (*Reporter)(nil)

// NewReporter returns a Reporter that sends to s.
func NewReporter(s Sender) *Reporter {
	return &Reporter{to: s, now: time.Now}
}

// OnStageStart implements pipeline.Reporter.
func (r *Reporter) OnStageStart(name string, index, total int) {
	r.to.Send(StageStartedMsg{Name: name, Index: index, Total: total, At: r.now()})
}

// OnStageSuccess implements pipeline.Reporter.
func (r *Reporter) OnStageSuccess(name string, _ any) {
	r.to.Send(StageSucceededMsg{Name: name, At: r.now()})
}

// OnStageFailure implements pipeline.Reporter.
func (r *Reporter) OnStageFailure(name string, err *pipeline.StageError) {
	r.to.Send(StageFailedMsg{Name: name, Err: err, At: r.now()})
}

// RunFunc executes a run, reporting progress to rep.
type RunFunc func(ctx context.Context, rep pipeline.Reporter) *pipeline.Report

// Run shows a progress view on out while fn executes and returns fn's
// report. Pressing q cancels the context passed to fn. If the terminal
// cannot host the program, fn still runs to completion and the program
// error is returned alongside the report.
func Run(ctx context.Context, title string, stages []string, out io.Writer, fn RunFunc) (*pipeline.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, stages, cancel), tea.WithOutput(out))

	done := make(chan *pipeline.Report, 1)
	go func() {
		rep := fn(ctx, NewReporter(p))
		done <- rep
		p.Send(RunFinishedMsg{Report: rep})
	}()

	_, err := p.Run()
	return <-done, err
}
