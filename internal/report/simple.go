package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tripwell/tripctl/internal/pipeline"
)

const rule = 70

// SimpleWriter outputs plain text for the terminal. No ANSI colors, so
// the output can be piped or redirected unchanged.
type SimpleWriter struct {
	baseWriter

	// verbose adds every stage result as indented JSON.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose includes stage results in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one run.
func (w *SimpleWriter) Write(report *pipeline.Report) (int, error) {
	var sb strings.Builder
	w.writeRun(&sb, report)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs the batch summary and then a short block per run.
func (w *SimpleWriter) WriteBatch(reports []*pipeline.Report) (int, error) {
	var sb strings.Builder
	s := Summarize(reports)

	writeBanner(&sb, "TRIPCTL BATCH REPORT")
	fmt.Fprintf(&sb, "Runs:       %d\n", s.Total)
	fmt.Fprintf(&sb, "Succeeded:  %d\n", s.Succeeded)
	fmt.Fprintf(&sb, "Failed:     %d\n", s.Failed)
	if s.Failed > 0 {
		sb.WriteString("\nFAILURES BY STAGE\n")
		sb.WriteString(strings.Repeat("-", rule) + "\n")
		for _, stage := range s.failedStages() {
			fmt.Fprintf(&sb, "  %-20s %d\n", stage, s.FailuresByStage[stage])
		}
	}
	sb.WriteString("\n")

	for i, r := range reports {
		if r == nil {
			continue
		}
		fmt.Fprintf(&sb, "[%d] %s %s: %s\n", i+1, r.Flow, shortID(r.RunID), statusLine(r))
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeRun(sb *strings.Builder, r *pipeline.Report) {
	writeBanner(sb, "TRIPCTL RUN REPORT")

	flow := r.Flow
	if flow == "" {
		flow = "-"
	}
	fmt.Fprintf(sb, "Flow:      %s\n", flow)
	fmt.Fprintf(sb, "Run ID:    %s\n", r.RunID)
	fmt.Fprintf(sb, "Started:   %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", r.Duration().Round(time.Millisecond))
	if r.Succeeded() {
		sb.WriteString("Status:    SUCCESS\n")
	} else {
		fmt.Fprintf(sb, "Status:    FAILED at stage %q\n", r.FailedStage)
	}
	sb.WriteString("\n")

	sb.WriteString("STAGES\n")
	sb.WriteString(strings.Repeat("-", rule) + "\n")
	for _, name := range r.CompletedStages {
		d, _ := timingOf(r, name)
		fmt.Fprintf(sb, "  [OK]    %-16s %s\n", name, d)
	}
	if !r.Succeeded() {
		d, _ := timingOf(r, r.FailedStage)
		fmt.Fprintf(sb, "  [FAIL]  %-16s %s\n", r.FailedStage, d)
	}
	sb.WriteString("\n")

	if r.Error != nil {
		sb.WriteString("ERROR\n")
		sb.WriteString(strings.Repeat("-", rule) + "\n")
		fmt.Fprintf(sb, "  %s: %s\n\n", r.Error.Kind, r.Error.Message)
	}

	if w.verbose && len(r.CompletedStages) > 0 {
		sb.WriteString("RESULTS\n")
		sb.WriteString(strings.Repeat("-", rule) + "\n")
		for _, nr := range r.OrderedResults() {
			fmt.Fprintf(sb, "  %s:\n", nr.Stage)
			data, err := json.MarshalIndent(nr.Result, "    ", "  ")
			if err != nil {
				fmt.Fprintf(sb, "    <%v>\n", err)
				continue
			}
			fmt.Fprintf(sb, "    %s\n", data)
		}
		sb.WriteString("\n")
	}
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", rule) + "\n")
	pad := (rule - len(title)) / 2
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", rule) + "\n\n")
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
