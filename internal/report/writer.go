package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tripwell/tripctl/internal/pipeline"
)

// Writer renders pipeline reports.
type Writer interface {
	// Write outputs a single run.
	Write(report *pipeline.Report) (int, error)

	// WriteBatch outputs a summary of several runs followed by each run.
	WriteBatch(reports []*pipeline.Report) (int, error)
}

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// NewWriter returns the Writer for format. Unknown formats fall back to text.
func NewWriter(format Format, output io.Writer, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output, WithVerbose(verbose))
	}
}

// MultiWriter writes to several Writers in turn and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer.
func (m *MultiWriter) Write(report *pipeline.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch to every writer.
func (m *MultiWriter) WriteBatch(reports []*pipeline.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// FailuresByStage counts failed runs per failed stage.
	FailuresByStage map[string]int `json:"failuresByStage,omitempty"`
}

// Summarize counts the outcomes in reports. Nil entries are skipped.
func Summarize(reports []*pipeline.Report) BatchSummary {
	s := BatchSummary{FailuresByStage: map[string]int{}}
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Total++
		if r.Succeeded() {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.FailuresByStage[r.FailedStage]++
	}
	return s
}

// failedStages returns the FailuresByStage keys, most failures first.
func (s BatchSummary) failedStages() []string {
	stages := make([]string, 0, len(s.FailuresByStage))
	for stage := range s.FailuresByStage {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool {
		ci, cj := s.FailuresByStage[stages[i]], s.FailuresByStage[stages[j]]
		if ci != cj {
			return ci > cj
		}
		return stages[i] < stages[j]
	})
	return stages
}

// statusLine is the one-line outcome shared by the text and Markdown writers.
func statusLine(r *pipeline.Report) string {
	if r.Succeeded() {
		return fmt.Sprintf("success (%d stages)", len(r.CompletedStages))
	}
	if r.Error == nil {
		return fmt.Sprintf("failed at %q", r.FailedStage)
	}
	return fmt.Sprintf("failed at %q: %s: %s", r.FailedStage, r.Error.Kind, r.Error.Message)
}

// timingOf returns the recorded duration for stage.
func timingOf(r *pipeline.Report, stage string) (string, bool) {
	for _, t := range r.Timings {
		if t.Stage == stage {
			return t.Duration.Round(time.Millisecond).String(), true
		}
	}
	return "", false
}

// truncateString shortens s to at most maxLen bytes, ending in "...".
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
