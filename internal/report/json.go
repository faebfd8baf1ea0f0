package report

import (
	"encoding/json"
	"io"

	"github.com/tripwell/tripctl/internal/pipeline"
)

// JSONWriter outputs reports as JSON for scripting and storage.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as a single JSON document.
func (w *JSONWriter) Write(report *pipeline.Report) (int, error) {
	return w.writeJSON(report)
}

// BatchDocument is the JSON shape of a batch.
type BatchDocument struct {
	Summary BatchSummary       `json:"summary"`
	Runs    []*pipeline.Report `json:"runs"`
}

// WriteBatch outputs the summary and every run in one document.
func (w *JSONWriter) WriteBatch(reports []*pipeline.Report) (int, error) {
	runs := make([]*pipeline.Report, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			runs = append(runs, r)
		}
	}
	return w.writeJSON(BatchDocument{Summary: Summarize(reports), Runs: runs})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
