package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/tripwell/tripctl/internal/pipeline"
)

// MarkdownWriter outputs reports as GitHub-flavored Markdown, for pasting
// run results into issues and pull requests.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one run.
func (w *MarkdownWriter) Write(report *pipeline.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("tripctl Run Report")
	md.PlainText("")
	w.writeRun(md, report)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteBatch outputs the batch summary and a row per run.
func (w *MarkdownWriter) WriteBatch(reports []*pipeline.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := Summarize(reports)

	md.H1("tripctl Batch Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Runs", "Succeeded", "Failed"},
		Rows: [][]string{{
			strconv.Itoa(s.Total), strconv.Itoa(s.Succeeded), strconv.Itoa(s.Failed),
		}},
	})
	md.PlainText("")

	if s.Failed > 0 {
		md.Cautionf("%d of %d runs failed.", s.Failed, s.Total)
		md.PlainText("")

		chart := piechart.NewPieChart(io.Discard,
			piechart.WithTitle("Failures by stage"),
			piechart.WithShowData(true),
		)
		for _, stage := range s.failedStages() {
			chart.LabelAndIntValue(stage, uint64(s.FailuresByStage[stage]))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	} else if s.Total > 0 {
		md.Tip("Every run succeeded.")
		md.PlainText("")
	}

	md.H2("Runs")
	md.PlainText("")
	rows := make([][]string, 0, len(reports))
	for i, r := range reports {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			"`" + shortID(r.RunID) + "`",
			r.Flow,
			string(r.Status),
			truncateString(failureText(r), 80),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Run", "Flow", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, r *pipeline.Report) {
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Flow", r.Flow},
			{"Run ID", "`" + r.RunID + "`"},
			{"Fingerprint", "`" + truncateString(r.Fingerprint, 16) + "`"},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", r.Duration().String()},
			{"Status", string(r.Status)},
		},
	})
	md.PlainText("")

	if r.Succeeded() {
		md.Tip(fmt.Sprintf("All %d stages completed.", len(r.CompletedStages)))
	} else {
		md.Cautionf("Stage `%s` failed. %s", r.FailedStage, failureText(r))
	}
	md.PlainText("")

	md.H2("Stages")
	md.PlainText("")
	rows := make([][]string, 0, len(r.CompletedStages)+1)
	for _, name := range r.CompletedStages {
		d, _ := timingOf(r, name)
		rows = append(rows, []string{name, "✅ completed", d})
	}
	if !r.Succeeded() && r.FailedStage != "" {
		d, _ := timingOf(r, r.FailedStage)
		rows = append(rows, []string{r.FailedStage, "❌ failed", d})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Status", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(r.CompletedStages) == 0 {
		return
	}
	md.H2("Results")
	md.PlainText("")
	for _, nr := range r.OrderedResults() {
		data, err := json.MarshalIndent(nr.Result, "", "  ")
		if err != nil {
			md.Details(nr.Stage, err.Error())
			continue
		}
		md.Details(nr.Stage, "\n```json\n"+string(data)+"\n```\n")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [tripctl](https://github.com/tripwell/tripctl)*")
}

// failureText is "<Kind>: <message>" for failed runs and "" otherwise.
func failureText(r *pipeline.Report) string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind.String() + ": " + r.Error.Message
}
