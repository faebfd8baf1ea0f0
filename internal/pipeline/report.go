package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// Status is the terminal state of a run.
type Status string

const (
	// StatusSuccess means every stage completed.
	StatusSuccess Status = "success"

	// StatusFailed means a stage failed and the run stopped there.
	StatusFailed Status = "failed"
)

// ReportError is the serializable form of a stage failure.
type ReportError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// StageTiming records how long an executed stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// NamedResult pairs a stage name with its validated result.
type NamedResult struct {
	Stage  string
	Result any
}

// Report is the single outcome of a run.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"runId"`

	// Flow is the name of the flow that was run, if any.
	Flow string `json:"flow,omitempty"`

	// Fingerprint is a stable digest of the flow name and seed. Two runs
	// with the same inputs share a fingerprint.
	Fingerprint string `json:"fingerprint"`

	Status Status `json:"status"`

	// CompletedStages lists successful stages in execution order.
	CompletedStages []string `json:"completedStages"`

	// Results maps each completed stage to its validated result.
	Results map[string]any `json:"results"`

	// FailedStage is set only when Status is failed.
	FailedStage string `json:"failedStage,omitempty"`

	// Error is set only when Status is failed.
	Error *ReportError `json:"error,omitempty"`

	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Timings    []StageTiming `json:"timings,omitempty"`

	failure *StageError
}

// Succeeded reports whether every stage completed.
func (r *Report) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Err returns the stage failure, or nil for a successful run.
func (r *Report) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OrderedResults returns the results in execution order.
func (r *Report) OrderedResults() []NamedResult {
	out := make([]NamedResult, 0, len(r.CompletedStages))
	for _, name := range r.CompletedStages {
		out = append(out, NamedResult{Stage: name, Result: r.Results[name]})
	}
	return out
}

// runMeta is the bookkeeping the runner collects around a run.
type runMeta struct {
	runID       string
	flow        string
	fingerprint string
	startedAt   time.Time
	finishedAt  time.Time
	timings     []StageTiming
}

// toReport shapes the terminal state of a run. It is a pure function of
// its arguments: results hold exactly the completed stages, and nothing
// is recorded for the failed one.
func toReport(meta runMeta, pc PipelineContext, completed []string, failure *StageError) *Report {
	results := make(map[string]any, len(completed))
	for _, name := range completed {
		if v, ok := pc.Result(name); ok {
			results[name] = v
		}
	}

	r := &Report{
		RunID:           meta.runID,
		Flow:            meta.flow,
		Fingerprint:     meta.fingerprint,
		Status:          StatusSuccess,
		CompletedStages: append([]string{}, completed...),
		Results:         results,
		StartedAt:       meta.startedAt,
		FinishedAt:      meta.finishedAt,
		Timings:         meta.timings,
	}

	if failure != nil {
		r.Status = StatusFailed
		r.FailedStage = failure.Stage
		r.Error = &ReportError{Kind: failure.Kind, Message: failure.Message}
		r.failure = failure
	}
	return r
}

// Fingerprint returns a hex SHA3-256 digest of flow and seed. The seed is
// encoded as JSON, whose map keys are sorted, so equal seeds always hash
// equally.
func Fingerprint(flow string, seed map[string]any) string {
	data, err := json.Marshal(seed)
	if err != nil {
		data = fmt.Appendf(nil, "%v", seed)
	}
	h := sha3.New256()
	h.Write([]byte(flow))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
