// Package report defines the structured per-invocation result type and
// its aggregation into the final run report. The report is the only
// user-visible account of a run: it distinguishes full success, partial
// failure with the failing points listed, and fatal abort, instead of
// an unconditional banner.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Invocation is the outcome of one sweep point.
type Invocation struct {
	ExperimentID int           `json:"experiment_id"`
	PointKey     string        `json:"point_key"`
	Argv         string        `json:"argv,omitempty"`
	Artifact     string        `json:"artifact,omitempty"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// DurationStats summarizes the wall-clock cost of the successful
// invocations of one experiment.
type DurationStats struct {
	MeanMs float64 `json:"mean_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Experiment aggregates one experiment's sweep.
type Experiment struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	SetupError   string        `json:"setup_error,omitempty"`
	ServiceError string        `json:"service_error,omitempty"`
	PostError    string        `json:"postprocess_error,omitempty"`
	Invocations  []Invocation  `json:"invocations"`
	Duration     time.Duration `json:"duration"`
}

// Counts returns how many points ran, succeeded, failed and were skipped.
func (e Experiment) Counts() (run, ok, failed, skipped int) {
	for _, inv := range e.Invocations {
		switch inv.Status {
		case StatusOK:
			run++
			ok++
		case StatusFailed:
			run++
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return
}

// Failed returns the failed sweep points in order.
func (e Experiment) Failed() []Invocation {
	var out []Invocation
	for _, inv := range e.Invocations {
		if inv.Status == StatusFailed {
			out = append(out, inv)
		}
	}
	return out
}

// Succeeded reports whether every point and the post-processing step
// of this experiment went through.
func (e Experiment) Succeeded() bool {
	_, _, failed, skipped := e.Counts()
	return e.SetupError == "" && e.ServiceError == "" && e.PostError == "" &&
		failed == 0 && skipped == 0
}

// Stats computes duration statistics over the successful invocations.
func (e Experiment) Stats() DurationStats {
	var durations []float64
	for _, inv := range e.Invocations {
		if inv.Status == StatusOK {
			durations = append(durations, float64(inv.Duration.Milliseconds()))
		}
	}
	if len(durations) == 0 {
		return DurationStats{}
	}

	sort.Float64s(durations)
	var sum float64
	for _, d := range durations {
		sum += d
	}
	stats := DurationStats{
		MeanMs: sum / float64(len(durations)),
		MinMs:  durations[0],
		MaxMs:  durations[len(durations)-1],
	}
	idx := int(0.95 * float64(len(durations)))
	if idx >= len(durations) {
		idx = len(durations) - 1
	}
	stats.P95Ms = durations[idx]
	return stats
}

type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictPartial Verdict = "partial"
	VerdictFatal   Verdict = "fatal"
)

// Run is the whole suite's report.
type Run struct {
	Speedup     int           `json:"speedup"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Cancelled   bool          `json:"cancelled,omitempty"`
	FatalError  string        `json:"fatal_error,omitempty"`
	Experiments []Experiment  `json:"experiments"`
}

// Verdict classifies the run.
func (r *Run) Verdict() Verdict {
	if r.FatalError != "" {
		return VerdictFatal
	}
	for _, e := range r.Experiments {
		if !e.Succeeded() {
			return VerdictPartial
		}
	}
	if r.Cancelled {
		return VerdictPartial
	}
	return VerdictSuccess
}

// Render writes the human-readable summary.
func (r *Run) Render(w io.Writer) {
	fmt.Fprintf(w, "\n=== Evaluation run (speedup %d) ===\n", r.Speedup)
	for _, e := range r.Experiments {
		run, ok, failed, skipped := e.Counts()
		fmt.Fprintf(w, "[%02d] %-26s %d/%d ok", e.ID, e.Name, ok, run)
		if failed > 0 {
			fmt.Fprintf(w, ", %d failed", failed)
		}
		if skipped > 0 {
			fmt.Fprintf(w, ", %d skipped", skipped)
		}
		if stats := e.Stats(); ok > 0 {
			fmt.Fprintf(w, "  (mean %.0fms, p95 %.0fms)", stats.MeanMs, stats.P95Ms)
		}
		fmt.Fprintln(w)

		if e.SetupError != "" {
			fmt.Fprintf(w, "     setup failed: %s\n", e.SetupError)
		}
		if e.ServiceError != "" {
			fmt.Fprintf(w, "     service failed: %s\n", e.ServiceError)
		}
		for _, inv := range e.Failed() {
			fmt.Fprintf(w, "     failed point %s: %s\n", inv.PointKey, inv.Error)
		}
		if e.PostError != "" {
			fmt.Fprintf(w, "     post-processing failed: %s\n", e.PostError)
		}
	}

	switch v := r.Verdict(); v {
	case VerdictSuccess:
		fmt.Fprintf(w, "\nAll experiments completed successfully in %s.\n", r.Duration.Round(time.Second))
	case VerdictPartial:
		fmt.Fprintf(w, "\nRun finished with failures after %s; collected artifacts were kept.\n", r.Duration.Round(time.Second))
	case VerdictFatal:
		fmt.Fprintf(w, "\nRun aborted: %s\n", r.FatalError)
	}
}

// WriteJSON persists the report next to the artifacts.
func (r *Run) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run report: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %v", err)
	}
	return nil
}
