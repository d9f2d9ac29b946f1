package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsAndFailed(t *testing.T) {
	exp := Experiment{
		ID:   3,
		Name: "strategy-scaling",
		Invocations: []Invocation{
			{PointKey: "n2", Status: StatusOK},
			{PointKey: "n4", Status: StatusFailed, Error: "exit status 1"},
			{PointKey: "n8", Status: StatusOK},
			{PointKey: "n16", Status: StatusSkipped},
		},
	}

	run, ok, failed, skipped := exp.Counts()
	assert.Equal(t, 3, run)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)

	failures := exp.Failed()
	require.Len(t, failures, 1)
	assert.Equal(t, "n4", failures[0].PointKey)
	assert.False(t, exp.Succeeded())
}

func TestVerdict(t *testing.T) {
	clean := Experiment{Invocations: []Invocation{{Status: StatusOK}}}

	run := &Run{Experiments: []Experiment{clean}}
	assert.Equal(t, VerdictSuccess, run.Verdict())

	run = &Run{Experiments: []Experiment{clean, {Invocations: []Invocation{{Status: StatusFailed}}}}}
	assert.Equal(t, VerdictPartial, run.Verdict())

	run = &Run{Experiments: []Experiment{clean, {PostError: "exit status 2"}}}
	assert.Equal(t, VerdictPartial, run.Verdict())

	run = &Run{Experiments: []Experiment{clean}, Cancelled: true}
	assert.Equal(t, VerdictPartial, run.Verdict())

	run = &Run{FatalError: "speedup factor must be a positive integer"}
	assert.Equal(t, VerdictFatal, run.Verdict())
}

func TestStats(t *testing.T) {
	exp := Experiment{Invocations: []Invocation{
		{Status: StatusOK, Duration: 100 * time.Millisecond},
		{Status: StatusOK, Duration: 300 * time.Millisecond},
		{Status: StatusFailed, Duration: 10 * time.Second}, // failures not counted
	}}

	stats := exp.Stats()
	assert.InDelta(t, 200, stats.MeanMs, 0.001)
	assert.InDelta(t, 100, stats.MinMs, 0.001)
	assert.InDelta(t, 300, stats.MaxMs, 0.001)

	assert.Zero(t, Experiment{}.Stats())
}

func TestRenderListsFailures(t *testing.T) {
	run := &Run{
		Speedup: 100,
		Experiments: []Experiment{
			{ID: 1, Name: "zoo-random-probability", Invocations: []Invocation{
				{PointKey: "Abilene", Status: StatusOK},
			}},
			{ID: 3, Name: "strategy-scaling", Invocations: []Invocation{
				{PointKey: "n4", Status: StatusFailed, Error: "exit status 1"},
			}},
		},
	}

	var out strings.Builder
	run.Render(&out)
	text := out.String()

	assert.Contains(t, text, "failed point n4: exit status 1")
	assert.Contains(t, text, "finished with failures")
	assert.NotContains(t, text, "completed successfully")
}

func TestRenderSuccess(t *testing.T) {
	run := &Run{
		Speedup: 100,
		Experiments: []Experiment{
			{ID: 1, Name: "zoo-random-probability", Invocations: []Invocation{
				{PointKey: "Abilene", Status: StatusOK},
			}},
		},
	}

	var out strings.Builder
	run.Render(&out)
	assert.Contains(t, out.String(), "completed successfully")
}

func TestRenderFatal(t *testing.T) {
	run := &Run{Speedup: 100, FatalError: "creating result dir res: permission denied"}

	var out strings.Builder
	run.Render(&out)
	assert.Contains(t, out.String(), "Run aborted: creating result dir")
	assert.NotContains(t, out.String(), "completed successfully")
}

func TestWriteJSON(t *testing.T) {
	run := &Run{Speedup: 100, StartedAt: time.Now()}
	path := t.TempDir() + "/run-report.json"
	require.NoError(t, run.WriteJSON(path))
}
