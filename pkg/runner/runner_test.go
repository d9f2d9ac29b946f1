package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/catalog"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/config"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/invoke"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/results"
)

// fakeInvoker stands in for the external binaries: it records every
// command, writes the artifact the binary would have written, and
// fails where told to.
type fakeInvoker struct {
	calls  []invoke.Command
	failOn string // substring of the artifact path
}

func (f *fakeInvoker) Run(ctx context.Context, cmd invoke.Command) error {
	f.calls = append(f.calls, cmd)
	path := cmd.Output
	if path == "" {
		path = cmd.CaptureTo
	}
	if f.failOn != "" && strings.Contains(path, f.failOn) {
		return errors.New("exit status 1")
	}
	return os.WriteFile(path, []byte("{}"), 0o644)
}

type fakePost struct {
	calls []string
	err   error
}

func (f *fakePost) Run(ctx context.Context, argv []string, dir string) error {
	f.calls = append(f.calls, dir)
	return f.err
}

type fakeLab struct {
	startErr       error
	started, stops int
}

func (f *fakeLab) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeLab) Stop() { f.stops++ }

func newTestRunner(t *testing.T, inv invoke.Invoker) *Runner {
	t.Helper()
	cfg, err := config.Resolve(100, config.Settings{})
	require.NoError(t, err)
	return &Runner{
		Config: cfg,
		Settings: config.Settings{
			AnalysisBin: "snowcap-analysis",
			SynthBin:    "snowcap-bench",
		},
		Invoker: inv,
		Sink:    results.Sink{Root: t.TempDir()},
	}
}

func TestRunExperimentAllPoints(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	def, _ := catalog.ByID(3)

	exp := r.RunExperiment(context.Background(), def)
	run, ok, failed, skipped := exp.Counts()
	assert.Equal(t, 16, run)
	assert.Equal(t, 16, ok)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
	assert.True(t, exp.Succeeded())

	// Iteration budget and binary come from config and settings.
	assert.Equal(t, "snowcap-bench", inv.calls[0].Binary)
	assert.Equal(t, r.Config.Budgets.BenchIterations, inv.calls[0].Iterations)
}

func TestRunExperimentIsolatesFailures(t *testing.T) {
	inv := &fakeInvoker{failOn: "n9.json"}
	r := newTestRunner(t, inv)
	def, _ := catalog.ByID(3)

	exp := r.RunExperiment(context.Background(), def)
	_, ok, failed, _ := exp.Counts()
	assert.Equal(t, 15, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "n9", exp.Failed()[0].PointKey)

	// The sweep ran to completion past the failing point, and every
	// other point's artifact exists.
	assert.Len(t, inv.calls, 16)
	entries, err := os.ReadDir(r.Sink.ExperimentDir(def))
	require.NoError(t, err)
	assert.Len(t, entries, 15)
}

func TestRunExperimentTopologySweep(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Abilene.graphml", "GtsCe.graphml", "Kdl.graphml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<graphml/>"), 0o644))
	}

	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	r.Settings.TopologyDir = dir
	def, _ := catalog.ByID(1) // excludes Kdl.graphml

	exp := r.RunExperiment(context.Background(), def)
	_, ok, _, _ := exp.Counts()
	assert.Equal(t, 2, ok)

	entries, err := os.ReadDir(r.Sink.ExperimentDir(def))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Abilene.json", entries[0].Name())
	assert.Equal(t, "GtsCe.json", entries[1].Name())
}

func TestRunExperimentCancelledSkipsPoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	def, _ := catalog.ByID(10)

	exp := r.RunExperiment(ctx, def)
	_, _, _, skipped := exp.Counts()
	assert.Equal(t, 5, skipped)
	assert.Empty(t, inv.calls)
}

func TestRunExperimentLabFailureSkipsExperiment(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	lab := &fakeLab{startErr: errors.New("never became ready")}
	r.NewLab = func() Lab { return lab }
	def, _ := catalog.ByID(11)

	exp := r.RunExperiment(context.Background(), def)
	assert.Equal(t, "never became ready", exp.ServiceError)
	_, _, _, skipped := exp.Counts()
	assert.Equal(t, 3, skipped)
	assert.Empty(t, inv.calls)
	assert.False(t, exp.Succeeded())
}

func TestRunExperimentLabLifecycle(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	lab := &fakeLab{}
	r.NewLab = func() Lab { return lab }
	def, _ := catalog.ByID(11)

	exp := r.RunExperiment(context.Background(), def)
	_, ok, _, _ := exp.Counts()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 1, lab.started)
	assert.Equal(t, 1, lab.stops, "lab must be stopped after the experiment")

	// The live mode captures stdout instead of passing -o.
	assert.NotEmpty(t, inv.calls[0].CaptureTo)
	assert.Empty(t, inv.calls[0].Output)
}

func TestRunExperimentSetupFailure(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	def, _ := catalog.ByID(1)
	r.Settings.TopologyDir = filepath.Join(t.TempDir(), "missing")

	exp := r.RunExperiment(context.Background(), def)
	assert.NotEmpty(t, exp.SetupError)
	assert.Empty(t, inv.calls)
}

func TestOrchestratorPostProcessingAfterPartialFailure(t *testing.T) {
	inv := &fakeInvoker{failOn: "n9.json"}
	r := newTestRunner(t, inv)
	post := &fakePost{}
	orch := &Orchestrator{Runner: r, Post: post, Only: map[int]bool{3: true}}

	run := orch.Run(context.Background())
	require.Len(t, run.Experiments, 1)

	// The failing point is reflected in the verdict, but plotting
	// still ran over the collected artifacts.
	assert.Equal(t, report.VerdictPartial, run.Verdict())
	assert.Equal(t, []string{r.Sink.ExperimentDir(mustByID(t, 3))}, post.calls)
}

func TestOrchestratorFullSuite(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	lab := &fakeLab{}
	r.NewLab = func() Lab { return lab }

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Abilene.graphml"), []byte("<graphml/>"), 0o644))
	r.Settings.TopologyDir = dir

	post := &fakePost{}
	orch := &Orchestrator{Runner: r, Post: post}

	run := orch.Run(context.Background())
	require.Len(t, run.Experiments, 11)
	assert.Equal(t, report.VerdictSuccess, run.Verdict())
	assert.Len(t, post.calls, 11)
	for i, exp := range run.Experiments {
		assert.Equal(t, i+1, exp.ID)
		assert.True(t, exp.Succeeded(), "experiment %d", exp.ID)
	}
}

func TestOrchestratorPostFailureIsPartial(t *testing.T) {
	inv := &fakeInvoker{}
	r := newTestRunner(t, inv)
	post := &fakePost{err: errors.New("exit status 2")}
	orch := &Orchestrator{Runner: r, Post: post, Only: map[int]bool{10: true}}

	run := orch.Run(context.Background())
	require.Len(t, run.Experiments, 1)
	assert.Equal(t, "exit status 2", run.Experiments[0].PostError)
	assert.Equal(t, report.VerdictPartial, run.Verdict())
}

func TestOrchestratorCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, &fakeInvoker{})
	orch := &Orchestrator{Runner: r, Post: &fakePost{}}

	run := orch.Run(ctx)
	assert.True(t, run.Cancelled)
	assert.Empty(t, run.Experiments)
	assert.Equal(t, report.VerdictPartial, run.Verdict())
}

func mustByID(t *testing.T, id int) catalog.Definition {
	t.Helper()
	def, ok := catalog.ByID(id)
	require.True(t, ok)
	return def
}
