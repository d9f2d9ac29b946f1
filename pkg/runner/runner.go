// Package runner drives the experiment suite: one ExperimentRunner
// pass per catalog definition, sequenced by the Orchestrator.
package runner

import (
	"context"
	"log"
	"time"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/catalog"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/config"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/invoke"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/results"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/service"
)

// Lab is the slice of the service manager the runner needs; the real
// implementation is service.Lab.
type Lab interface {
	Start(ctx context.Context) error
	Stop()
}

// Runner executes one experiment definition end to end: enumerate the
// sweep axis, invoke the external binary per point, persist outcomes.
// A failing point is recorded and the sweep continues; one bad
// topology must never abort the rest.
type Runner struct {
	Config   config.Config
	Settings config.Settings
	Invoker  invoke.Invoker
	Sink     results.Sink
	Ledger   *results.Ledger // optional

	// NewLab builds the background service for lab-dependent
	// experiments; overridable in tests.
	NewLab func() Lab
}

func (r *Runner) lab() Lab {
	if r.NewLab != nil {
		return r.NewLab()
	}
	return &service.Lab{
		Cmd:         r.Settings.LabCmd,
		ReadyURL:    r.Settings.LabReadyURL,
		StartupWait: r.Settings.LabStartupWait,
	}
}

func (r *Runner) binary(def catalog.Definition) string {
	if def.Binary == catalog.Analysis {
		return r.Settings.AnalysisBin
	}
	return r.Settings.SynthBin
}

// RunExperiment performs one definition's full sweep. The returned
// report always accounts for every sweep point, as ok, failed or
// skipped.
func (r *Runner) RunExperiment(ctx context.Context, def catalog.Definition) report.Experiment {
	exp := report.Experiment{ID: def.ID, Name: def.Name}
	start := time.Now()
	defer func() { exp.Duration = time.Since(start) }()

	log.Printf("[%02d] %s: %s", def.ID, def.Name, def.Summary)

	if err := r.Sink.EnsureDir(r.Sink.ExperimentDir(def)); err != nil {
		exp.SetupError = err.Error()
		log.Printf("[%02d] setup failed: %v", def.ID, err)
		return exp
	}

	points, err := def.Axis.Points(r.Settings.TopologyDir)
	if err != nil {
		exp.SetupError = err.Error()
		log.Printf("[%02d] setup failed: %v", def.ID, err)
		return exp
	}

	if def.NeedsLab {
		lab := r.lab()
		if err := lab.Start(ctx); err != nil {
			exp.ServiceError = err.Error()
			log.Printf("[%02d] lab service failed, skipping experiment: %v", def.ID, err)
			for _, p := range points {
				r.record(&exp, def, report.Invocation{
					ExperimentID: def.ID,
					PointKey:     p.Key,
					Status:       report.StatusSkipped,
					StartedAt:    time.Now(),
				})
			}
			return exp
		}
		defer lab.Stop()
	}

	for _, p := range points {
		inv := report.Invocation{
			ExperimentID: def.ID,
			PointKey:     p.Key,
			Artifact:     r.Sink.ArtifactPath(def, p.Key),
			StartedAt:    time.Now(),
		}

		if ctx.Err() != nil {
			inv.Status = report.StatusSkipped
			r.record(&exp, def, inv)
			continue
		}

		cmd := invoke.Command{
			Binary:     r.binary(def),
			Mode:       def.Mode,
			Scenario:   def.Scenario,
			Iterations: r.Config.Budgets.Budget(def.Budget),
			Threads:    r.Config.Threads,
			Args:       append(append([]string{}, def.Extra...), p.Args...),
		}
		if def.CaptureStdout {
			cmd.CaptureTo = inv.Artifact
		} else {
			cmd.Output = inv.Artifact
		}
		inv.Argv = cmd.String()

		if err := r.Invoker.Run(ctx, cmd); err != nil {
			inv.Status = report.StatusFailed
			inv.Error = err.Error()
			log.Printf("[%02d] point %s failed: %v", def.ID, p.Key, err)
		} else {
			inv.Status = report.StatusOK
		}
		inv.Duration = time.Since(inv.StartedAt)
		r.record(&exp, def, inv)
	}
	return exp
}

func (r *Runner) record(exp *report.Experiment, def catalog.Definition, inv report.Invocation) {
	exp.Invocations = append(exp.Invocations, inv)
	if r.Ledger != nil {
		if err := r.Ledger.RecordInvocation(def.Name, inv); err != nil {
			log.Printf("ledger write failed for %s/%s: %v", def.Name, inv.PointKey, err)
		}
	}
}
