package runner

import (
	"context"
	"log"
	"time"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/catalog"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/postprocess"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/results"
)

// Orchestrator drives the whole catalog in ascending id order: run the
// sweep, then trigger post-processing, then move on. Failures are
// accumulated into the run report, never swallowed.
type Orchestrator struct {
	Runner *Runner
	Post   postprocess.Runner
	Ledger *results.Ledger // optional

	// Only restricts the run to the listed experiment ids; nil means
	// the full suite. Filtered-out experiments are absent from the
	// report, not failures.
	Only map[int]bool
}

// Run executes the suite until completion or cancellation.
func (o *Orchestrator) Run(ctx context.Context) *report.Run {
	run := &report.Run{
		Speedup:   o.Runner.Config.Speedup,
		StartedAt: time.Now(),
	}
	if o.Ledger != nil {
		if err := o.Ledger.BeginRun(run.Speedup, run.StartedAt); err != nil {
			log.Printf("ledger write failed: %v", err)
		}
	}

	for _, def := range catalog.Experiments {
		if o.Only != nil && !o.Only[def.ID] {
			continue
		}
		if ctx.Err() != nil {
			run.Cancelled = true
			break
		}

		exp := o.Runner.RunExperiment(ctx, def)

		// Post-processing runs even after partial sweep failures:
		// whatever was collected still gets plotted. Only a setup
		// failure (no result directory) or cancellation skips it.
		if exp.SetupError == "" && exp.ServiceError == "" && ctx.Err() == nil {
			start := time.Now()
			err := o.Post.Run(ctx, def.PostProcess, o.Runner.Sink.ExperimentDir(def))
			if err != nil {
				exp.PostError = err.Error()
				log.Printf("[%02d] post-processing failed: %v", def.ID, err)
			}
			if o.Ledger != nil {
				if lerr := o.Ledger.RecordPostProcess(def.ID, exp.PostError, time.Since(start)); lerr != nil {
					log.Printf("ledger write failed: %v", lerr)
				}
			}
		}

		run.Experiments = append(run.Experiments, exp)
	}

	if ctx.Err() != nil {
		run.Cancelled = true
	}
	run.Duration = time.Since(run.StartedAt)
	return run
}
