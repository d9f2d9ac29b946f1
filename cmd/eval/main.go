// Command eval drives the benchmark evaluation suite: it resolves the
// speedup factor into iteration budgets, runs the eleven experiments
// against the external analysis and synthesis binaries, persists the
// results and triggers the plotting scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/api"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/catalog"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/config"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/invoke"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/postprocess"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/results"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/runner"
)

const ledgerFile = "ledger.db"

var (
	flagSettings string
	flagSpeedup  int
	flagResults  string
	flagTopos    string
	flagThreads  string
	flagServe    string
	flagVerbose  bool
	flagOnly     []int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eval",
		Short:         "Benchmark evaluation harness for the snowcap synthesis tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagSettings, "settings", "c", "eval.yaml", "settings file")
	root.PersistentFlags().StringVar(&flagResults, "results", "", "results directory (overrides settings)")
	root.PersistentFlags().StringVar(&flagTopos, "topologies", "", "topology zoo directory (overrides settings)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "echo every invocation")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation suite",
		RunE:  runSuite,
	}
	runCmd.Flags().IntVarP(&flagSpeedup, "speedup", "s", 0, "speedup factor; omit to be prompted")
	runCmd.Flags().StringVar(&flagThreads, "threads", "", "thread count passed through to the binaries")
	runCmd.Flags().StringVar(&flagServe, "serve", "", "address for the read-only status API (empty: disabled)")
	runCmd.Flags().IntSliceVar(&flagOnly, "only", nil, "restrict the run to these experiment ids")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the experiments of the suite",
		Run:   listSuite,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render the latest run's report from the ledger",
		RunE:  renderReport,
	}

	root.AddCommand(runCmd, listCmd, reportCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.LoadSettings(flagSettings, cmd.Flags().Changed("settings"))
	if err != nil {
		return settings, err
	}
	if flagResults != "" {
		settings.ResultsDir = flagResults
	}
	if flagTopos != "" {
		settings.TopologyDir = flagTopos
	}
	if flagThreads != "" {
		settings.Threads = flagThreads
	}
	if flagServe != "" {
		settings.ServeAddr = flagServe
	}
	if flagVerbose {
		settings.Verbose = true
	}
	return settings, nil
}

// abortRun reports a pre-flight failure the same way a finished run
// reports its verdict: a rendered fatal report, never a bare error.
func abortRun(speedup int, err error) error {
	run := &report.Run{
		Speedup:    speedup,
		StartedAt:  time.Now(),
		FatalError: err.Error(),
	}
	run.Render(os.Stdout)
	return err
}

func runSuite(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	speedup := flagSpeedup
	if !cmd.Flags().Changed("speedup") {
		speedup, err = config.PromptSpeedup(os.Stdin, os.Stdout)
		if err != nil {
			return abortRun(speedup, err)
		}
	}
	cfg, err := config.Resolve(speedup, settings)
	if err != nil {
		return abortRun(speedup, err)
	}
	log.Printf("speedup %d: %d permutation samples, %d bench iterations, %d hard samples, %d optimizer runs, %d transient samples",
		cfg.Speedup, cfg.Budgets.PermutationSamples, cfg.Budgets.BenchIterations,
		cfg.Budgets.HardSamples, cfg.Budgets.OptimRuns, cfg.Budgets.TransientSamples)

	sink := results.Sink{Root: settings.ResultsDir}
	if err := sink.EnsureDir(settings.ResultsDir); err != nil {
		return abortRun(cfg.Speedup, err)
	}

	// The ledger is best effort: without it the run still collects
	// artifacts, it just cannot serve the report subcommand or API.
	ledger, err := results.OpenLedger(filepath.Join(settings.ResultsDir, ledgerFile))
	if err != nil {
		log.Printf("Warning: invocation ledger unavailable: %v", err)
		ledger = nil
	} else {
		defer ledger.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.ServeAddr != "" {
		if ledger != nil {
			api.Serve(ctx, settings.ServeAddr, ledger)
		} else {
			log.Printf("Warning: status API disabled, no ledger")
		}
	}

	var only map[int]bool
	if len(flagOnly) > 0 {
		only = make(map[int]bool)
		for _, id := range flagOnly {
			if _, found := catalog.ByID(id); !found {
				return fmt.Errorf("unknown experiment id %d", id)
			}
			only[id] = true
		}
	}

	orch := &runner.Orchestrator{
		Runner: &runner.Runner{
			Config:   cfg,
			Settings: settings,
			Invoker:  invoke.Exec{Verbose: cfg.Verbose},
			Sink:     sink,
			Ledger:   ledger,
		},
		Post:   postprocess.Exec{Verbose: cfg.Verbose},
		Ledger: ledger,
		Only:   only,
	}

	run := orch.Run(ctx)
	run.Render(os.Stdout)
	if err := run.WriteJSON(filepath.Join(settings.ResultsDir, "run-report.json")); err != nil {
		log.Printf("Warning: %v", err)
	}

	if run.Verdict() != report.VerdictSuccess {
		return errors.New("run finished with failures")
	}
	return nil
}

func listSuite(cmd *cobra.Command, args []string) {
	for _, def := range catalog.Experiments {
		fmt.Printf("%2d  %-24s %s\n", def.ID, def.Name, def.Summary)
	}
}

func renderReport(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ledger, err := results.OpenLedger(filepath.Join(settings.ResultsDir, ledgerFile))
	if err != nil {
		return err
	}
	defer ledger.Close()

	runID, speedup, err := ledger.LatestRun()
	if err != nil {
		return err
	}
	run, err := ledger.ReloadRun(runID, speedup)
	if err != nil {
		return err
	}
	run.Render(os.Stdout)
	return nil
}
