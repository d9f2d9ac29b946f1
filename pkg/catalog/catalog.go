// Package catalog holds the fixed, ordered list of the eleven
// evaluation experiments. Everything here is static data: given a
// resolved configuration, a definition fully determines the list of
// external invocations to perform.
package catalog

import (
	"fmt"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/config"
)

// BinaryRole selects which external binary a definition invokes.
type BinaryRole string

const (
	Analysis  BinaryRole = "analysis"
	Synthesis BinaryRole = "synthesis"
)

// Definition describes one experiment of the suite.
type Definition struct {
	ID      int
	Name    string
	Summary string

	Binary   BinaryRole
	Mode     string // subcommand of the binary
	Scenario string
	Extra    []string // static flags before the sweep-point args
	Budget   config.BudgetName

	Axis Axis

	// CaptureStdout makes the runner write the binary's stdout to the
	// artifact path instead of passing -o (the one raw-text mode).
	CaptureStdout bool
	OutExt        string

	// NeedsLab marks the experiment that depends on the virtual lab
	// service being up before any invocation runs.
	NeedsLab bool

	PostProcess []string
}

// DirName is the per-experiment result directory, e.g. "03-strategy-scaling".
func (d Definition) DirName() string {
	return fmt.Sprintf("%02d-%s", d.ID, d.Name)
}

// Experiments is the suite in execution order. The excluded topology
// basenames are catalog data, exactly like the sweep value lists:
// Kdl is too large for permutation sampling, GtsCe for the zoo
// benchmarks.
var Experiments = []Definition{
	{
		ID:      1,
		Name:    "zoo-random-probability",
		Summary: "success probability of random orderings across the topology zoo",
		Binary:  Analysis,
		Mode:    "probability",
		Budget:  config.PermutationSamples,
		Axis:        TopologyAxis{Exclude: []string{"Kdl.graphml"}},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_probability.py"},
	},
	{
		ID:      2,
		Name:    "hard-gadget-probability",
		Summary: "success probability on the difficult gadget by size",
		Binary:  Analysis,
		Mode:    "probability",
		Budget:  config.HardSamples,
		Axis: IntegerAxis{
			KeyPrefix: "n",
			Flag:      "--size",
			Values:    []int{4, 6, 8, 10, 12, 16, 20, 24, 32, 48, 64},
			Bands:     []Band{{Args: []string{"--gadget", "difficult"}}},
		},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_hard_gadget.py"},
	},
	{
		ID:      3,
		Name:    "strategy-scaling",
		Summary: "strategy runtimes on chain gadgets of growing size",
		Binary:  Synthesis,
		Mode:    "bench",
		Budget:  config.BenchIterations,
		Axis: IntegerAxis{
			KeyPrefix: "n",
			Flag:      "--size",
			Values:    []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 14, 16, 20, 24, 28, 32},
			Bands: []Band{
				{Below: 10, Args: []string{"--gadget", "chain", "--strategies", "exhaustive,random,tree"}},
				{Args: []string{"--gadget", "chain", "--strategies", "tree"}},
			},
		},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_scaling.py"},
	},
	{
		ID:      4,
		Name:    "optimizer-scaling",
		Summary: "optimizer runtimes on chain gadgets of growing size",
		Binary:  Synthesis,
		Mode:    "bench",
		Extra:   []string{"--optimizer"},
		Budget:  config.OptimRuns,
		Axis: IntegerAxis{
			KeyPrefix: "n",
			Flag:      "--size",
			Values:    []int{2, 4, 8, 16, 32, 64},
			Bands: []Band{
				{Below: 8, Args: []string{"--gadget", "chain", "--optimizers", "global,local,tree"}},
				{Below: 32, Args: []string{"--gadget", "chain", "--optimizers", "local,tree"}},
				{Args: []string{"--gadget", "chain", "--optimizers", "tree"}},
			},
		},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_optimizer.py"},
	},
	{
		ID:      5,
		Name:    "gadget-variants",
		Summary: "all gadget variants over the (rank, variant) grid",
		Binary:  Synthesis,
		Mode:    "bench",
		Budget:  config.OptimRuns,
		Axis:    GridAxis{RMin: 2, RMax: 8, VMin: 0, VMax: 66},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/tabulate_variants.py"},
	},
	{
		ID:       6,
		Name:     "zoo-bench-igp-weights",
		Summary:  "zoo benchmark, IGP weight reconfiguration scenario",
		Binary:   Synthesis,
		Mode:     "bench",
		Scenario: "IGPWeights",
		Budget:   config.BenchIterations,
		Axis:     TopologyAxis{Exclude: []string{"GtsCe.graphml"}},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_zoo.py"},
	},
	{
		ID:       7,
		Name:     "zoo-bench-fm2rr",
		Summary:  "zoo benchmark, full-mesh to route-reflector scenario",
		Binary:   Synthesis,
		Mode:     "bench",
		Scenario: "FM2RR",
		Budget:   config.BenchIterations,
		Axis:     TopologyAxis{Exclude: []string{"GtsCe.graphml"}},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_zoo.py"},
	},
	{
		ID:       8,
		Name:     "zoo-bench-acquisition",
		Summary:  "zoo benchmark, network acquisition scenario",
		Binary:   Synthesis,
		Mode:     "bench",
		Scenario: "NetAcq",
		Budget:   config.BenchIterations,
		Axis:     TopologyAxis{Exclude: []string{"GtsCe.graphml"}},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_zoo.py"},
	},
	{
		ID:       9,
		Name:     "zoo-bench-local-pref",
		Summary:  "zoo benchmark, local-preference scenario",
		Binary:   Synthesis,
		Mode:     "bench",
		Scenario: "LocalPref",
		Budget:   config.BenchIterations,
		Axis:     TopologyAxis{Exclude: []string{"GtsCe.graphml"}},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/plot_zoo.py"},
	},
	{
		ID:      10,
		Name:    "transient-verification",
		Summary: "transient-behavior checks at growing network size",
		Binary:  Synthesis,
		Mode:    "transient",
		Budget:  config.TransientSamples,
		Axis: IntegerAxis{
			KeyPrefix: "n",
			Flag:      "--size",
			Values:    []int{10, 20, 30, 40, 50},
			Bands:     []Band{{}},
		},
		OutExt:      "json",
		PostProcess: []string{"python3", "scripts/tabulate_transient.py"},
	},
	{
		ID:      11,
		Name:    "case-study-live",
		Summary: "live case study against the virtual lab, one run per stage",
		Binary:  Synthesis,
		Mode:    "run",
		Budget:  config.BenchIterations,
		Axis: IntegerAxis{
			KeyPrefix: "stage",
			Flag:      "--stage",
			Values:    []int{1, 2, 3},
			Bands:     []Band{{}},
		},
		CaptureStdout: true,
		OutExt:        "log",
		NeedsLab:      true,
		PostProcess:   []string{"python3", "scripts/tabulate_case_study.py"},
	},
}

// ByID returns the definition with the given id.
func ByID(id int) (Definition, bool) {
	for _, d := range Experiments {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
