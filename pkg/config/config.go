package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidSpeedup is returned when the speedup factor is not a
// positive integer. Every budget is computed by dividing its base by
// the factor, so zero and negative values must be rejected up front.
var ErrInvalidSpeedup = errors.New("speedup factor must be a positive integer")

const DefaultSpeedup = 100

// BudgetName identifies one of the named iteration budgets.
type BudgetName string

const (
	PermutationSamples BudgetName = "permutation_samples"
	BenchIterations    BudgetName = "bench_iterations"
	HardSamples        BudgetName = "hard_samples"
	OptimRuns          BudgetName = "optim_runs"
	TransientSamples   BudgetName = "transient_samples"
)

// Budgets holds the scaled iteration counts. Each value is
// base/speedup with truncating integer division, then clamped to the
// budget's floor so a large speedup can never drive an experiment
// below a statistically meaningful sample count.
type Budgets struct {
	PermutationSamples int `json:"permutation_samples"`
	BenchIterations    int `json:"bench_iterations"`
	HardSamples        int `json:"hard_samples"`
	OptimRuns          int `json:"optim_runs"`
	TransientSamples   int `json:"transient_samples"`
}

// Config is the resolved, immutable run configuration. It is built
// exactly once at startup and passed by value to every component;
// consumers read the named budgets, never the raw factor.
type Config struct {
	Speedup int     `json:"speedup"`
	Budgets Budgets `json:"budgets"`
	Threads string  `json:"threads,omitempty"`
	Verbose bool    `json:"verbose"`
}

func scale(base, speedup, floor int) int {
	n := base / speedup
	if n < floor {
		return floor
	}
	return n
}

// Resolve validates the speedup factor and computes all budgets.
func Resolve(speedup int, s Settings) (Config, error) {
	if speedup < 1 {
		return Config{}, fmt.Errorf("%w: got %d", ErrInvalidSpeedup, speedup)
	}
	return Config{
		Speedup: speedup,
		Budgets: Budgets{
			PermutationSamples: scale(10000, speedup, 0),
			BenchIterations:    scale(1000, speedup, 0),
			HardSamples:        scale(1000, speedup, 500),
			OptimRuns:          scale(100, speedup, 10),
			TransientSamples:   scale(10000, speedup, 100),
		},
		Threads: s.Threads,
		Verbose: s.Verbose,
	}, nil
}

// ParseSpeedup parses one line of user input. Blank input selects the
// default factor of 100; anything else must be a positive integer.
func ParseSpeedup(line string) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return DefaultSpeedup, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSpeedup, line)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidSpeedup, n)
	}
	return n, nil
}

// PromptSpeedup asks for a speedup factor on out and reads one line
// from in. EOF on a terminal counts as blank input.
func PromptSpeedup(in io.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, "Enter a SPEEDUP factor (default: 100): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading speedup factor: %v", err)
	}
	return ParseSpeedup(line)
}

// Budget returns the named budget's value.
func (b Budgets) Budget(name BudgetName) int {
	switch name {
	case PermutationSamples:
		return b.PermutationSamples
	case BenchIterations:
		return b.BenchIterations
	case HardSamples:
		return b.HardSamples
	case OptimRuns:
		return b.OptimRuns
	case TransientSamples:
		return b.TransientSamples
	}
	return 0
}
