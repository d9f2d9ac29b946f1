// Package invoke builds and executes the external binary invocations.
// Commands are assembled as typed fields and validated before any
// process is spawned, so a malformed sweep point fails loudly instead
// of producing a half-formed argv.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Command is one fully specified external invocation.
type Command struct {
	Binary     string
	Mode       string
	Scenario   string
	Iterations int
	Threads    string // opaque pass-through; omitted when empty
	Args       []string

	// Exactly one of Output and CaptureTo is set: Output is passed as
	// -o for the binary to write JSON itself, CaptureTo makes the
	// invoker save the binary's raw stdout at that path.
	Output    string
	CaptureTo string
}

// Validate rejects commands that would spawn a broken process.
func (c Command) Validate() error {
	if c.Binary == "" {
		return errors.New("command has no binary")
	}
	if c.Mode == "" {
		return fmt.Errorf("command for %s has no mode subcommand", c.Binary)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("command for %s has iteration count %d", c.Binary, c.Iterations)
	}
	if (c.Output == "") == (c.CaptureTo == "") {
		return fmt.Errorf("command for %s needs exactly one of output path and capture path", c.Binary)
	}
	return nil
}

// Argv renders the command line, binary first.
func (c Command) Argv() []string {
	argv := []string{c.Binary, c.Mode}
	if c.Scenario != "" {
		argv = append(argv, "--scenario", c.Scenario)
	}
	argv = append(argv, c.Args...)
	argv = append(argv, "--iterations", strconv.Itoa(c.Iterations))
	if c.Threads != "" {
		argv = append(argv, "--threads", c.Threads)
	}
	if c.Output != "" {
		argv = append(argv, "-o", c.Output)
	}
	return argv
}

func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Invoker runs one command to completion.
type Invoker interface {
	Run(ctx context.Context, cmd Command) error
}

// Exec is the real Invoker: a blocking external call per command, with
// stderr captured so a failing invocation's output lands in the error.
type Exec struct {
	Verbose bool
}

func (e Exec) Run(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if e.Verbose {
		log.Printf("invoking: %s", cmd)
	}

	argv := cmd.Argv()
	proc := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	proc.Stderr = &stderr

	if cmd.CaptureTo != "" {
		out, err := os.Create(cmd.CaptureTo)
		if err != nil {
			return fmt.Errorf("creating capture file: %v", err)
		}
		defer out.Close()
		proc.Stdout = out
	}

	if err := proc.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}
	return nil
}
