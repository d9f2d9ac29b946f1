// Package postprocess triggers the external plotting and tabulation
// scripts once an experiment's sweep has completed.
package postprocess

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Runner invokes one post-processing command against a result
// directory.
type Runner interface {
	Run(ctx context.Context, argv []string, resultDir string) error
}

// Exec runs the registered script with the result directory appended
// as its final argument. Script output is not parsed; failures are
// reported to the caller and never roll back collected artifacts.
type Exec struct {
	Verbose bool
}

func (e Exec) Run(ctx context.Context, argv []string, resultDir string) error {
	if len(argv) == 0 {
		return nil
	}
	args := append(append([]string{}, argv[1:]...), resultDir)
	if e.Verbose {
		log.Printf("post-processing: %s %s", argv[0], strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}
	return nil
}
