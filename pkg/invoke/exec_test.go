package invoke

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shell stands in for the external binaries; the trailing
// harness flags land in the script's positional parameters.
func shellCommand(script string, out string) Command {
	return Command{
		Binary:     "sh",
		Mode:       "-c",
		Args:       []string{script},
		Iterations: 1,
		Output:     out,
	}
}

func TestExecRunSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ok.json")
	err := Exec{}.Run(context.Background(), shellCommand("exit 0", out))
	assert.NoError(t, err)
}

func TestExecRunNonZeroExit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fail.json")
	err := Exec{}.Run(context.Background(), shellCommand("echo boom >&2; exit 1", out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecRunMissingBinary(t *testing.T) {
	cmd := shellCommand("exit 0", "x.json")
	cmd.Binary = "/no/such/binary"
	assert.Error(t, Exec{}.Run(context.Background(), cmd))
}

func TestExecRunRejectsInvalid(t *testing.T) {
	cmd := shellCommand("exit 0", "x.json")
	cmd.Iterations = 0
	assert.Error(t, Exec{}.Run(context.Background(), cmd))
}

func TestExecRunCapturesStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage1.log")
	cmd := shellCommand("echo synthesis output", "")
	cmd.Output = ""
	cmd.CaptureTo = path

	require.NoError(t, Exec{}.Run(context.Background(), cmd))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "synthesis output\n", string(data))
}
