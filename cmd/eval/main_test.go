package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/config"
)

func TestExplicitMissingSettingsFileFails(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"report", "-c", filepath.Join(t.TempDir(), "nope.yaml")})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings file")
}

func TestExplicitSettingsFlagWithDefaultName(t *testing.T) {
	// Passing -c explicitly must fail on a missing file even when the
	// given name matches the default.
	root := newRootCmd()
	root.SetArgs([]string{"report", "-c", "eval.yaml", "--results", t.TempDir()})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings file")
}

func TestDefaultSettingsFileOptional(t *testing.T) {
	// Without -c a missing eval.yaml is ignored; the command proceeds
	// and fails later on the empty ledger instead.
	root := newRootCmd()
	root.SetArgs([]string{"report", "--results", t.TempDir()})

	err := root.Execute()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "settings file")
	assert.Contains(t, err.Error(), "no recorded runs")
}

func TestRunInvalidSpeedupAborts(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--speedup", "0", "--results", t.TempDir()})

	err := root.Execute()
	assert.ErrorIs(t, err, config.ErrInvalidSpeedup)
}
