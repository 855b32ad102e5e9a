package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRun(t *testing.T) *Run {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	// The loader skips an object it cannot map, so any file will do here.
	lib := filepath.Join(t.TempDir(), "libreuseport.so")
	require.NoError(t, os.WriteFile(lib, nil, 0o644))

	r := NewCmdRun(&Root{logger: zap.NewNop()})
	r.lib = lib
	return r
}

func TestRunExitStatus(t *testing.T) {
	r := newTestRun(t)
	code, err := r.run([]string{"sh", "-c", "exit 3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRunPassesEnvironment(t *testing.T) {
	r := newTestRun(t)
	script := `case "$LD_PRELOAD" in "$1"*) ;; *) exit 10 ;; esac
test "$LIBREUSEPORT_TYPES" = "stream,dgram" || exit 11`
	lib, err := filepath.Abs(r.lib)
	require.NoError(t, err)

	code, err := r.run([]string{"sh", "-c", script, "sh", lib}, []string{"LIBREUSEPORT_TYPES=stream,dgram"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunMissingLibrary(t *testing.T) {
	r := NewCmdRun(&Root{logger: zap.NewNop()})
	r.lib = filepath.Join(t.TempDir(), "missing.so")
	code, err := r.run([]string{"true"}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestRunMissingCommand(t *testing.T) {
	r := newTestRun(t)
	code, err := r.run([]string{filepath.Join(t.TempDir(), "no-such-binary")}, nil)
	assert.Error(t, err)
	assert.Equal(t, 127, code)
}

func TestCheckForDebugFlag(t *testing.T) {
	assert.True(t, checkForDebugFlag([]string{"run", "--debug", "--", "ls"}))
	assert.False(t, checkForDebugFlag([]string{"run", "--", "app", "--debug"}))
}
