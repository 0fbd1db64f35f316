package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getProjectRoot returns the absolute path to the project root.
func getProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	// Walk up to find go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	t.Fatal("go.mod not found")
	return ""
}

// buildBinary compiles the pomd binary into a temp dir and returns its
// path.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping build test in short mode")
	}

	tmpDir := t.TempDir()
	binPath := filepath.Join(tmpDir, "pomd-test")
	pomdDir := filepath.Join(getProjectRoot(t), "cmd", "pomd")

	buildCmd := exec.Command("go", "build", "-o", binPath, ".")
	buildCmd.Dir = pomdDir
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))
	return binPath
}

// tempDirs returns short-lived data and config dirs. MkdirTemp keeps
// the names short enough for the unix socket path limit.
func tempDirs(t *testing.T) (string, string) {
	t.Helper()
	dataDir, err := os.MkdirTemp("", "pomd-data-")
	require.NoError(t, err)
	cfgDir, err := os.MkdirTemp("", "pomd-cfg-")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dataDir)
		os.RemoveAll(cfgDir)
	})
	return dataDir, cfgDir
}

// TestExecute verifies that main() builds into an executable binary.
func TestExecute(t *testing.T) {
	binPath := buildBinary(t)

	info, err := os.Stat(binPath)
	require.NoError(t, err)
	assert.True(t, info.Mode()&0111 != 0, "binary should be executable")
}

// TestMainHelpFlag tests that the help flag works.
func TestMainHelpFlag(t *testing.T) {
	binPath := buildBinary(t)

	cmd := exec.Command(binPath, "--help")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "pomodoro")
	assert.Contains(t, string(out), "daemon")
}

// TestMainUnknownCommand tests error handling for unknown commands.
func TestMainUnknownCommand(t *testing.T) {
	binPath := buildBinary(t)

	cmd := exec.Command(binPath, "unknown-command-xyz")
	out, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(string(out)), "unknown")
}

// TestMainEntryPoints tests that the main function is properly defined.
func TestMainEntryPoints(t *testing.T) {
	// This is a compile-time test to ensure main() exists
	_ = main
}

// TestBinaryErrorWithoutDaemon tests the unreachable-daemon message.
func TestBinaryErrorWithoutDaemon(t *testing.T) {
	binPath := buildBinary(t)
	dataDir, cfgDir := tempDirs(t)

	cmd := exec.Command(binPath, "--data-dir", dataDir, "--config-dir", cfgDir, "status")
	out, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(string(out)), "not running")
	assert.Contains(t, string(out), "pomd daemon start")
}

// TestBinaryDaemonLifecycle drives start, status, a command and stop
// through the real binary.
func TestBinaryDaemonLifecycle(t *testing.T) {
	binPath := buildBinary(t)
	dataDir, cfgDir := tempDirs(t)
	base := []string{"--data-dir", dataDir, "--config-dir", cfgDir}

	run := func(args ...string) (string, error) {
		cmd := exec.Command(binPath, append(base, args...)...)
		out, err := cmd.CombinedOutput()
		return string(out), err
	}

	out, err := run("daemon", "start")
	require.NoError(t, err, "daemon start: %s", out)
	assert.Contains(t, out, "started")
	defer run("daemon", "stop")

	out, err = run("daemon", "status")
	require.NoError(t, err, "daemon status: %s", out)
	assert.Contains(t, out, "running")

	// Starting again is a friendly no-op.
	out, err = run("daemon", "start")
	require.NoError(t, err, "second daemon start: %s", out)
	assert.Contains(t, out, "already running")

	out, err = run("--json", "toggle")
	require.NoError(t, err, "toggle: %s", out)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, true, st["isRunning"])

	out, err = run("daemon", "stop")
	require.NoError(t, err, "daemon stop: %s", out)
	assert.Contains(t, out, "stopped")

	out, err = run("daemon", "status")
	assert.Error(t, err)
	assert.Contains(t, out, "not running")
}

// TestBinaryJSONStatus tests JSON output format against a live daemon.
func TestBinaryJSONStatus(t *testing.T) {
	binPath := buildBinary(t)
	dataDir, cfgDir := tempDirs(t)
	base := []string{"--data-dir", dataDir, "--config-dir", cfgDir}

	run := func(args ...string) (string, error) {
		cmd := exec.Command(binPath, append(base, args...)...)
		out, err := cmd.CombinedOutput()
		return string(out), err
	}

	out, err := run("daemon", "start")
	require.NoError(t, err, "daemon start: %s", out)
	defer run("daemon", "stop")

	out, err = run("--json", "status")
	require.NoError(t, err, "status: %s", out)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.EqualValues(t, 25*60, st["secondsLeft"])
	assert.Equal(t, "work", st["sessionType"])

	out, err = run("--json", "daemon", "status")
	require.NoError(t, err, "daemon status: %s", out)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["running"])
	assert.Contains(t, report, "metrics")
}
