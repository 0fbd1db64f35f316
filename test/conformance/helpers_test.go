//go:build conformance

package conformance

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var pomdBinary string

func init() {
	// Find the pomd binary
	cwd, _ := os.Getwd()
	// Walk up to find bin/pomd
	for {
		binPath := filepath.Join(cwd, "bin", "pomd")
		if _, err := os.Stat(binPath); err == nil {
			pomdBinary = binPath
			return
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	// Fallback to PATH
	pomdBinary = "pomd"
}

// testDirs creates fresh data and config directories for one test. The
// names stay short so the daemon socket path fits the kernel limit.
func testDirs(t *testing.T) (dataDir, cfgDir string) {
	t.Helper()
	dataDir, err := os.MkdirTemp("", "pomd-data-")
	if err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	cfgDir, err = os.MkdirTemp("", "pomd-cfg-")
	if err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dataDir)
		os.RemoveAll(cfgDir)
	})
	return dataDir, cfgDir
}

// runPomd executes the pomd binary against the given directories.
func runPomd(t *testing.T, dataDir, cfgDir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	full := append([]string{"--no-color", "--data-dir", dataDir, "--config-dir", cfgDir}, args...)
	cmd := exec.Command(pomdBinary, full...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	} else {
		exitCode = 0
	}
	return
}

// stopDaemonQuiet stops the daemon if one is running. Used by cleanups,
// where a daemon that already exited is fine.
func stopDaemonQuiet(dataDir, cfgDir string) {
	args := []string{"--no-color", "--data-dir", dataDir, "--config-dir", cfgDir, "daemon", "stop"}
	_ = exec.Command(pomdBinary, args...).Run()
}

// writeConfig writes config.yaml into the config directory.
func writeConfig(t *testing.T, cfgDir, content string) {
	t.Helper()
	path := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config %s: %v", path, err)
	}
}

// writeSequences writes sequences.toml into the config directory.
func writeSequences(t *testing.T, cfgDir, content string) {
	t.Helper()
	path := filepath.Join(cfgDir, "sequences.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write sequences %s: %v", path, err)
	}
}

// fileExists checks if a file exists.
func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("failed to stat file %s: %v", path, err)
	return false
}
