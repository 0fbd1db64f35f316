// Package paths resolves the pomd config and data directories and the
// well-known files inside them.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "pomd"

// Well-known file names under the data directory.
const (
	SocketFileName   = "daemon.sock"
	PIDFileName      = "daemon.pid"
	PortFileName     = "daemon.port"
	SnapshotFileName = "snapshot.json"
	StatusFileName   = "status.json"
	HistoryFileName  = "history.jsonl"
)

// DataDir returns $XDG_DATA_HOME/pomd, falling back to
// ~/.local/share/pomd. Runtime artifacts (socket, pid file, snapshot,
// status, history) live here.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/pomd, falling back to ~/.config/pomd.
// config.yaml and sequences.toml live here.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// EnsureLayout creates both directories. The data dir is 0700: the socket
// inside it is the daemon's whole access control.
func EnsureLayout(dataDir, configDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir %s: %w", configDir, err)
	}
	return nil
}

// Socket returns the daemon socket path under dataDir.
func Socket(dataDir string) string { return filepath.Join(dataDir, SocketFileName) }

// PIDFile returns the daemon pid file path under dataDir.
func PIDFile(dataDir string) string { return filepath.Join(dataDir, PIDFileName) }

// PortFile returns the loopback port file path under dataDir, used where
// unix sockets are unavailable.
func PortFile(dataDir string) string { return filepath.Join(dataDir, PortFileName) }

// Snapshot returns the engine snapshot path under dataDir.
func Snapshot(dataDir string) string { return filepath.Join(dataDir, SnapshotFileName) }

// Status returns the status file path under dataDir.
func Status(dataDir string) string { return filepath.Join(dataDir, StatusFileName) }

// History returns the session history path under dataDir.
func History(dataDir string) string { return filepath.Join(dataDir, HistoryFileName) }
