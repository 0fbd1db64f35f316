//go:build windows

package liveness

import "os"

// ProcessAlive reports whether a process with the given PID exists.
// FindProcess opens a real handle here, so its error is the probe.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	process.Release()
	return true
}
