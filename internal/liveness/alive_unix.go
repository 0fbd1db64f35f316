//go:build !windows

package liveness

import (
	"os"
	"syscall"
)

// ProcessAlive reports whether a process with the given PID exists.
// Signal 0 probes without delivering anything.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
