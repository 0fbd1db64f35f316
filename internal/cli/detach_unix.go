//go:build !windows

package cli

import "syscall"

// detachAttr puts the spawned daemon in its own session, out of reach
// of terminal signals aimed at the CLI.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
