//go:build windows

package cli

import "syscall"

const createNewProcessGroup = 0x00000200

// detachAttr starts the spawned daemon in its own process group so a
// console Ctrl+C aimed at the CLI never reaches it.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
