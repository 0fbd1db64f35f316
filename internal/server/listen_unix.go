//go:build !windows

package server

import (
	"net"
	"os"
)

// listenDaemon opens the daemon's unix socket. A socket file left by a
// crash would make Listen fail; Acquire has already established that no
// live daemon owns it.
func listenDaemon(dataDir, socketPath string) (net.Listener, error) {
	_ = os.Remove(socketPath)
	return net.Listen("unix", socketPath)
}

// removeListenerFiles removes transport artifacts that survive Close.
// The unix socket unlinks itself.
func removeListenerFiles(dataDir string) {}
