//go:build windows

package server

import (
	"net"
	"os"
	"strconv"

	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/pkg/fsutil"
)

// listenDaemon binds a loopback TCP port and records it in the port
// file for clients to find; unix sockets are not assumed on this
// platform.
func listenDaemon(dataDir, socketPath string) (net.Listener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := fsutil.AtomicWrite(paths.PortFile(dataDir), []byte(strconv.Itoa(port)+"\n"), 0o600); err != nil {
		ln.Close()
		return nil, err
	}
	return ln, nil
}

// removeListenerFiles removes transport artifacts that survive Close.
func removeListenerFiles(dataDir string) {
	_ = os.Remove(paths.PortFile(dataDir))
}
