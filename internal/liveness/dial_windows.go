//go:build windows

package liveness

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pomd-project/pomd/internal/paths"
)

// The daemon listens on loopback TCP here and records the bound port in
// the port file beside the socket path.
func daemonAddr(socketPath string) (string, error) {
	portPath := filepath.Join(filepath.Dir(socketPath), paths.PortFileName)
	data, err := os.ReadFile(portPath)
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", portPath, err)
	}
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), nil
}

// Dial connects to the daemon owning socketPath.
func Dial(ctx context.Context, socketPath string) (net.Conn, error) {
	addr, err := daemonAddr(socketPath)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// DialTimeout is Dial with a flat timeout instead of a context.
func DialTimeout(socketPath string, timeout time.Duration) (net.Conn, error) {
	addr, err := daemonAddr(socketPath)
	if err != nil {
		return nil, err
	}
	return net.DialTimeout("tcp", addr, timeout)
}
