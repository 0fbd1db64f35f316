//go:build !windows

package liveness

import (
	"context"
	"net"
	"time"
)

// Dial connects to the daemon owning socketPath.
func Dial(ctx context.Context, socketPath string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", socketPath)
}

// DialTimeout is Dial with a flat timeout instead of a context.
func DialTimeout(socketPath string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", socketPath, timeout)
}
