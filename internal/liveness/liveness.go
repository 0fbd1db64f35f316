// Package liveness answers one question: is a pomd daemon running for
// this data directory? A daemon is running when the recorded PID is
// alive and its socket accepts a connection. Anything less is stale and
// safe to clean up.
package liveness

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pomd-project/pomd/pkg/errclass"
)

// probeTimeout bounds the socket accept probe so status checks never hang
// on a wedged daemon.
const probeTimeout = 500 * time.Millisecond

// State classifies the daemon for this data directory.
type State string

const (
	// StateRunning means the PID is alive and the socket accepts.
	StateRunning State = "running"
	// StateStale means files exist but the daemon behind them is gone.
	StateStale State = "stale"
	// StateStopped means no PID file exists.
	StateStopped State = "stopped"
)

// Check probes and claims daemon liveness for one pid/socket pair. The
// PID file holds the decimal process id in plain text.
type Check struct {
	pidPath    string
	socketPath string
	mu         sync.Mutex
}

// New creates a Check over the given PID and socket paths.
func New(pidPath, socketPath string) *Check {
	return &Check{pidPath: pidPath, socketPath: socketPath}
}

// Acquire claims the data directory for a starting daemon and returns the
// recorded PID. A live daemon refuses the claim; stale leftovers are
// removed first. The PID file is created with O_EXCL so two racing
// daemons cannot both win.
func (c *Check) Acquire() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, pid := c.status()
	switch state {
	case StateRunning:
		return 0, errclass.ErrAlreadyRunning.WithMessagef("daemon already running with pid %d", pid)
	case StateStale:
		if err := c.removeFiles(); err != nil {
			return 0, fmt.Errorf("clean stale daemon files: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.pidPath), 0700); err != nil {
		return 0, fmt.Errorf("create data dir: %w", err)
	}

	file, err := os.OpenFile(c.pidPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return 0, errclass.ErrAlreadyRunning.WithMessage("pid file appeared during acquire")
		}
		return 0, fmt.Errorf("create pid file: %w", err)
	}
	defer file.Close()

	self := os.Getpid()
	if _, err := fmt.Fprintf(file, "%d\n", self); err != nil {
		os.Remove(c.pidPath)
		return 0, fmt.Errorf("write pid file: %w", err)
	}
	if err := file.Sync(); err != nil {
		os.Remove(c.pidPath)
		return 0, fmt.Errorf("sync pid file: %w", err)
	}
	return self, nil
}

// Release removes the PID and socket files. Safe to call more than once.
func (c *Check) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeFiles()
}

// Status reports the daemon state and, when a PID file exists, its PID.
func (c *Check) Status() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// CleanStale removes leftover files from a dead daemon. It refuses to
// touch anything while the daemon is running.
func (c *Check) CleanStale() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, pid := c.status()
	if state == StateRunning {
		return errclass.ErrAlreadyRunning.WithMessagef("daemon running with pid %d, refusing clean", pid)
	}
	return c.removeFiles()
}

func (c *Check) status() (State, int) {
	pid, err := c.readPID()
	if err != nil {
		if os.IsNotExist(err) {
			return StateStopped, 0
		}
		// An unreadable PID file counts as stale so a restart can recover.
		return StateStale, 0
	}
	if ProcessAlive(pid) && SocketAccepts(c.socketPath, probeTimeout) {
		return StateRunning, pid
	}
	return StateStale, pid
}

func (c *Check) readPID() (int, error) {
	data, err := os.ReadFile(c.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

func (c *Check) removeFiles() error {
	if err := os.Remove(c.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	if err := os.Remove(c.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove socket file: %w", err)
	}
	return nil
}

// SocketAccepts reports whether the daemon socket accepts a connection
// within the timeout.
func SocketAccepts(path string, timeout time.Duration) bool {
	conn, err := DialTimeout(path, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
