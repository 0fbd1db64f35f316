package liveness_test

import (
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "daemon.pid"), filepath.Join(dir, "daemon.sock")
}

func listenOn(t *testing.T, socketPath string) net.Listener {
	t.Helper()
	ln, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln
}

func writeDeadPID(t *testing.T, pidPath string) {
	t.Helper()
	// Beyond pid_max on any sane kernel.
	require.NoError(t, os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", math.MaxInt32)), 0644))
}

func TestStatus_NoFiles_Stopped(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	state, pid := liveness.New(pidPath, socketPath).Status()
	assert.Equal(t, liveness.StateStopped, state)
	assert.Zero(t, pid)
}

func TestAcquireWithListener_Running(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	listenOn(t, socketPath)

	check := liveness.New(pidPath, socketPath)
	pid, err := check.Acquire()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	data, err := os.ReadFile(pidPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))

	state, got := check.Status()
	assert.Equal(t, liveness.StateRunning, state)
	assert.Equal(t, pid, got)
}

func TestStatus_LivePIDWithoutListener_Stale(t *testing.T) {
	pidPath, socketPath := testPaths(t)

	check := liveness.New(pidPath, socketPath)
	_, err := check.Acquire()
	require.NoError(t, err)

	// PID is alive (it is us) but nothing listens on the socket.
	state, _ := check.Status()
	assert.Equal(t, liveness.StateStale, state)
}

func TestStatus_DeadPID_Stale(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	listenOn(t, socketPath)
	writeDeadPID(t, pidPath)

	state, pid := liveness.New(pidPath, socketPath).Status()
	assert.Equal(t, liveness.StateStale, state)
	assert.Equal(t, math.MaxInt32, pid)
}

func TestStatus_CorruptPIDFile_Stale(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	require.NoError(t, os.WriteFile(pidPath, []byte("not a pid"), 0644))

	state, pid := liveness.New(pidPath, socketPath).Status()
	assert.Equal(t, liveness.StateStale, state)
	assert.Zero(t, pid)
}

func TestAcquire_WhileRunning_Refused(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	listenOn(t, socketPath)

	first := liveness.New(pidPath, socketPath)
	_, err := first.Acquire()
	require.NoError(t, err)

	second := liveness.New(pidPath, socketPath)
	_, err = second.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrAlreadyRunning)
}

func TestAcquire_ReplacesStaleFiles(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	writeDeadPID(t, pidPath)

	check := liveness.New(pidPath, socketPath)
	pid, err := check.Acquire()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	data, err := os.ReadFile(pidPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))
}

func TestRelease_RemovesFilesAndIsIdempotent(t *testing.T) {
	pidPath, socketPath := testPaths(t)

	check := liveness.New(pidPath, socketPath)
	_, err := check.Acquire()
	require.NoError(t, err)

	require.NoError(t, check.Release())
	_, statErr := os.Stat(pidPath)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, check.Release())
}

func TestCleanStale_RefusesRunningDaemon(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	listenOn(t, socketPath)

	check := liveness.New(pidPath, socketPath)
	_, err := check.Acquire()
	require.NoError(t, err)

	err = check.CleanStale()
	assert.ErrorIs(t, err, errclass.ErrAlreadyRunning)
	_, statErr := os.Stat(pidPath)
	assert.NoError(t, statErr)
}

func TestCleanStale_RemovesDeadDaemonFiles(t *testing.T) {
	pidPath, socketPath := testPaths(t)
	writeDeadPID(t, pidPath)

	check := liveness.New(pidPath, socketPath)
	require.NoError(t, check.CleanStale())

	state, _ := check.Status()
	assert.Equal(t, liveness.StateStopped, state)
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, liveness.ProcessAlive(os.Getpid()))
	assert.False(t, liveness.ProcessAlive(0))
	assert.False(t, liveness.ProcessAlive(-1))
	assert.False(t, liveness.ProcessAlive(math.MaxInt32))
}

func TestSocketAccepts(t *testing.T) {
	_, socketPath := testPaths(t)
	assert.False(t, liveness.SocketAccepts(socketPath, 100*time.Millisecond))

	listenOn(t, socketPath)
	assert.True(t, liveness.SocketAccepts(socketPath, 100*time.Millisecond))
}
