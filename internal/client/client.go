// Package client maintains a connection to the pomd daemon on behalf of
// long-lived consumers: it subscribes, delivers events and state
// snapshots through callbacks, and reconnects with exponential backoff
// when the daemon goes away. Commands issued while disconnected wait in a
// bounded queue and are flushed before the subscription is re-established.
package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/pomd-project/pomd/pkg/model"
)

// PendingLimit bounds the queue of commands issued while disconnected.
// On overflow the oldest entry is dropped, never the newest.
const PendingLimit = 16

const (
	dialTimeout   = 2 * time.Second
	receiveBufMax = 256 * 1024

	defaultBackoffBase = 250 * time.Millisecond
	defaultBackoffCap  = 10 * time.Second
	defaultMaxAttempts = 8
)

// Status is the connection state visible to OnStatus.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusUnreachable  Status = "unreachable"
)

// Options configures a Manager. Callbacks run on the manager's own
// goroutine, one at a time; they must not call Dispose.
type Options struct {
	SocketPath string

	// Reconnect backoff: Base doubling up to Cap. After MaxAttempts
	// consecutive dial failures the manager reports unreachable and
	// pauses until a new command or Connect call wakes it.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int

	// OnSnapshot receives full engine state: once per (re)subscribe and
	// with every successful command response.
	OnSnapshot func(model.EngineFullState)
	// OnEvent receives every broadcast event, ticks included.
	OnEvent func(protocol.Event)
	// OnStatus fires on connection state transitions, never on repeats.
	OnStatus func(Status)
	// OnUnreachable fires exactly once per unreachable episode.
	OnUnreachable func()
}

// Manager is the reconnecting subscription client.
type Manager struct {
	opts Options
	log  *logging.Logger

	mu       sync.Mutex
	wmu      sync.Mutex
	status   Status
	conn     net.Conn
	pending  [][]byte
	started  bool
	disposed bool
	cancel   context.CancelFunc
	kick     chan struct{}
	wg       sync.WaitGroup
}

// NewManager builds a manager; call Connect to start it.
func NewManager(opts Options) *Manager {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.BackoffCap <= 0 {
		opts.BackoffCap = defaultBackoffCap
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Manager{
		opts: opts,
		log:  logging.WithFields(map[string]any{"component": "client"}),
		kick: make(chan struct{}, 1),
	}
}

// Connect starts the manager. Idempotent: a second call on a running
// manager only nudges it out of the unreachable pause. A disposed
// manager cannot be restarted.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return errclass.ErrDisposed.WithMessage("client manager disposed")
	}
	if m.started {
		m.wake()
		return nil
	}
	m.started = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop(ctx)
	}()
	return nil
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Send queues one command for the daemon. With a live connection it goes
// out immediately; otherwise it waits in the pending queue and wakes the
// reconnect loop.
func (m *Manager) Send(cmd protocol.Command) error {
	line, err := protocol.EncodeLine(cmd)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return errclass.ErrDisposed.WithMessage("client manager disposed")
	}
	conn := m.conn
	if conn == nil {
		m.enqueueLocked(line)
		m.wake()
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if !m.write(conn, line) {
		// The connection died under us; park the command for the next one.
		m.mu.Lock()
		if !m.disposed {
			m.enqueueLocked(line)
		}
		m.mu.Unlock()
	}
	return nil
}

// Dispose tears the manager down and waits for its goroutine. Terminal:
// a disposed manager never reconnects.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	m.pending = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	m.wg.Wait()
}

func (m *Manager) enqueueLocked(line []byte) {
	if len(m.pending) >= PendingLimit {
		m.pending = m.pending[1:]
		m.log.Warn("pending queue full, dropping oldest command")
	}
	m.pending = append(m.pending, line)
}

func (m *Manager) wake() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Manager) setStatus(st Status) {
	m.mu.Lock()
	if m.disposed || m.status == st {
		m.mu.Unlock()
		return
	}
	m.status = st
	cb := m.opts.OnStatus
	m.mu.Unlock()
	if cb != nil {
		cb(st)
	}
}

func (m *Manager) loop(ctx context.Context) {
	for {
		if !m.runEpisode(ctx) {
			return
		}
		// Unreachable. Pause until someone wants the daemon again.
		select {
		case <-ctx.Done():
			return
		case <-m.kick:
		}
	}
}

// runEpisode dials until connected or the attempt budget runs out.
// Returns false when ctx ended, true when the episode hit unreachable.
func (m *Manager) runEpisode(ctx context.Context) bool {
	attempts := 0
	delay := m.opts.BackoffBase
	for {
		if ctx.Err() != nil {
			return false
		}
		m.setStatus(StatusConnecting)
		conn, err := liveness.DialTimeout(m.opts.SocketPath, dialTimeout)
		if err == nil {
			attempts = 0
			delay = m.opts.BackoffBase
			m.serve(ctx, conn)
			if ctx.Err() != nil {
				return false
			}
			m.setStatus(StatusDisconnected)
			continue
		}

		attempts++
		m.log.Debug("daemon dial failed", map[string]any{"attempt": attempts, "error": err.Error()})
		if attempts >= m.opts.MaxAttempts {
			m.setStatus(StatusUnreachable)
			if m.opts.OnUnreachable != nil {
				m.opts.OnUnreachable()
			}
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		delay *= 2
		if delay > m.opts.BackoffCap {
			delay = m.opts.BackoffCap
		}
	}
}

// serve owns one live connection: flush pending commands, subscribe, then
// pump incoming lines into callbacks until the connection dies. A line
// that exceeds the receive buffer also ends the connection; reconnecting
// is cheaper than reasoning about a torn stream.
func (m *Manager) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if !m.flushPending(conn) {
		return
	}
	subLine, err := protocol.EncodeLine(protocol.Command{Name: protocol.CmdSubscribe})
	if err != nil {
		return
	}
	if !m.write(conn, subLine) {
		return
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.conn = conn
	m.mu.Unlock()
	m.setStatus(StatusConnected)
	// Commands that raced the subscribe handshake are still parked in
	// the queue; push them out now that direct writes are possible.
	if !m.flushPending(conn) {
		return
	}

	// Unblock the scanner when ctx ends.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), receiveBufMax)
	for scanner.Scan() {
		msg, err := protocol.DecodeServerMessage(scanner.Bytes())
		if err != nil {
			// Drop the line, keep the connection.
			continue
		}
		switch {
		case msg.Response != nil:
			if msg.Response.OK && msg.Response.State != nil && m.opts.OnSnapshot != nil {
				m.opts.OnSnapshot(*msg.Response.State)
			}
		case msg.Event != nil:
			if m.opts.OnEvent != nil {
				m.opts.OnEvent(*msg.Event)
			}
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		m.log.Debug("subscription lost", map[string]any{"error": err.Error()})
	}

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
}

// flushPending drains the queue accumulated while disconnected. Commands
// enqueued concurrently are picked up too, so nothing issued before the
// subscribe can land after it.
func (m *Manager) flushPending(conn net.Conn) bool {
	for {
		m.mu.Lock()
		if m.disposed {
			m.mu.Unlock()
			return false
		}
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return true
		}
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()

		for i, line := range batch {
			if m.write(conn, line) {
				continue
			}
			m.mu.Lock()
			if !m.disposed {
				m.pending = append(batch[i:], m.pending...)
			}
			m.mu.Unlock()
			return false
		}
	}
}

// write serializes socket writes so concurrent Sends cannot interleave
// partial lines.
func (m *Manager) write(conn net.Conn, line []byte) bool {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	_, err := conn.Write(line)
	return err == nil
}
