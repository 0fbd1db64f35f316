package pomd

import (
	"time"

	"github.com/pomd-project/pomd/internal/client"
	"github.com/pomd-project/pomd/internal/protocol"
)

// SubscribeOptions configures a Subscription. All callbacks are
// optional; they run on the subscription's goroutine, one at a time,
// and must not call Close.
type SubscribeOptions struct {
	// OnState receives a full state snapshot on every (re)subscribe and
	// with every successful command response the daemon sends this
	// connection.
	OnState func(State)
	// OnEvent receives every broadcast event, ticks included.
	OnEvent func(Event)
	// OnConnState fires on connection state transitions, never on
	// repeats.
	OnConnState func(ConnState)
	// OnUnreachable fires exactly once per episode of exhausted
	// reconnect attempts. Reconnect or any async command starts a new
	// episode.
	OnUnreachable func()

	// BackoffBase is the first reconnect delay, doubling up to
	// BackoffCap over MaxAttempts tries. Zero values pick the defaults
	// (250ms, 10s, 8 attempts).
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
}

// Subscription is a live event feed from the daemon. It reconnects on
// its own after connection loss and daemon restarts; commands sent
// while disconnected are queued and flushed on reconnect.
type Subscription struct {
	mgr *client.Manager
}

// Subscribe opens a Subscription against the Client's daemon. The
// daemon does not have to be up yet; the subscription keeps trying in
// the background and reports through OnConnState.
func (c *Client) Subscribe(opts SubscribeOptions) (*Subscription, error) {
	mgr := client.NewManager(client.Options{
		SocketPath:    c.socketPath,
		BackoffBase:   opts.BackoffBase,
		BackoffCap:    opts.BackoffCap,
		MaxAttempts:   opts.MaxAttempts,
		OnSnapshot:    opts.OnState,
		OnEvent:       opts.OnEvent,
		OnStatus:      opts.OnConnState,
		OnUnreachable: opts.OnUnreachable,
	})
	if err := mgr.Connect(); err != nil {
		return nil, err
	}
	return &Subscription{mgr: mgr}, nil
}

// ConnState returns the connection's current lifecycle state.
func (s *Subscription) ConnState() ConnState { return s.mgr.Status() }

// Reconnect wakes an unreachable subscription for a fresh round of
// attempts. It is a no-op while connected.
func (s *Subscription) Reconnect() error { return s.mgr.Connect() }

// Start sends start without waiting for the reply. The resulting state
// arrives through OnState.
func (s *Subscription) Start() error {
	return s.mgr.Send(protocol.Command{Name: protocol.CmdStart})
}

// Pause sends pause without waiting for the reply.
func (s *Subscription) Pause() error {
	return s.mgr.Send(protocol.Command{Name: protocol.CmdPause})
}

// Resume sends resume without waiting for the reply.
func (s *Subscription) Resume() error {
	return s.mgr.Send(protocol.Command{Name: protocol.CmdResume})
}

// Toggle sends toggle without waiting for the reply.
func (s *Subscription) Toggle() error {
	return s.mgr.Send(protocol.Command{Name: protocol.CmdToggle})
}

// Skip sends skip without waiting for the reply.
func (s *Subscription) Skip() error {
	return s.mgr.Send(protocol.Command{Name: protocol.CmdSkip})
}

// Send queues an arbitrary command. Most callers want the typed
// helpers; this is the escape hatch for the rest of the command set.
func (s *Subscription) Send(cmd Command) error {
	return s.mgr.Send(cmd)
}

// Close tears the subscription down. It is terminal: further calls on
// a closed Subscription return the disposed error class.
func (s *Subscription) Close() { s.mgr.Dispose() }
