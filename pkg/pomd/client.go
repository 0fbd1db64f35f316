package pomd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pomd-project/pomd/internal/client"
	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/model"
)

// Aliases keep consumers on this package alone; internal paths never
// appear in their imports.
type (
	// State is the full engine state carried by responses and most events.
	State = model.EngineFullState
	// Event is one asynchronous daemon push.
	Event = protocol.Event
	// Command is one raw daemon command, accepted by Request and
	// Subscription.Send. Most callers want the typed helpers instead.
	Command = protocol.Command
	// DaemonInfo describes the running daemon, returned by Ping.
	DaemonInfo = protocol.DaemonInfo
	// SessionRecord is one finished session from the history log.
	SessionRecord = model.SessionRecord
	// SequenceDefinition is an ordered list of session blocks.
	SequenceDefinition = model.Sequence
	// ConnState is the lifecycle state of a Subscription's connection.
	ConnState = client.Status
	// HistoryFilter selects history records by type, status, project,
	// tag or count.
	HistoryFilter = history.FilterOptions
	// HistoryStats aggregates a record list.
	HistoryStats = history.Stats
)

// Connection states reported by Subscription.ConnState and OnConnState.
const (
	ConnConnecting   = client.StatusConnecting
	ConnConnected    = client.StatusConnected
	ConnDisconnected = client.StatusDisconnected
	ConnUnreachable  = client.StatusUnreachable
)

// Event names delivered to OnEvent.
const (
	EventTick             = protocol.EventTick
	EventStateChange      = protocol.EventStateChange
	EventSessionStart     = protocol.EventSessionStart
	EventSessionComplete  = protocol.EventSessionComplete
	EventSessionSkip      = protocol.EventSessionSkip
	EventSessionAbandon   = protocol.EventSessionAbandon
	EventBreakStart       = protocol.EventBreakStart
	EventSequenceAdvance  = protocol.EventSequenceAdvance
	EventSequenceComplete = protocol.EventSequenceComplete
	EventTimerPause       = protocol.EventTimerPause
	EventTimerResume      = protocol.EventTimerResume
)

// Command names accepted by Request and Subscription.Send. Subscribing
// is not listed; that is what Subscribe is for.
const (
	CmdStart                  = protocol.CmdStart
	CmdPause                  = protocol.CmdPause
	CmdResume                 = protocol.CmdResume
	CmdToggle                 = protocol.CmdToggle
	CmdSkip                   = protocol.CmdSkip
	CmdReset                  = protocol.CmdReset
	CmdResetLog               = protocol.CmdResetLog
	CmdAbandon                = protocol.CmdAbandon
	CmdStatus                 = protocol.CmdStatus
	CmdSetProject             = protocol.CmdSetProject
	CmdSetLabel               = protocol.CmdSetLabel
	CmdSetDuration            = protocol.CmdSetDuration
	CmdActivateSequence       = protocol.CmdActivateSequence
	CmdActivateSequenceInline = protocol.CmdActivateSequenceInline
	CmdClearSequence          = protocol.CmdClearSequence
	CmdAdvanceSession         = protocol.CmdAdvanceSession
	CmdSwitchToStopwatch      = protocol.CmdSwitchToStopwatch
	CmdStopStopwatch          = protocol.CmdStopStopwatch
	CmdUpdateConfig           = protocol.CmdUpdateConfig
	CmdPing                   = protocol.CmdPing
	CmdShutdown               = protocol.CmdShutdown
)

const defaultRequestTimeout = 5 * time.Second

// Options configures a Client.
type Options struct {
	// DataDir overrides the default pomd data directory.
	DataDir string
	// RequestTimeout bounds each one-shot command when the caller's
	// context has no deadline of its own. Defaults to 5s.
	RequestTimeout time.Duration
}

// Client issues one-shot commands to the daemon. Each command travels
// over a fresh connection, so a Client is safe for concurrent use and
// holds no resources between calls.
type Client struct {
	dataDir    string
	socketPath string
	timeout    time.Duration
}

// New builds a Client. With a zero Options it targets the default data
// directory.
func New(opts Options) (*Client, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = paths.DataDir()
		if err != nil {
			return nil, err
		}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		dataDir:    dataDir,
		socketPath: paths.Socket(dataDir),
		timeout:    timeout,
	}, nil
}

// SocketPath returns the daemon socket path the Client targets.
func (c *Client) SocketPath() string { return c.socketPath }

// DaemonRunning reports whether a live daemon owns this data directory,
// and its PID when it does. It checks both the PID file and the socket;
// stale leftovers from a crash do not count as running.
func (c *Client) DaemonRunning() (bool, int) {
	check := liveness.New(paths.PIDFile(c.dataDir), c.socketPath)
	state, pid := check.Status()
	return state == liveness.StateRunning, pid
}

// History returns finished sessions matching the filter, oldest first.
// It reads the history file directly and works with or without a
// running daemon.
func (c *Client) History(filter HistoryFilter) ([]SessionRecord, error) {
	return history.NewLog(paths.History(c.dataDir)).Find(filter)
}

// Summarize aggregates a record list into totals per status and focus
// seconds.
func Summarize(records []SessionRecord) HistoryStats {
	return history.Summarize(records)
}

// Start starts the current session's countdown.
func (c *Client) Start(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdStart})
}

// Pause pauses a running countdown or stopwatch.
func (c *Client) Pause(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdPause})
}

// Resume resumes a paused timer.
func (c *Client) Resume(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdResume})
}

// Toggle starts, pauses or resumes depending on the current state.
func (c *Client) Toggle(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdToggle})
}

// Skip ends the current session early and moves to the next one.
func (c *Client) Skip(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdSkip})
}

// Reset puts the current session back to its full duration, stopped.
func (c *Client) Reset(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdReset})
}

// ResetLog resets the day's session counters. With productive true the
// abandoned session still counts as done.
func (c *Client) ResetLog(ctx context.Context, productive bool) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdResetLog, Productive: &productive})
}

// Abandon discards the running session without crediting it.
func (c *Client) Abandon(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdAbandon})
}

// Status returns the current engine state without changing it.
func (c *Client) Status(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdStatus})
}

// SetLabel sets the label attached to recorded sessions. Empty clears it.
func (c *Client) SetLabel(ctx context.Context, label string) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdSetLabel, Label: label})
}

// SetProject sets the project attached to recorded sessions. Empty
// clears it.
func (c *Client) SetProject(ctx context.Context, project string) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdSetProject, Project: project})
}

// SetDuration overrides the current session's duration in minutes.
func (c *Client) SetDuration(ctx context.Context, minutes int) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdSetDuration, Minutes: minutes})
}

// ActivateSequence activates a sequence defined in the daemon's
// sequence file.
func (c *Client) ActivateSequence(ctx context.Context, name string) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdActivateSequence, Sequence: name})
}

// ActivateSequenceInline activates a sequence supplied by the caller.
func (c *Client) ActivateSequenceInline(ctx context.Context, def SequenceDefinition) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdActivateSequenceInline, Definition: &def})
}

// ClearSequence deactivates the active sequence and returns to the
// default work/break alternation.
func (c *Client) ClearSequence(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdClearSequence})
}

// AdvanceSession moves to the next session without crediting the
// current one.
func (c *Client) AdvanceSession(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdAdvanceSession})
}

// SwitchToStopwatch switches the engine to count-up mode.
func (c *Client) SwitchToStopwatch(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdSwitchToStopwatch})
}

// StopStopwatch ends stopwatch mode and records the elapsed time.
func (c *Client) StopStopwatch(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdStopStopwatch})
}

// ReloadConfig makes the daemon re-read its config files now.
func (c *Client) ReloadConfig(ctx context.Context) (State, error) {
	return c.do(ctx, protocol.Command{Name: protocol.CmdUpdateConfig})
}

// Ping checks that the daemon answers and returns its identity and
// counters.
func (c *Client) Ping(ctx context.Context) (DaemonInfo, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	resp, err := client.Request(ctx, c.socketPath, protocol.Command{Name: protocol.CmdPing})
	if err != nil {
		return DaemonInfo{}, err
	}
	if !resp.OK {
		return DaemonInfo{}, responseError(resp)
	}
	if resp.Daemon == nil {
		return DaemonInfo{}, errclass.ErrProtoMalformed.WithMessage("ping response carries no daemon info")
	}
	return *resp.Daemon, nil
}

// Shutdown asks the daemon to exit. A nil return means the daemon
// acknowledged and is stopping.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.do(ctx, protocol.Command{Name: protocol.CmdShutdown})
	return err
}

// Request sends a raw command and waits for its reply. It is the escape
// hatch behind the typed helpers; prefer those where one fits.
func (c *Client) Request(ctx context.Context, cmd Command) (State, error) {
	return c.do(ctx, cmd)
}

func (c *Client) do(ctx context.Context, cmd protocol.Command) (State, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	resp, err := client.Request(ctx, c.socketPath, cmd)
	if err != nil {
		return State{}, err
	}
	if !resp.OK {
		return State{}, responseError(resp)
	}
	if resp.State == nil {
		return State{}, nil
	}
	return *resp.State, nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// responseError rebuilds the stable error class a failure response
// carries, so errclass.Is works on this side of the socket.
func responseError(resp *protocol.Response) error {
	if resp.Code == "" {
		return errors.New(resp.Error)
	}
	msg := strings.TrimPrefix(resp.Error, resp.Code+": ")
	if msg == resp.Code {
		msg = ""
	}
	return &errclass.PomdError{Code: resp.Code, Message: msg}
}
