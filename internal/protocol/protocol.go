// Package protocol defines the newline-delimited JSON messages exchanged
// between the pomd daemon and its clients: commands, responses and events.
// Commands and events are closed sums; decoding narrows raw JSON into them
// before any field is trusted.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pomd-project/pomd/pkg/model"
)

// Command names.
const (
	CmdStart                  = "start"
	CmdPause                  = "pause"
	CmdResume                 = "resume"
	CmdToggle                 = "toggle"
	CmdSkip                   = "skip"
	CmdReset                  = "reset"
	CmdResetLog               = "reset-log"
	CmdAbandon                = "abandon"
	CmdStatus                 = "status"
	CmdSetProject             = "set-project"
	CmdSetLabel               = "set-label"
	CmdSetDuration            = "set-duration"
	CmdActivateSequence       = "activate-sequence"
	CmdActivateSequenceInline = "activate-sequence-inline"
	CmdClearSequence          = "clear-sequence"
	CmdAdvanceSession         = "advance-session"
	CmdSwitchToStopwatch      = "switch-to-stopwatch"
	CmdStopStopwatch          = "stop-stopwatch"
	CmdUpdateConfig           = "update-config"
	CmdSubscribe              = "subscribe"
	CmdPing                   = "ping"
	CmdShutdown               = "shutdown"
)

// Event names.
const (
	EventTick             = "tick"
	EventStateChange      = "state:change"
	EventSessionStart     = "session:start"
	EventSessionComplete  = "session:complete"
	EventSessionSkip      = "session:skip"
	EventSessionAbandon   = "session:abandon"
	EventBreakStart       = "break:start"
	EventSequenceAdvance  = "sequence:advance"
	EventSequenceComplete = "sequence:complete"
	EventTimerPause       = "timer:pause"
	EventTimerResume      = "timer:resume"
)

// Command is one client request. Name selects the variant; the remaining
// fields belong to specific variants and are ignored elsewhere.
type Command struct {
	Name string `json:"cmd"`

	// reset-log
	Productive *bool `json:"productive,omitempty"`
	// set-project (empty clears)
	Project string `json:"project,omitempty"`
	// set-label (empty clears)
	Label string `json:"label,omitempty"`
	// set-duration
	Minutes int `json:"minutes,omitempty"`
	// activate-sequence
	Sequence string `json:"name,omitempty"`
	// activate-sequence-inline
	Definition *model.Sequence `json:"definition,omitempty"`
}

// Response is the single reply to one command.
type Response struct {
	OK    bool                   `json:"ok"`
	State *model.EngineFullState `json:"state,omitempty"`
	Error string                 `json:"error,omitempty"`
	Code  string                 `json:"code,omitempty"`
	// Daemon is populated on ping responses only.
	Daemon *DaemonInfo `json:"daemon,omitempty"`
}

// DaemonInfo describes the running daemon, attached to ping responses.
type DaemonInfo struct {
	Version   string           `json:"version"`
	PID       int              `json:"pid"`
	StartedAt time.Time        `json:"startedAt"`
	Metrics   map[string]int64 `json:"metrics,omitempty"`
}

// OKResponse builds a success response carrying the given state.
func OKResponse(state model.EngineFullState) Response {
	return Response{OK: true, State: &state}
}

// ErrResponse builds a failure response from an error. The stable class
// code travels alongside the human message when the error carries one.
func ErrResponse(err error, code string) Response {
	return Response{OK: false, Error: err.Error(), Code: code}
}

// Event is one asynchronous server push.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SequencePosition is the payload of sequence:advance and
// sequence:complete events.
type SequencePosition struct {
	Name       string               `json:"name,omitempty"`
	BlockIndex int                  `json:"blockIndex"`
	Block      *model.SequenceBlock `json:"block,omitempty"`
}

// NewStateEvent builds an event whose payload is full engine state
// (tick, state:change, session:start, break:start, timer:pause,
// timer:resume).
func NewStateEvent(name string, state model.EngineFullState) (Event, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return Event{}, fmt.Errorf("marshal state event: %w", err)
	}
	return Event{Name: name, Data: data}, nil
}

// NewSessionEvent builds a session:complete / session:skip /
// session:abandon event carrying the finished session's record.
func NewSessionEvent(name string, record model.SessionRecord) (Event, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Event{}, fmt.Errorf("marshal session event: %w", err)
	}
	return Event{Name: name, Data: data}, nil
}

// NewSequenceEvent builds a sequence:advance / sequence:complete event.
func NewSequenceEvent(name string, pos SequencePosition) (Event, error) {
	data, err := json.Marshal(pos)
	if err != nil {
		return Event{}, fmt.Errorf("marshal sequence event: %w", err)
	}
	return Event{Name: name, Data: data}, nil
}

// State decodes the event payload as engine state.
func (e Event) State() (model.EngineFullState, error) {
	var s model.EngineFullState
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return model.EngineFullState{}, fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return s, nil
}

// Session decodes the event payload as a session record.
func (e Event) Session() (model.SessionRecord, error) {
	var r model.SessionRecord
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return model.SessionRecord{}, fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return r, nil
}

// Sequence decodes the event payload as a sequence position.
func (e Event) SequencePosition() (SequencePosition, error) {
	var p SequencePosition
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return SequencePosition{}, fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return p, nil
}

// EncodeLine marshals v and appends the line terminator.
func EncodeLine(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode line: %w", err)
	}
	return append(data, '\n'), nil
}
