package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pomd-project/pomd/pkg/errclass"
)

var knownCommands = map[string]bool{
	CmdStart:                  true,
	CmdPause:                  true,
	CmdResume:                 true,
	CmdToggle:                 true,
	CmdSkip:                   true,
	CmdReset:                  true,
	CmdResetLog:               true,
	CmdAbandon:                true,
	CmdStatus:                 true,
	CmdSetProject:             true,
	CmdSetLabel:               true,
	CmdSetDuration:            true,
	CmdActivateSequence:       true,
	CmdActivateSequenceInline: true,
	CmdClearSequence:          true,
	CmdAdvanceSession:         true,
	CmdSwitchToStopwatch:      true,
	CmdStopStopwatch:          true,
	CmdUpdateConfig:           true,
	CmdSubscribe:              true,
	CmdPing:                   true,
	CmdShutdown:               true,
}

// KnownCommand reports whether name is in the command set.
func KnownCommand(name string) bool {
	return knownCommands[name]
}

// DecodeCommand narrows a raw line into a Command.
//
// Unparseable bytes yield E_PROTO_MALFORMED: the server drops such lines
// silently. A well-formed object with an unknown cmd yields
// E_UNKNOWN_COMMAND, and a known cmd with a bad payload yields a specific
// class; both of those travel back to the sender as {ok:false} responses.
func DecodeCommand(line []byte) (Command, error) {
	var cmd Command
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return cmd, errclass.ErrProtoMalformed.WithMessage("empty line")
	}
	if err := json.Unmarshal(line, &cmd); err != nil {
		return cmd, errclass.ErrProtoMalformed.WithMessagef("decode command: %v", err)
	}
	if cmd.Name == "" {
		return cmd, errclass.ErrProtoMalformed.WithMessage("missing cmd field")
	}
	if !knownCommands[cmd.Name] {
		return cmd, errclass.ErrUnknownCommand.WithMessagef("unknown command %q", cmd.Name)
	}

	switch cmd.Name {
	case CmdResetLog:
		if cmd.Productive == nil {
			return cmd, errclass.ErrInvalidArgument.WithMessage("reset-log requires productive")
		}
	case CmdSetDuration:
		if cmd.Minutes < 1 {
			return cmd, errclass.ErrInvalidArgument.WithMessagef("set-duration requires minutes >= 1, got %d", cmd.Minutes)
		}
	case CmdActivateSequence:
		if cmd.Sequence == "" {
			return cmd, errclass.ErrInvalidArgument.WithMessage("activate-sequence requires name")
		}
	case CmdActivateSequenceInline:
		if cmd.Definition == nil {
			return cmd, errclass.ErrInvalidArgument.WithMessage("activate-sequence-inline requires definition")
		}
	}
	return cmd, nil
}

// ServerMessage is what a client reads off the subscription connection:
// exactly one of Response or Event is set.
type ServerMessage struct {
	Response *Response
	Event    *Event
}

// probe mirrors the discriminating keys of both variants.
type probe struct {
	Event *string `json:"event"`
	OK    *bool   `json:"ok"`
}

// DecodeServerMessage narrows a raw line into a response or an event.
// Lines that are neither are malformed; clients drop them.
func DecodeServerMessage(line []byte) (ServerMessage, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return ServerMessage{}, errclass.ErrProtoMalformed.WithMessage("empty line")
	}

	var p probe
	if err := json.Unmarshal(line, &p); err != nil {
		return ServerMessage{}, errclass.ErrProtoMalformed.WithMessagef("decode server message: %v", err)
	}

	switch {
	case p.Event != nil:
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return ServerMessage{}, errclass.ErrProtoMalformed.WithMessagef("decode event: %v", err)
		}
		return ServerMessage{Event: &ev}, nil
	case p.OK != nil:
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return ServerMessage{}, errclass.ErrProtoMalformed.WithMessagef("decode response: %v", err)
		}
		return ServerMessage{Response: &resp}, nil
	default:
		return ServerMessage{}, errclass.ErrProtoMalformed.WithMessage("neither response nor event")
	}
}
