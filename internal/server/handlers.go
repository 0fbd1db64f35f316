package server

import (
	"reflect"

	"github.com/pomd-project/pomd/internal/engine"
	"github.com/pomd-project/pomd/internal/notify"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/metrics"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/nameutil"
)

// request is one decoded command plus the connection that issued it. A
// non-nil err means decoding already classified the line (unknown command,
// bad payload); the mutator answers it in order with everything else.
type request struct {
	conn *connection
	cmd  protocol.Command
	err  error
}

// handle runs one command on the mutator goroutine. The response is
// queued on the issuing connection before any broadcast the command
// caused, so every client observes its own command's outcome first.
func (s *Server) handle(req request) {
	if req.err != nil {
		s.fail(req.conn, req.err)
		return
	}
	s.reg.Inc(metrics.CommandsHandled)
	cmd := req.cmd
	prev := s.eng.State()

	var events []engine.Event
	switch cmd.Name {
	case protocol.CmdStart:
		events = s.eng.Start()
	case protocol.CmdPause:
		events = s.eng.Pause()
	case protocol.CmdResume:
		events = s.eng.Resume()
	case protocol.CmdToggle:
		events = s.eng.Toggle()
	case protocol.CmdSkip:
		events = s.eng.Skip()
	case protocol.CmdReset:
		events = s.eng.Reset()
	case protocol.CmdResetLog:
		events = s.eng.ResetLog(*cmd.Productive)
	case protocol.CmdAbandon:
		events = s.eng.Abandon()
	case protocol.CmdAdvanceSession:
		events = s.eng.AdvanceSession()
	case protocol.CmdClearSequence:
		events = s.eng.ClearSequence()
	case protocol.CmdSwitchToStopwatch:
		events = s.eng.SwitchToStopwatch()
	case protocol.CmdStopStopwatch:
		events = s.eng.StopStopwatch()
	case protocol.CmdSetDuration:
		events = s.eng.SetDuration(cmd.Minutes)

	case protocol.CmdSetLabel:
		label, err := nameutil.NormalizeLabel(cmd.Label)
		if err != nil {
			s.fail(req.conn, err)
			return
		}
		events = s.eng.SetLabel(label)
	case protocol.CmdSetProject:
		project, err := nameutil.NormalizeLabel(cmd.Project)
		if err != nil {
			s.fail(req.conn, err)
			return
		}
		events = s.eng.SetProject(project)

	case protocol.CmdActivateSequence:
		seq, ok := s.sequences[cmd.Sequence]
		if !ok {
			s.fail(req.conn, errclass.ErrSequenceUnknown.WithMessagef("sequence %q is not defined", cmd.Sequence))
			return
		}
		events = s.eng.ActivateSequence(seq)
	case protocol.CmdActivateSequenceInline:
		if err := cmd.Definition.Validate(); err != nil {
			s.fail(req.conn, errclass.ErrSequenceInvalid.WithMessagef("inline sequence: %v", err))
			return
		}
		events = s.eng.ActivateSequence(*cmd.Definition)

	case protocol.CmdUpdateConfig:
		reloaded, err := s.reloadFromDisk()
		if err != nil {
			s.fail(req.conn, err)
			return
		}
		events = reloaded

	case protocol.CmdStatus:
		s.respond(req.conn, protocol.OKResponse(prev))
		return
	case protocol.CmdSubscribe:
		req.conn.subscribed = true
		s.respond(req.conn, protocol.OKResponse(prev))
		s.log.Debug("subscriber added", map[string]any{"conn": req.conn.id})
		return
	case protocol.CmdPing:
		resp := protocol.OKResponse(prev)
		resp.Daemon = s.daemonInfo()
		s.respond(req.conn, resp)
		return
	case protocol.CmdShutdown:
		s.respond(req.conn, protocol.OKResponse(prev))
		s.log.Info("shutdown requested", map[string]any{"conn": req.conn.id})
		s.cancel()
		return
	}

	post := s.eng.State()
	s.respond(req.conn, protocol.OKResponse(post))
	s.finish(prev, post, events)
}

// finish persists and broadcasts the outcome of one mutation. The issuing
// connection's response is already queued, so the issuer and subscribers
// agree on the order of cause and effect.
func (s *Server) finish(prev, post model.EngineFullState, events []engine.Event) {
	if stateChanged(prev, post) {
		s.persist(post)
	}
	lines := s.eventLines(events, post)
	if discreteChanged(prev, post) {
		if line, ok := s.stateLine(protocol.EventStateChange, post); ok {
			lines = append(lines, line)
		}
	}
	s.broadcast(lines)
}

// eventLines encodes engine events into wire lines, appending session
// records to history and publishing hook events along the way. Hooks see
// discrete events only, never the 1 Hz tick stream.
func (s *Server) eventLines(events []engine.Event, post model.EngineFullState) [][]byte {
	var lines [][]byte
	for _, ev := range events {
		var (
			wire protocol.Event
			err  error
		)
		switch {
		case ev.Record != nil:
			rec := *ev.Record
			if aerr := s.recorder.Append(rec); aerr != nil {
				s.log.ErrorErr("append session record", aerr, map[string]any{"session": rec.ID})
			} else {
				s.reg.Inc(metrics.SessionsRecorded)
			}
			s.notifier.Publish(notify.Event{Event: ev.Name, Session: &rec})
			wire, err = protocol.NewSessionEvent(ev.Name, rec)
		case ev.Position != nil:
			s.notifier.Publish(notify.Event{Event: ev.Name, State: &post})
			wire, err = protocol.NewSequenceEvent(ev.Name, *ev.Position)
		default:
			s.notifier.Publish(notify.Event{Event: ev.Name, State: &post})
			wire, err = protocol.NewStateEvent(ev.Name, post)
		}
		if err != nil {
			s.log.ErrorErr("encode event", err, map[string]any{"event": ev.Name})
			continue
		}
		line, err := protocol.EncodeLine(wire)
		if err != nil {
			s.log.ErrorErr("encode event", err, map[string]any{"event": ev.Name})
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *Server) stateLine(name string, state model.EngineFullState) ([]byte, bool) {
	wire, err := protocol.NewStateEvent(name, state)
	if err != nil {
		s.log.ErrorErr("encode event", err, map[string]any{"event": name})
		return nil, false
	}
	line, err := protocol.EncodeLine(wire)
	if err != nil {
		s.log.ErrorErr("encode event", err, map[string]any{"event": name})
		return nil, false
	}
	return line, true
}

// broadcast fans lines out to subscribers in one global order. A full
// queue drops that subscriber; the rest are unaffected.
func (s *Server) broadcast(lines [][]byte) {
	if len(lines) == 0 {
		return
	}
	for c := range s.conns {
		if !c.subscribed {
			continue
		}
		for _, line := range lines {
			if !c.send(line) {
				s.drop(c, "event queue full")
				break
			}
			s.reg.Inc(metrics.EventsBroadcast)
		}
	}
}

func (s *Server) respond(c *connection, resp protocol.Response) {
	line, err := protocol.EncodeLine(resp)
	if err != nil {
		s.log.ErrorErr("encode response", err)
		return
	}
	if !c.send(line) {
		s.drop(c, "response queue full")
	}
}

func (s *Server) fail(c *connection, err error) {
	s.reg.Inc(metrics.CommandsRejected)
	s.respond(c, protocol.ErrResponse(err, errclass.Code(err)))
}

func (s *Server) daemonInfo() *protocol.DaemonInfo {
	return &protocol.DaemonInfo{
		Version:   s.opts.Version,
		PID:       s.pid,
		StartedAt: s.startedAt,
		Metrics:   s.reg.Snapshot(),
	}
}

func stateChanged(prev, post model.EngineFullState) bool {
	return !reflect.DeepEqual(prev, post)
}

// discreteChanged ignores the per-second counters, so a mid-countdown
// tick does not count as a state:change.
func discreteChanged(prev, post model.EngineFullState) bool {
	prev.SecondsLeft, post.SecondsLeft = 0, 0
	prev.Elapsed, post.Elapsed = 0, 0
	prev.StopwatchElapsed, post.StopwatchElapsed = 0, 0
	return !reflect.DeepEqual(prev, post)
}
