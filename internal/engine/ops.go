package engine

import (
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/model"
)

// Skip ends the armed or running session as skipped and advances. Unlike
// natural completion it never leaves the engine in the complete state.
func (e *Engine) Skip() []Event {
	s := &e.state
	if s.TimerMode == model.ModeStopwatch {
		return nil
	}

	now := e.clock()
	endedType := s.SessionType
	record := e.endRecord(model.StatusSkipped, now)
	s.IsRunning = false
	s.IsPaused = false
	s.IsComplete = false

	events := []Event{{Name: protocol.EventSessionSkip, Record: &record}}
	return append(events, e.advance(endedType, now)...)
}

// AdvanceSession moves to the next session. It shares skip semantics so
// UIs can bind "next" separately from "skip".
func (e *Engine) AdvanceSession() []Event {
	return e.Skip()
}

// Reset re-arms the current session without recording anything, at its
// current duration or at overrideSeconds when one is given. In stopwatch
// mode it zeroes the accumulator and keeps going.
func (e *Engine) Reset(overrideSeconds ...int) []Event {
	s := &e.state
	if s.TimerMode == model.ModeStopwatch {
		s.StopwatchElapsed = 0
		return nil
	}
	seconds := s.DurationSeconds
	if len(overrideSeconds) > 0 && overrideSeconds[0] >= 1 {
		seconds = overrideSeconds[0]
	}
	e.arm(s.SessionType, seconds)
	s.IsComplete = false
	return nil
}

// ResetLog records the elapsed portion of the current session before
// resetting it: as completed when productive, as abandoned otherwise.
// Nothing is recorded when nothing has elapsed, and the work/break cadence
// does not move.
func (e *Engine) ResetLog(productive bool) []Event {
	s := &e.state
	if s.TimerMode == model.ModeStopwatch {
		return nil
	}

	var events []Event
	if s.Elapsed > 0 {
		status := model.StatusAbandoned
		name := protocol.EventSessionAbandon
		if productive {
			status = model.StatusCompleted
			name = protocol.EventSessionComplete
		}
		record := e.endRecord(status, e.clock())
		events = append(events, Event{Name: name, Record: &record})
	}
	e.arm(s.SessionType, s.DurationSeconds)
	s.IsComplete = false
	return events
}

// Abandon discards the session in progress, recording it as abandoned,
// and re-arms the same session type. Counters do not move.
func (e *Engine) Abandon() []Event {
	s := &e.state
	if s.TimerMode == model.ModeStopwatch {
		return nil
	}
	if !s.IsRunning && s.Elapsed == 0 {
		return nil
	}

	record := e.endRecord(model.StatusAbandoned, e.clock())
	e.arm(s.SessionType, s.DurationSeconds)
	s.IsComplete = false
	return []Event{{Name: protocol.EventSessionAbandon, Record: &record}}
}

// SetProject attaches a project to subsequent records. Empty clears it.
func (e *Engine) SetProject(project string) []Event {
	e.state.CurrentProject = project
	return nil
}

// SetLabel attaches a label to subsequent records. Empty clears it.
func (e *Engine) SetLabel(label string) []Event {
	e.state.CurrentLabel = label
	return nil
}

// SetDuration overrides the armed session's length. It applies only while
// idle or complete; a running countdown keeps its remaining time.
func (e *Engine) SetDuration(minutes int) []Event {
	s := &e.state
	if s.IsRunning || s.TimerMode == model.ModeStopwatch || minutes < 1 {
		return nil
	}
	e.arm(s.SessionType, minutes*60)
	s.IsComplete = false
	return nil
}

// ApplySettings swaps the cadence settings. An idle countdown re-arms to
// the new duration for its type (dropping any explicit override); a
// running session keeps its remaining time.
func (e *Engine) ApplySettings(settings Settings) []Event {
	e.settings = settings
	s := &e.state
	s.IsStrictMode = settings.StrictMode
	if !s.IsRunning && s.TimerMode == model.ModeCountdown {
		e.arm(s.SessionType, e.currentArmSeconds())
	}
	return nil
}

// currentArmSeconds is the configured length of the armed session: its
// sequence block if a sequence drives it, else the per-type setting.
func (e *Engine) currentArmSeconds() int {
	s := &e.state
	if s.SequenceIsActive && s.SequenceBlockIndex < len(s.SequenceBlocks) {
		return s.SequenceBlocks[s.SequenceBlockIndex].DurationMinutes * 60
	}
	return e.configuredSeconds(s.SessionType)
}
