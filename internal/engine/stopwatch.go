package engine

import (
	"time"

	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/model"
)

// SwitchToStopwatch flips into stopwatch mode and starts accumulating
// immediately. A countdown session with elapsed time is recorded as
// abandoned first; time is never discarded silently.
func (e *Engine) SwitchToStopwatch() []Event {
	s := &e.state
	if s.TimerMode == model.ModeStopwatch {
		return nil
	}

	now := e.clock()
	var events []Event
	if s.Elapsed > 0 {
		record := e.endRecord(model.StatusAbandoned, now)
		events = append(events, Event{Name: protocol.EventSessionAbandon, Record: &record})
	}

	// Re-arm the countdown so switching back lands on a clean session.
	e.arm(s.SessionType, s.DurationSeconds)
	s.IsComplete = false
	s.TimerMode = model.ModeStopwatch
	s.StopwatchElapsed = 0
	s.IsRunning = true
	s.IsPaused = false
	e.sessionStart = now
	return events
}

// StopStopwatch ends stopwatch mode. Accumulated time is logged as a
// completed work session with no planned duration, then the engine
// returns to the armed countdown. Zero accumulation logs nothing.
func (e *Engine) StopStopwatch() []Event {
	s := &e.state
	if s.TimerMode != model.ModeStopwatch {
		return nil
	}

	now := e.clock()
	var events []Event
	if s.StopwatchElapsed > 0 {
		started := e.sessionStart
		if started.IsZero() {
			started = now.Add(-time.Duration(s.StopwatchElapsed) * time.Second)
		}
		rec := model.NewSessionRecord(model.SessionWork, model.StatusCompleted, started, now, 0, s.StopwatchElapsed)
		rec.Label = s.CurrentLabel
		rec.Project = s.CurrentProject
		rec.Tags = []string{"stopwatch"}
		events = append(events, Event{Name: protocol.EventSessionComplete, Record: &rec})
	}

	s.TimerMode = model.ModeCountdown
	s.StopwatchElapsed = 0
	e.arm(s.SessionType, s.DurationSeconds)
	s.IsComplete = false
	return events
}
