// Package engine implements the pomd timer state machine.
//
// The engine is pure: it performs no I/O and never schedules anything. The
// daemon drives it by calling Tick once per second and converts the
// returned events into broadcasts and persistence. Every mutating method
// is a silent no-op when called in a state it does not apply to, so racing
// clients cannot drive the engine somewhere invalid.
package engine

import (
	"fmt"
	"time"

	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/model"
)

// Settings is the configured cadence the engine advances by.
type Settings struct {
	WorkSeconds       int
	ShortBreakSeconds int
	LongBreakSeconds  int
	LongBreakInterval int
	StrictMode        bool
	AutostartWork     bool
	AutostartBreaks   bool
}

// DefaultSettings is the classic 25/5/15 cadence with a long break every
// fourth work session.
func DefaultSettings() Settings {
	return Settings{
		WorkSeconds:       25 * 60,
		ShortBreakSeconds: 5 * 60,
		LongBreakSeconds:  15 * 60,
		LongBreakInterval: 4,
	}
}

// Event is one discrete occurrence produced by a mutation. Name is a
// protocol event name; Record is set for session:* events and Position for
// sequence:* events. State-bearing payloads are attached by the caller
// from State() after the mutation.
type Event struct {
	Name     string
	Record   *model.SessionRecord
	Position *protocol.SequencePosition
}

// Engine owns the timer state. It is not safe for concurrent use; the
// daemon serializes all access through its command channel.
type Engine struct {
	settings     Settings
	state        model.EngineFullState
	sessionStart time.Time
	clock        func() time.Time
}

// New creates an engine idle at the first work session.
func New(settings Settings) *Engine {
	return NewWithClock(settings, time.Now)
}

// NewWithClock creates an engine with an injected clock. Timestamps on
// session records are the only thing the clock is used for.
func NewWithClock(settings Settings, clock func() time.Time) *Engine {
	e := &Engine{settings: settings, clock: clock}
	e.state = model.EngineFullState{
		SessionType:   model.SessionWork,
		SessionNumber: 1,
		TimerMode:     model.ModeCountdown,
		IsStrictMode:  settings.StrictMode,
	}
	e.arm(model.SessionWork, settings.WorkSeconds)
	return e
}

// Restore builds an engine from a persisted state. A session that was
// mid-flight when the daemon died comes back paused; its owner decides
// when it continues.
func Restore(settings Settings, state model.EngineFullState) (*Engine, error) {
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("restore engine state: %w", err)
	}
	e := NewWithClock(settings, time.Now)
	e.state = state.Clone()
	e.state.IsStrictMode = settings.StrictMode
	if e.state.IsRunning {
		e.state.IsPaused = true
		e.sessionStart = e.clock().Add(-time.Duration(e.state.Elapsed) * time.Second)
	}
	return e, nil
}

// State returns a copy of the full engine state.
func (e *Engine) State() model.EngineFullState {
	return e.state.Clone()
}

// Settings returns the active cadence settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// arm loads a session of the given type and length, idle and unstarted.
// The complete flag is left alone so an armed next session can coexist
// with the finished previous one.
func (e *Engine) arm(typ model.SessionType, seconds int) {
	s := &e.state
	s.SessionType = typ
	s.DurationSeconds = seconds
	s.TotalSeconds = seconds
	s.SecondsLeft = seconds
	s.Elapsed = 0
	s.IsRunning = false
	s.IsPaused = false
	e.sessionStart = time.Time{}
}

// begin starts the armed session.
func (e *Engine) begin(now time.Time) []Event {
	s := &e.state
	s.IsRunning = true
	s.IsPaused = false
	s.IsComplete = false
	e.sessionStart = now

	events := []Event{{Name: protocol.EventSessionStart}}
	if s.SessionType.IsBreak() {
		events = append(events, Event{Name: protocol.EventBreakStart})
	}
	return events
}

// endRecord captures the current session as a persistence record.
func (e *Engine) endRecord(status model.SessionStatus, now time.Time) model.SessionRecord {
	s := &e.state
	started := e.sessionStart
	if started.IsZero() {
		started = now.Add(-time.Duration(s.Elapsed) * time.Second)
	}
	rec := model.NewSessionRecord(s.SessionType, status, started, now, s.TotalSeconds, s.Elapsed)
	rec.Label = s.CurrentLabel
	rec.Project = s.CurrentProject
	if s.SequenceIsActive && s.SequenceName != "" {
		rec.Tags = []string{"sequence:" + s.SequenceName}
	}
	return rec
}

func (e *Engine) configuredSeconds(typ model.SessionType) int {
	switch typ {
	case model.SessionShortBreak:
		return e.settings.ShortBreakSeconds
	case model.SessionLongBreak:
		return e.settings.LongBreakSeconds
	default:
		return e.settings.WorkSeconds
	}
}

func (e *Engine) shouldAutostart(typ model.SessionType) bool {
	if typ.IsBreak() {
		return e.settings.AutostartBreaks
	}
	return e.settings.AutostartWork
}

// Start begins the armed session. No-op while running. In stopwatch mode
// it resumes accumulation without producing session events.
func (e *Engine) Start() []Event {
	s := &e.state
	if s.IsRunning {
		return nil
	}
	if s.TimerMode == model.ModeStopwatch {
		s.IsRunning = true
		s.IsPaused = false
		return nil
	}
	return e.begin(e.clock())
}

// Pause suspends a running session.
func (e *Engine) Pause() []Event {
	s := &e.state
	if !s.IsRunning || s.IsPaused {
		return nil
	}
	s.IsPaused = true
	return []Event{{Name: protocol.EventTimerPause}}
}

// Resume continues a paused session.
func (e *Engine) Resume() []Event {
	s := &e.state
	if !s.IsRunning || !s.IsPaused {
		return nil
	}
	s.IsPaused = false
	return []Event{{Name: protocol.EventTimerResume}}
}

// Toggle pauses a running session, resumes a paused one and starts an
// idle one.
func (e *Engine) Toggle() []Event {
	s := &e.state
	switch {
	case s.IsRunning && s.IsPaused:
		return e.Resume()
	case s.IsRunning:
		return e.Pause()
	default:
		return e.Start()
	}
}

// Tick advances the engine by one second. Only a running, unpaused engine
// moves. Reaching zero completes the session exactly once and immediately
// arms the next one per the advance rules.
func (e *Engine) Tick() []Event {
	s := &e.state
	if !s.IsRunning || s.IsPaused {
		return nil
	}
	if s.TimerMode == model.ModeStopwatch {
		s.StopwatchElapsed++
		return nil
	}
	if s.SecondsLeft <= 0 {
		return nil
	}

	s.SecondsLeft--
	s.Elapsed++
	if s.SecondsLeft > 0 {
		return nil
	}

	now := e.clock()
	endedType := s.SessionType
	record := e.endRecord(model.StatusCompleted, now)
	s.IsRunning = false
	s.IsPaused = false
	s.IsComplete = true

	events := []Event{{Name: protocol.EventSessionComplete, Record: &record}}
	return append(events, e.advance(endedType, now)...)
}
