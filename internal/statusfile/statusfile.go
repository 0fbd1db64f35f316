// Package statusfile renders the engine state for third-party status bars.
// The daemon rewrites status.json after every tick and transition; an
// optional shell command pokes the bar to re-read it, throttled so a
// ticking timer does not fork once a second.
package statusfile

import (
	"fmt"

	"github.com/pomd-project/pomd/pkg/format"
	"github.com/pomd-project/pomd/pkg/fsutil"
	"github.com/pomd-project/pomd/pkg/model"
)

// Class values for renderer styling.
const (
	ClassWork       = "work"
	ClassShortBreak = "short-break"
	ClassLongBreak  = "long-break"
	ClassPaused     = "paused"
	ClassIdle       = "idle"
	ClassComplete   = "complete"
	ClassStopwatch  = "stopwatch"
)

// Status is the status.json payload.
type Status struct {
	Text       string `json:"text"`
	Class      string `json:"class"`
	Percentage int    `json:"percentage"`
	Tooltip    string `json:"tooltip"`
}

// Render converts an engine state into its display payload.
func Render(state model.EngineFullState) Status {
	st := Status{
		Text:       format.Clock(state.SecondsLeft),
		Class:      class(state),
		Percentage: format.Percent(state.Elapsed, state.TotalSeconds),
		Tooltip:    tooltip(state),
	}
	if state.TimerMode == model.ModeStopwatch {
		st.Text = format.Clock(state.StopwatchElapsed)
		st.Percentage = 0
	}
	return st
}

func class(state model.EngineFullState) string {
	switch {
	case state.IsPaused:
		return ClassPaused
	case state.TimerMode == model.ModeStopwatch:
		return ClassStopwatch
	case state.IsComplete:
		return ClassComplete
	case !state.IsRunning:
		return ClassIdle
	case state.SessionType == model.SessionShortBreak:
		return ClassShortBreak
	case state.SessionType == model.SessionLongBreak:
		return ClassLongBreak
	default:
		return ClassWork
	}
}

func tooltip(state model.EngineFullState) string {
	var text string
	switch {
	case state.TimerMode == model.ModeStopwatch:
		text = "Stopwatch"
	case state.SessionType == model.SessionShortBreak:
		text = "Short break"
	case state.SessionType == model.SessionLongBreak:
		text = "Long break"
	default:
		text = fmt.Sprintf("Work session %d", state.SessionNumber)
	}
	if state.CurrentLabel != "" {
		text += ": " + state.CurrentLabel
	}
	switch {
	case state.IsPaused:
		text += " (paused)"
	case state.IsComplete && state.TimerMode == model.ModeCountdown:
		text += " (complete)"
	}
	return text
}

// Writer persists rendered status atomically and pokes the signaler.
type Writer struct {
	path     string
	signaler *Signaler
}

// NewWriter creates a Writer. The signaler may be nil when no refresh
// command is configured.
func NewWriter(path string, signaler *Signaler) *Writer {
	return &Writer{path: path, signaler: signaler}
}

// Write renders the state to status.json.
func (w *Writer) Write(state model.EngineFullState) error {
	st := Render(state)
	if err := fsutil.AtomicWriteJSON(w.path, st, 0644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	if w.signaler != nil {
		w.signaler.Notify(st)
	}
	return nil
}
