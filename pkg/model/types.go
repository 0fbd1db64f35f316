package model

// SessionType identifies the kind of timer session.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short-break"
	SessionLongBreak  SessionType = "long-break"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether t is one of the break types.
func (t SessionType) IsBreak() bool {
	return t == SessionShortBreak || t == SessionLongBreak
}

// SessionStatus records how a session ended.
type SessionStatus string

const (
	StatusCompleted SessionStatus = "completed"
	StatusSkipped   SessionStatus = "skipped"
	StatusAbandoned SessionStatus = "abandoned"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusAbandoned:
		return true
	}
	return false
}

// TimerMode selects between countdown and stopwatch operation.
type TimerMode string

const (
	ModeCountdown TimerMode = "countdown"
	ModeStopwatch TimerMode = "stopwatch"
)

// Valid reports whether m is a known timer mode.
func (m TimerMode) Valid() bool {
	return m == ModeCountdown || m == ModeStopwatch
}
