package model

import "fmt"

// EngineFullState is the complete externally visible timer state. It is the
// payload of status responses, tick events and the on-disk snapshot, so the
// JSON field names are a wire contract and must not change.
type EngineFullState struct {
	SecondsLeft  int `json:"secondsLeft"`
	TotalSeconds int `json:"totalSeconds"`
	Elapsed      int `json:"elapsed"`

	IsRunning  bool `json:"isRunning"`
	IsPaused   bool `json:"isPaused"`
	IsComplete bool `json:"isComplete"`

	SessionType       SessionType `json:"sessionType"`
	SessionNumber     int         `json:"sessionNumber"`
	TotalWorkSessions int         `json:"totalWorkSessions"`
	IsStrictMode      bool        `json:"isStrictMode"`

	CurrentLabel   string `json:"currentLabel,omitempty"`
	CurrentProject string `json:"currentProject,omitempty"`

	// DurationSeconds is the configured length of the current session,
	// including any explicit override. TotalSeconds tracks it while armed.
	DurationSeconds int `json:"durationSeconds"`

	TimerMode        TimerMode `json:"timerMode"`
	StopwatchElapsed int       `json:"stopwatchElapsed"`

	SequenceName       string          `json:"sequenceName,omitempty"`
	SequenceBlocks     []SequenceBlock `json:"sequenceBlocks,omitempty"`
	SequenceBlockIndex int             `json:"sequenceBlockIndex"`
	SequenceIsActive   bool            `json:"sequenceIsActive"`
	SequenceIsComplete bool            `json:"sequenceIsComplete"`
}

// Validate checks the structural invariants that must hold in every state a
// well-behaved engine can produce. Used when restoring persisted snapshots.
func (s *EngineFullState) Validate() error {
	if s.IsPaused && !s.IsRunning {
		return fmt.Errorf("paused while not running")
	}
	if s.IsComplete && s.IsRunning {
		return fmt.Errorf("complete while running")
	}
	if s.SecondsLeft < 0 {
		return fmt.Errorf("negative secondsLeft %d", s.SecondsLeft)
	}
	if s.TotalSeconds < 0 || s.SecondsLeft > s.TotalSeconds {
		return fmt.Errorf("secondsLeft %d exceeds totalSeconds %d", s.SecondsLeft, s.TotalSeconds)
	}
	if s.Elapsed < 0 {
		return fmt.Errorf("negative elapsed %d", s.Elapsed)
	}
	if s.SessionNumber < 1 {
		return fmt.Errorf("sessionNumber %d below 1", s.SessionNumber)
	}
	if s.TotalWorkSessions < 0 {
		return fmt.Errorf("negative totalWorkSessions %d", s.TotalWorkSessions)
	}
	if !s.SessionType.Valid() {
		return fmt.Errorf("unknown sessionType %q", s.SessionType)
	}
	if !s.TimerMode.Valid() {
		return fmt.Errorf("unknown timerMode %q", s.TimerMode)
	}
	if s.StopwatchElapsed < 0 {
		return fmt.Errorf("negative stopwatchElapsed %d", s.StopwatchElapsed)
	}
	if s.SequenceIsActive {
		if len(s.SequenceBlocks) == 0 {
			return fmt.Errorf("active sequence with no blocks")
		}
		if s.SequenceBlockIndex < 0 || s.SequenceBlockIndex >= len(s.SequenceBlocks) {
			return fmt.Errorf("sequence block index %d out of range", s.SequenceBlockIndex)
		}
	}
	return nil
}

// Clone returns a deep copy. Engine callers hold the copy, never the
// engine's own state.
func (s EngineFullState) Clone() EngineFullState {
	out := s
	if s.SequenceBlocks != nil {
		out.SequenceBlocks = make([]SequenceBlock, len(s.SequenceBlocks))
		copy(out.SequenceBlocks, s.SequenceBlocks)
	}
	return out
}
