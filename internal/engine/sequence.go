package engine

import "github.com/pomd-project/pomd/pkg/model"

// ActivateSequence installs a session plan and arms its first block.
// No-op while a session is running or in stopwatch mode; callers validate
// the sequence before dispatch, the engine guards anyway.
func (e *Engine) ActivateSequence(seq model.Sequence) []Event {
	s := &e.state
	if s.IsRunning || s.TimerMode == model.ModeStopwatch {
		return nil
	}
	if seq.Validate() != nil {
		return nil
	}

	blocks := make([]model.SequenceBlock, len(seq.Blocks))
	copy(blocks, seq.Blocks)

	s.SequenceName = seq.Name
	s.SequenceBlocks = blocks
	s.SequenceBlockIndex = 0
	s.SequenceIsActive = true
	s.SequenceIsComplete = false

	first := blocks[0]
	e.arm(first.Type, first.DurationMinutes*60)
	s.IsComplete = false
	return nil
}

// ClearSequence drops the active or completed plan. The armed session
// keeps its current type and duration; only future advances change.
func (e *Engine) ClearSequence() []Event {
	s := &e.state
	if s.SequenceName == "" && !s.SequenceIsActive && !s.SequenceIsComplete {
		return nil
	}
	s.SequenceName = ""
	s.SequenceBlocks = nil
	s.SequenceBlockIndex = 0
	s.SequenceIsActive = false
	s.SequenceIsComplete = false
	return nil
}
