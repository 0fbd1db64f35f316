package engine

import (
	"time"

	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/pkg/model"
)

// advance derives and arms the session that follows a just-ended one.
//
// Bookkeeping first: a finished work session bumps totalWorkSessions, a
// finished break bumps sessionNumber. Then the next type comes from the
// active sequence if one has blocks left; a sequence that runs out flips
// to complete and the standard alternation takes over. The standard rule:
// after work, a long break when totalWorkSessions divides the configured
// interval, else a short break; after a break, work.
func (e *Engine) advance(endedType model.SessionType, now time.Time) []Event {
	s := &e.state
	var events []Event

	if endedType == model.SessionWork {
		s.TotalWorkSessions++
	} else {
		s.SessionNumber++
	}

	var nextType model.SessionType
	var nextSeconds int
	fromSequence := false

	if s.SequenceIsActive {
		next := s.SequenceBlockIndex + 1
		if next < len(s.SequenceBlocks) {
			s.SequenceBlockIndex = next
			block := s.SequenceBlocks[next]
			nextType = block.Type
			nextSeconds = block.DurationMinutes * 60
			fromSequence = true
			events = append(events, Event{
				Name: protocol.EventSequenceAdvance,
				Position: &protocol.SequencePosition{
					Name:       s.SequenceName,
					BlockIndex: next,
					Block:      &block,
				},
			})
		} else {
			s.SequenceIsActive = false
			s.SequenceIsComplete = true
			events = append(events, Event{
				Name: protocol.EventSequenceComplete,
				Position: &protocol.SequencePosition{
					Name:       s.SequenceName,
					BlockIndex: next,
				},
			})
		}
	}

	if !fromSequence {
		if endedType == model.SessionWork {
			if s.TotalWorkSessions%e.settings.LongBreakInterval == 0 {
				nextType = model.SessionLongBreak
			} else {
				nextType = model.SessionShortBreak
			}
		} else {
			nextType = model.SessionWork
		}
		nextSeconds = e.configuredSeconds(nextType)
	}

	e.arm(nextType, nextSeconds)

	if e.shouldAutostart(nextType) {
		events = append(events, e.begin(now)...)
	}
	return events
}
