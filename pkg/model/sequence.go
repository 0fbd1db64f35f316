package model

import "fmt"

// SequenceBlock is one step of a session sequence.
type SequenceBlock struct {
	Type            SessionType `json:"type"`
	DurationMinutes int         `json:"durationMinutes"`
}

// Sequence is a named ordered plan of session blocks. Once exhausted the
// engine falls back to the standard work/break alternation.
type Sequence struct {
	Name   string          `json:"name,omitempty"`
	Blocks []SequenceBlock `json:"blocks"`
}

// Validate rejects sequences the engine must never be asked to run: empty
// plans, unknown block types, non-positive durations.
func (q *Sequence) Validate() error {
	if len(q.Blocks) == 0 {
		return fmt.Errorf("sequence has no blocks")
	}
	for i, b := range q.Blocks {
		if !b.Type.Valid() {
			return fmt.Errorf("block %d: unknown session type %q", i, b.Type)
		}
		if b.DurationMinutes < 1 {
			return fmt.Errorf("block %d: duration %d minutes below 1", i, b.DurationMinutes)
		}
	}
	return nil
}

// TotalMinutes sums the planned length of all blocks.
func (q *Sequence) TotalMinutes() int {
	total := 0
	for _, b := range q.Blocks {
		total += b.DurationMinutes
	}
	return total
}
