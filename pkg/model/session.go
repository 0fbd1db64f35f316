package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is the persistence payload emitted when a session ends. The
// daemon hands it to the configured recorder; the JSON names ride inside
// session:* events and are part of the wire contract.
type SessionRecord struct {
	ID              string        `json:"id"`
	Type            SessionType   `json:"type"`
	Status          SessionStatus `json:"status"`
	StartedAt       time.Time     `json:"startedAt"`
	EndedAt         time.Time     `json:"endedAt"`
	DurationPlanned int           `json:"durationPlanned"`
	DurationActual  int           `json:"durationActual"`
	Label           string        `json:"label,omitempty"`
	Project         string        `json:"project,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
}

// NewSessionRecord builds a record with a fresh unique ID. Durations are in
// seconds.
func NewSessionRecord(typ SessionType, status SessionStatus, startedAt, endedAt time.Time, planned, actual int) SessionRecord {
	return SessionRecord{
		ID:              uuid.NewString(),
		Type:            typ,
		Status:          status,
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationPlanned: planned,
		DurationActual:  actual,
	}
}
