package model_test

import (
	"encoding/json"
	"testing"

	"github.com/pomd-project/pomd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullState() model.EngineFullState {
	return model.EngineFullState{
		SecondsLeft:        900,
		TotalSeconds:       1500,
		Elapsed:            600,
		IsRunning:          true,
		SessionType:        model.SessionWork,
		SessionNumber:      2,
		TotalWorkSessions:  1,
		CurrentLabel:       "deep work",
		CurrentProject:     "pomd",
		DurationSeconds:    1500,
		TimerMode:          model.ModeCountdown,
		SequenceName:       "morning",
		SequenceBlocks:     []model.SequenceBlock{{Type: model.SessionWork, DurationMinutes: 25}, {Type: model.SessionShortBreak, DurationMinutes: 5}},
		SequenceBlockIndex: 0,
		SequenceIsActive:   true,
	}
}

func TestEngineFullState_Validate_OK(t *testing.T) {
	s := fullState()
	require.NoError(t, s.Validate())
}

func TestEngineFullState_Validate_Invariants(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.EngineFullState)
	}{
		{"paused while idle", func(s *model.EngineFullState) { s.IsRunning = false; s.IsPaused = true }},
		{"complete while running", func(s *model.EngineFullState) { s.IsComplete = true }},
		{"secondsLeft above total", func(s *model.EngineFullState) { s.SecondsLeft = s.TotalSeconds + 1 }},
		{"negative secondsLeft", func(s *model.EngineFullState) { s.SecondsLeft = -1 }},
		{"session number zero", func(s *model.EngineFullState) { s.SessionNumber = 0 }},
		{"unknown session type", func(s *model.EngineFullState) { s.SessionType = "nap" }},
		{"unknown timer mode", func(s *model.EngineFullState) { s.TimerMode = "sundial" }},
		{"active sequence without blocks", func(s *model.EngineFullState) { s.SequenceBlocks = nil }},
		{"sequence index out of range", func(s *model.EngineFullState) { s.SequenceBlockIndex = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := fullState()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestEngineFullState_JSONRoundTrip(t *testing.T) {
	s := fullState()
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back model.EngineFullState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestEngineFullState_WireFieldNames(t *testing.T) {
	data, err := json.Marshal(fullState())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"secondsLeft", "totalSeconds", "elapsed",
		"isRunning", "isPaused", "isComplete",
		"sessionType", "sessionNumber", "totalWorkSessions", "isStrictMode",
		"durationSeconds", "timerMode", "stopwatchElapsed",
		"sequenceName", "sequenceBlocks", "sequenceBlockIndex",
		"sequenceIsActive", "sequenceIsComplete",
	} {
		assert.Contains(t, raw, key)
	}
}

func TestEngineFullState_Clone_Isolated(t *testing.T) {
	s := fullState()
	c := s.Clone()
	c.SequenceBlocks[0].DurationMinutes = 99

	assert.Equal(t, 25, s.SequenceBlocks[0].DurationMinutes)
}
