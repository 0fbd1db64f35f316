package history_test

import (
	"testing"
	"time"

	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune_KeepsMinSessions(t *testing.T) {
	log := newLog(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, log.Append(record(model.SessionWork, model.StatusCompleted, base.Add(time.Duration(i)*time.Hour))))
	}

	now := base.Add(90 * 24 * time.Hour) // everything is old
	removed, err := log.Prune(history.RetentionPolicy{KeepMinSessions: 3, KeepMinAge: time.Hour}, now)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	records, err := log.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, base.Add(9*time.Hour), records[2].EndedAt)
}

func TestPrune_KeepsYoungRecordsBeyondCount(t *testing.T) {
	log := newLog(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		require.NoError(t, log.Append(record(model.SessionWork, model.StatusCompleted, base.Add(time.Duration(i)*time.Hour))))
	}

	// All six are younger than the age floor, so count alone cannot evict.
	now := base.Add(6 * time.Hour)
	removed, err := log.Prune(history.RetentionPolicy{KeepMinSessions: 2, KeepMinAge: 24 * time.Hour}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	records, err := log.List()
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestPrune_EmptyLogNoOp(t *testing.T) {
	log := newLog(t)
	removed, err := log.Prune(history.RetentionPolicy{KeepMinSessions: 1, KeepMinAge: time.Hour}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPrune_NothingToRemoveLeavesFileAlone(t *testing.T) {
	log := newLog(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(record(model.SessionWork, model.StatusCompleted, base)))

	removed, err := log.Prune(history.RetentionPolicy{KeepMinSessions: 5, KeepMinAge: time.Hour}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	records, err := log.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
