package metrics_test

import (
	"sync"
	"testing"

	"github.com/pomd-project/pomd/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IncAndGet(t *testing.T) {
	r := metrics.NewRegistry()
	r.Inc(metrics.CommandsHandled)
	r.Inc(metrics.CommandsHandled)
	r.Add(metrics.TicksDelivered, 60)

	assert.Equal(t, int64(2), r.Get(metrics.CommandsHandled))
	assert.Equal(t, int64(60), r.Get(metrics.TicksDelivered))
	assert.Equal(t, int64(0), r.Get(metrics.ConnsDropped))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := metrics.NewRegistry()
	r.Inc(metrics.SessionsRecorded)

	snap := r.Snapshot()
	require.Contains(t, snap, metrics.SessionsRecorded)
	assert.Equal(t, int64(1), snap[metrics.SessionsRecorded])

	// Snapshot is a copy, not a live view.
	r.Inc(metrics.SessionsRecorded)
	assert.Equal(t, int64(1), snap[metrics.SessionsRecorded])
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := metrics.NewRegistry()
	r.Inc("zzz")
	r.Inc("aaa")
	r.Inc("mmm")

	assert.Equal(t, []string{"aaa", "mmm", "zzz"}, r.Names())
}

func TestRegistry_ConcurrentInc(t *testing.T) {
	r := metrics.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.Inc(metrics.EventsBroadcast)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), r.Get(metrics.EventsBroadcast))
}
