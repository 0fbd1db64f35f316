// Package metrics provides in-process counters for the pomd daemon. The
// counters ride inside daemon status responses; there is no exporter.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Registry holds named monotonic counters.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*atomic.Int64
}

// NewRegistry creates an empty metrics registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*atomic.Int64)}
}

func (r *Registry) counter(name string) *atomic.Int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = &atomic.Int64{}
		r.counters[name] = c
	}
	return c
}

// Inc increments the named counter by one.
func (r *Registry) Inc(name string) {
	r.counter(name).Add(1)
}

// Add increments the named counter by delta.
func (r *Registry) Add(name string, delta int64) {
	r.counter(name).Add(delta)
}

// Get returns the current value of the named counter.
func (r *Registry) Get(name string) int64 {
	return r.counter(name).Load()
}

// Snapshot returns a copy of all counters.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

// Names returns the counter names in sorted order, for stable text output.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counter names used by the daemon, as they appear in ping responses.
const (
	CommandsHandled  = "commands_handled"
	CommandsRejected = "commands_rejected"
	LinesDropped     = "lines_dropped"
	TicksDelivered   = "ticks_delivered"
	EventsBroadcast  = "events_broadcast"
	SessionsRecorded = "sessions_recorded"
	ConnsAccepted    = "conns_accepted"
	ConnsDropped     = "conns_dropped"
	SnapshotSaves    = "snapshot_saves"
	ConfigReloads    = "config_reloads"
)
