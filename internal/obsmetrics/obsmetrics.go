// Package obsmetrics is a small set of atomic counters for the handful of
// rates worth watching at a glance (appends, merges, consensus rounds,
// flooded envelopes, guard-chain denials). No third-party metrics client
// appears anywhere in the retrieved pack, so this stays on sync/atomic
// rather than inventing a Prometheus/statsd dependency nothing here grounds.
package obsmetrics

import "sync/atomic"

// Counter is a monotonically increasing named count, safe for concurrent use.
type Counter struct {
	name  string
	value atomic.Int64
}

func NewCounter(name string) *Counter { return &Counter{name: name} }

func (c *Counter) Inc()            { c.value.Add(1) }
func (c *Counter) Add(delta int64) { c.value.Add(delta) }
func (c *Counter) Value() int64     { return c.value.Load() }
func (c *Counter) Name() string     { return c.name }

// Registry is a fixed set of named counters a component exposes for
// inspection (e.g. by a caller wiring them into whatever metrics sink the
// embedding application already runs).
type Registry struct {
	counters map[string]*Counter
}

func NewRegistry(names ...string) *Registry {
	r := &Registry{counters: make(map[string]*Counter, len(names))}
	for _, n := range names {
		r.counters[n] = NewCounter(n)
	}
	return r
}

// Get returns the named counter, creating it on first use so callers never
// need a separate registration pass before incrementing.
func (r *Registry) Get(name string) *Counter {
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := NewCounter(name)
	r.counters[name] = c
	return c
}

func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Value()
	}
	return out
}
