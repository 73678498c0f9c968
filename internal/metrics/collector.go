// Package metrics aggregates anonymous daemon counters: how many clients
// came and went, which display events arrived, and how often the stacking
// order was pushed. Collection is opt-in.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates counters for the running daemon.
type Collector struct {
	mu      sync.RWMutex
	enabled bool
	started time.Time
	totals  Totals
	events  map[string]*EventMetrics
}

// EventMetrics captures per-event-kind counters.
type EventMetrics struct {
	Kind     string    `json:"kind"`
	Count    uint64    `json:"count"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// Totals aggregates lifecycle counters across the daemon's run.
type Totals struct {
	Managed       uint64 `json:"managed"`
	Unmanaged     uint64 `json:"unmanaged"`
	FocusChanges  uint64 `json:"focusChanges"`
	Restacks      uint64 `json:"restacks"`
	Notifications uint64 `json:"notifications"`
}

// Snapshot is the serializable view of the current metrics state.
type Snapshot struct {
	Enabled bool           `json:"enabled"`
	Started time.Time      `json:"started,omitempty"`
	Totals  Totals         `json:"totals"`
	Events  []EventMetrics `json:"events,omitempty"`
}

// NewCollector returns a collector with the provided opt-in state.
func NewCollector(enabled bool) *Collector {
	c := &Collector{}
	c.SetEnabled(enabled)
	return c
}

// Enabled reports whether collection is currently active.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection, resetting counters when enabling.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if !enabled {
		c.events = nil
		c.totals = Totals{}
		c.started = time.Time{}
		return
	}
	c.started = time.Now()
	c.events = make(map[string]*EventMetrics)
}

// RecordEvent counts one display event of the given kind.
func (c *Collector) RecordEvent(kind string) {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.events == nil {
		c.events = make(map[string]*EventMetrics)
	}
	m, exists := c.events[kind]
	if !exists {
		m = &EventMetrics{Kind: kind}
		c.events[kind] = m
	}
	m.Count++
	m.LastSeen = now
}

// RecordManaged counts a client entering management.
func (c *Collector) RecordManaged() {
	c.bump(func(t *Totals) { t.Managed++ })
}

// RecordUnmanaged counts a client leaving management.
func (c *Collector) RecordUnmanaged() {
	c.bump(func(t *Totals) { t.Unmanaged++ })
}

// RecordFocusChange counts a focus handover.
func (c *Collector) RecordFocusChange() {
	c.bump(func(t *Totals) { t.FocusChanges++ })
}

// RecordRestack counts one stacking-order flush.
func (c *Collector) RecordRestack() {
	c.bump(func(t *Totals) { t.Restacks++ })
}

// RecordNotification counts one notification fan-out.
func (c *Collector) RecordNotification() {
	c.bump(func(t *Totals) { t.Notifications++ })
}

func (c *Collector) bump(mutate func(*Totals)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	mutate(&c.totals)
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Enabled: c.enabled}
	if !c.enabled {
		return snap
	}
	snap.Started = c.started
	snap.Totals = c.totals
	if len(c.events) == 0 {
		return snap
	}
	snap.Events = make([]EventMetrics, 0, len(c.events))
	for _, m := range c.events {
		snap.Events = append(snap.Events, *m)
	}
	sort.Slice(snap.Events, func(i, j int) bool {
		return snap.Events[i].Kind < snap.Events[j].Kind
	})
	return snap
}
