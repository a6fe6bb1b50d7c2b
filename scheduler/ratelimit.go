package scheduler

import (
	"sort"
	"sync"
	"time"
)

// RateLimitedTracer wraps a Tracer with a per-EventKind sliding-window rate
// limit, so a noisy control loop (e.g. a pool resizing every tick under
// oscillating load) doesn't flood an observer with duplicate diagnostics.
// Events beyond the configured rate are dropped silently, per the tracing
// contract: behavior never depends on whether a trace was delivered.
type RateLimitedTracer struct {
	inner Tracer
	rates []rateWindow

	mu         sync.Mutex
	categories map[EventKind][]time.Time
}

type rateWindow struct {
	window time.Duration
	limit  int
}

// NewRateLimitedTracer builds a RateLimitedTracer forwarding to inner,
// allowing at most the given count of events per EventKind category within
// each configured window. Windows are independent: an EventKind must stay
// under every configured window's limit to be delivered.
func NewRateLimitedTracer(inner Tracer, rates map[time.Duration]int) *RateLimitedTracer {
	windows := make([]rateWindow, 0, len(rates))
	for window, limit := range rates {
		windows = append(windows, rateWindow{window: window, limit: limit})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].window < windows[j].window })
	return &RateLimitedTracer{
		inner:      inner,
		rates:      windows,
		categories: make(map[EventKind][]time.Time),
	}
}

func (t *RateLimitedTracer) Trace(e TraceEvent) {
	if t.allow(e.Kind) {
		t.inner.Trace(e)
	}
}

// allow reports whether an event for kind may be delivered now, recording it
// if so. Each category keeps its own slice of recent event timestamps,
// trimmed to the widest configured window on every call: categories are a
// small fixed set (EventKind values), so a short scan is cheap, and the rate
// limit itself bounds how large any one category's slice can grow.
func (t *RateLimitedTracer) allow(kind EventKind) bool {
	if len(t.rates) == 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	events := t.categories[kind]

	widest := t.rates[len(t.rates)-1].window
	cutoff := now.Add(-widest)
	trimmed := 0
	for trimmed < len(events) && events[trimmed].Before(cutoff) {
		trimmed++
	}
	events = events[trimmed:]

	for _, r := range t.rates {
		boundary := now.Add(-r.window)
		count := 0
		for _, ts := range events {
			if !ts.Before(boundary) {
				count++
			}
		}
		if count >= r.limit {
			t.categories[kind] = events
			return false
		}
	}

	t.categories[kind] = append(events, now)
	return true
}
