package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimitedTracer_dropsEventsBeyondConfiguredRate(t *testing.T) {
	var delivered atomic.Int32
	inner := TracerFunc(func(e TraceEvent) { delivered.Add(1) })
	rt := NewRateLimitedTracer(inner, map[time.Duration]int{time.Minute: 1})

	for i := 0; i < 5; i++ {
		rt.Trace(TraceEvent{Kind: EventPoolResize})
	}

	if got := delivered.Load(); got != 1 {
		t.Fatalf(`expected exactly 1 delivered event within the window, got %d`, got)
	}
}

func TestRateLimitedTracer_tracksEventKindsIndependently(t *testing.T) {
	var delivered atomic.Int32
	inner := TracerFunc(func(e TraceEvent) { delivered.Add(1) })
	rt := NewRateLimitedTracer(inner, map[time.Duration]int{time.Minute: 1})

	rt.Trace(TraceEvent{Kind: EventPoolResize})
	rt.Trace(TraceEvent{Kind: EventWorkerPanic})

	if got := delivered.Load(); got != 2 {
		t.Fatalf(`expected independent per-kind budgets to both allow one event, got %d`, got)
	}
}
