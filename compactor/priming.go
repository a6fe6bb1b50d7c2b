package compactor

import "time"

// Prime runs a sequential warm-up phase of up to the configured prime
// limit groups, starting at initial, before the caller ever touches
// Sequence. Priming applies a looser acceptance rule than the steady
// state dynamic update (any measurement is recorded while either the new
// or the recorded total is under 5ms), and stops early once the suggested size
// repeats twice in a row. If priming was configured to freeze and the
// phase stabilized, the Compactor switches to Static mode at the
// stabilized size.
//
// Prime is a no-op (returning initial unchanged) if priming was not
// configured via WithPriming, or the Compactor is in Static mode.
func (c *Compactor[S, T, Acc]) Prime(initial S) (cursor S, stabilized bool) {
	if c.cfg.mode != Dynamic || c.cfg.primeLimit <= 0 {
		return initial, false
	}

	cursor = initial
	prevSize := -1
	for i := 0; i < c.cfg.primeLimit; i++ {
		size := c.nextSize()
		items, next, more := c.take(cursor, size)
		cursor = next
		if len(items) == 0 {
			break
		}

		stamp := c.stamp.Add(1)
		start := time.Now()
		_, err := c.fold1(items)
		took := time.Since(start)
		if err == nil {
			c.applyPrimingUpdate(stamp, len(items), took)
		}

		if size == prevSize {
			stabilized = true
			break
		}
		prevSize = size

		if !more {
			break
		}
	}

	if stabilized {
		c.cfg.tracer.Trace(Event{Kind: EventStabilized, Size: prevSize})
		if c.cfg.primeFreeze {
			c.cfg.mode = Static
			c.cfg.staticSize = prevSize
		}
	}
	return cursor, stabilized
}

// applyPrimingUpdate is applyDynamicUpdate with one relaxation: when the
// group's total or the recorded total is small enough to be dominated by
// timer noise (under 5ms), the group is recorded outright, since the steady-state quarter-band test is too
// strict to ever accept an improving estimate while totals are that
// small.
func (c *Compactor[S, T, Acc]) applyPrimingUpdate(stamp uint64, n int, took time.Duration) {
	current := c.est.Load()
	if current == nil || took < 5*time.Millisecond || current.total < 5*time.Millisecond {
		c.est.Store(recordedEstimate(n, took, stamp))
		return
	}
	applyDynamicUpdate(&c.est, c.cfg.target, stamp, n, took)
}
