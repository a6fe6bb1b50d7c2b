package scheduler

import (
	"runtime"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
)

// config holds the resolved settings for a Pool, built from defaults plus
// any Options passed to NewPool.
type config struct {
	tick          time.Duration
	targetWorkers func() int
	tracer        Tracer
}

func defaultConfig() config {
	return config{
		tick:          50 * time.Millisecond,
		targetWorkers: func() int { return runtime.GOMAXPROCS(0) },
		tracer:        TracerFunc(nil),
	}
}

// Option configures a Pool at construction.
type Option func(*config)

// WithTick overrides the control loop's tick interval (default 50ms, i.e.
// approximately 20Hz).
func WithTick(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithTargetWorkers overrides how the control loop computes the desired
// worker count, in place of the default runtime.GOMAXPROCS(0).
func WithTargetWorkers(fn func() int) Option {
	return func(c *config) {
		if fn != nil {
			c.targetWorkers = fn
		}
	}
}

// WithTracer attaches a Tracer to receive the pool's diagnostic events.
func WithTracer(t Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithAutoMaxProcs makes the pool size itself against the host's CPU quota
// (cgroup limits included) rather than the Go runtime's default GOMAXPROCS,
// by invoking automaxprocs once at pool construction and then reading back
// runtime.GOMAXPROCS(0). This is the same adjustment the uber-go/automaxprocs
// package performs for container workloads that would otherwise oversize
// their worker pools to the host's full core count.
func WithAutoMaxProcs() Option {
	return func(c *config) {
		_, _ = maxprocs.Set()
		c.targetWorkers = func() int { return runtime.GOMAXPROCS(0) }
	}
}
