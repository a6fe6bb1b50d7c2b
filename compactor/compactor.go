package compactor

import (
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/parago-go/parago/future"
)

// Group is one lazily-produced batch: Run folds Size source items into an
// Acc, timing itself and feeding the shared estimate when the owning
// Compactor is in Dynamic mode.
type Group[Acc any] struct {
	Size  int
	Stamp uint64
	Run   func() (Acc, error)
}

// Compactor groups a source sequence of T, pulled one item at a time via
// source, into batches folded down to an Acc via fold. S is the source's
// own cursor/state type, so Compactor never assumes the underlying stream
// is replayable or even finite.
type Compactor[S, T, Acc any] struct {
	cfg    config
	source func(S) (T, S, bool)
	zero   func() Acc
	fold   func(Acc, T) (Acc, error)

	est   atomic.Pointer[estimate]
	stamp atomic.Uint64
}

// New builds a Compactor. source pulls the next item from a cursor of type
// S, returning ok=false once exhausted. zero produces a fresh accumulator
// for each group. fold combines one source item into the accumulator.
func New[S, T, Acc any](source func(S) (T, S, bool), zero func() Acc, fold func(Acc, T) (Acc, error), opts ...Option) *Compactor[S, T, Acc] {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	c := &Compactor[S, T, Acc]{cfg: cfg, source: source, zero: zero, fold: fold}
	if cfg.mode == Dynamic {
		c.est.Store(bootstrapEstimate(cfg.target, cfg.initialEstimate))
	}
	return c
}

// Sequence lazily groups the source, started from initial, into a stream
// of Groups. Nothing is pulled from the source, and no group size is
// decided, until the consumer ranges over (or otherwise advances) the
// returned sequence — each Group's Run closure does the actual folding,
// so a caller can hand Groups off to a scheduler without forcing them
// itself.
func (c *Compactor[S, T, Acc]) Sequence(initial S) iter.Seq[Group[Acc]] {
	return func(yield func(Group[Acc]) bool) {
		cursor := initial
		for {
			size := c.nextSize()
			items, next, more := c.take(cursor, size)
			cursor = next
			if len(items) == 0 {
				return
			}

			stamp := c.stamp.Add(1)
			g := Group[Acc]{
				Size:  len(items),
				Stamp: stamp,
				Run:   c.runner(items, stamp),
			}
			if !yield(g) {
				return
			}
			if !more {
				return
			}
		}
	}
}

// take pulls up to n items starting at cursor, stopping early if the
// source is exhausted.
func (c *Compactor[S, T, Acc]) take(cursor S, n int) (items []T, next S, more bool) {
	items = make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, rest, ok := c.source(cursor)
		if !ok {
			return items, cursor, false
		}
		items = append(items, v)
		cursor = rest
	}
	return items, cursor, true
}

func (c *Compactor[S, T, Acc]) nextSize() int {
	if c.cfg.mode == Static {
		return c.cfg.staticSize
	}
	return suggestedSize(c.est.Load(), c.cfg.target, c.cfg.scaleUp, c.cfg.scaleDown)
}

// runner builds the Run closure for a single group, folding items in the
// configured direction and, in Dynamic mode, timing the fold to update the
// shared estimate.
func (c *Compactor[S, T, Acc]) runner(items []T, stamp uint64) func() (Acc, error) {
	return func() (acc Acc, err error) {
		defer func() {
			if r := recover(); r != nil {
				acc = c.zero()
				err = &future.UserFailure{Cause: panicToError(r)}
			}
		}()

		start := time.Now()
		acc, err = c.fold1(items)
		took := time.Since(start)

		if c.cfg.mode == Dynamic && err == nil {
			before := c.est.Load()
			applyDynamicUpdate(&c.est, c.cfg.target, stamp, len(items), took)
			if c.est.Load() != before {
				c.cfg.tracer.Trace(Event{Kind: EventGroupRecorded, Size: len(items), Took: took})
			}
		}
		return acc, err
	}
}

func (c *Compactor[S, T, Acc]) fold1(items []T) (Acc, error) {
	acc := c.zero()
	if c.cfg.direction == Right {
		for i := len(items) - 1; i >= 0; i-- {
			var err error
			acc, err = c.fold(acc, items[i])
			if err != nil {
				return acc, err
			}
		}
		return acc, nil
	}
	for _, v := range items {
		var err error
		acc, err = c.fold(acc, v)
		if err != nil {
			return acc, err
		}
	}
	return acc, nil
}

func panicToError(r any) error {
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("panic: %v", r)
}
