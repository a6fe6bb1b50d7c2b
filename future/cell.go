package future

import (
	"context"
	"sync"
)

// Cell is a single-assignment result holder: write-once, blocking read.
// Instances must be created via NewCell. The zero value is not usable.
//
// Ordering: an Assign happens-before every Peek/Await/AwaitContext call that
// observes it, via the closing of the internal done channel (grounded on the
// done-channel-closed-exactly-once pattern of microbatch's batcherState).
type Cell[T any] struct {
	name string
	done chan struct{}
	once sync.Once
	// once guards the single write; value/err are only safe to read once
	// done is closed.
	value T
	err   error
}

// NewCell creates an empty cell. name is used only for diagnostics (panic
// messages, tracing); it has no effect on behavior.
func NewCell[T any](name string) *Cell[T] {
	return &Cell[T]{
		name: name,
		done: make(chan struct{}),
	}
}

// Name returns the diagnostic name the cell was created with.
func (c *Cell[T]) Name() string { return c.name }

// Peek returns the assigned value/error without blocking. ok is false if the
// cell has not yet been assigned.
func (c *Cell[T]) Peek() (value T, err error, ok bool) {
	select {
	case <-c.done:
		return c.value, c.err, true
	default:
		return value, nil, false
	}
}

// Finished reports whether the cell has been assigned.
func (c *Cell[T]) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Await blocks until the cell is assigned, then returns its value and error.
func (c *Cell[T]) Await() (T, error) {
	<-c.done
	return c.value, c.err
}

// AwaitContext blocks until the cell is assigned or ctx is done, whichever
// happens first. If ctx is done first, it returns ctx.Err() as the error.
func (c *Cell[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Assign writes the cell's value and error exactly once, then wakes every
// blocked and future reader. A second call returns ErrAlreadyAssigned and has
// no effect; it does not panic, so that a first-writer-wins race at the
// future/scheduler layer can be resolved without every caller needing a
// sync.Once of its own. The scheduler's Fulfill passes this on as a false
// return for a second fulfilment of a promise; it does not panic with a
// Misuse for it.
func (c *Cell[T]) Assign(value T, err error) error {
	assigned := false
	c.once.Do(func() {
		c.value = value
		c.err = err
		close(c.done)
		assigned = true
	})
	if !assigned {
		return ErrAlreadyAssigned
	}
	return nil
}
