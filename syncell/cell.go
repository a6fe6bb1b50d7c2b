package syncell

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/parago-go/parago/future"
)

// Cell wraps a value with a mutex and condition variable, exposing a
// transactional update contract: the read path (Value) never blocks, while
// writes are serialized and waiters are woken only on an actual transition.
// Instances must be created via New.
type Cell[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond
	ptr  atomic.Pointer[T]
}

// New creates a Cell holding the given initial value.
func New[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.cond = sync.NewCond(&c.mu)
	v := initial
	c.ptr.Store(&v)
	return c
}

// Value returns the current snapshot, without synchronization against
// concurrent writers: it may be stale the instant it returns, by design.
// Callers that need a consistent view paired with an update must use
// GuardedAccess instead.
func (c *Cell[T]) Value() T {
	return *c.ptr.Load()
}

// GuardedAccess atomically evaluates f against the current value. If f
// reports ok=false, the lock is released and the caller waits on the
// condition variable before retrying with the (possibly now different)
// current value. If f reports ok=true, next is installed as the new value,
// every waiter is woken, and result is returned.
//
// GuardedAccess is a free function, not a method, because Go methods cannot
// introduce a new type parameter (the result type R) beyond the receiver's.
func GuardedAccess[T, R any](c *Cell[T], f func(current T) (result R, next T, ok bool)) R {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		current := *c.ptr.Load()
		if result, next, ok := f(current); ok {
			nv := next
			c.ptr.Store(&nv)
			c.cond.Broadcast()
			return result
		}
		c.cond.Wait()
	}
}

// Change is shorthand for an unconditional GuardedAccess: f always succeeds,
// installing its return value as the cell's new value.
func Change[T any](c *Cell[T], f func(current T) T) {
	GuardedAccess(c, func(current T) (struct{}, T, bool) {
		return struct{}{}, f(current), true
	})
}

// TimedAccess behaves like GuardedAccess, but abandons the attempt once
// deadline passes, returning a *future.Unavailable instead of the zero
// value of R.
func TimedAccess[T, R any](c *Cell[T], deadline time.Time, f func(current T) (R, T, bool)) (R, error) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		// wake every waiter so they can re-check the deadline; this is the
		// only place TimedAccess's goroutine touches the lock from outside
		// the main body, and it never blocks holding it.
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		current := *c.ptr.Load()
		if result, next, ok := f(current); ok {
			nv := next
			c.ptr.Store(&nv)
			c.cond.Broadcast()
			return result, nil
		}
		if !time.Now().Before(deadline) {
			var zero R
			return zero, &future.Unavailable{Op: `syncell.TimedAccess`}
		}
		c.cond.Wait()
	}
}
