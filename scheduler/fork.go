package scheduler

import (
	"context"
	"fmt"

	"github.com/parago-go/parago/future"
)

// defaultPriority is used by every public entry point that doesn't expose a
// priority parameter.
const defaultPriority = 0

// NewGroup creates a new cancellation group as a child of ctx's ambient
// group (or the pool's root group, if ctx carries none), and returns a
// context carrying it, ready to be passed to Fork.
func (p *Pool) NewGroup(ctx context.Context) (context.Context, *future.Group) {
	parent, ok := groupFromContext(ctx)
	if !ok {
		parent = p.root
	}
	g := future.NewGroup(parent)
	return withGroup(ctx, g), g
}

// Fork, ForkIn, and ForkDeps are free functions rather than Pool methods:
// Go methods cannot introduce a type parameter beyond the receiver's, and
// each of these needs its own result type T (the same constraint that
// shapes syncell.GuardedAccess).

// Fork schedules fn to run on p under ctx's ambient cancellation group (the
// pool's root group, if ctx carries none), returning a Future for its
// result. fn receives a context carrying its own group, so any further Fork
// it performs nests correctly.
func Fork[T any](p *Pool, ctx context.Context, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	group, ok := groupFromContext(ctx)
	if !ok {
		group = p.root
	}
	return ForkIn(p, ctx, group, defaultPriority, nil, fn)
}

// ForkWithPriority is Fork with an explicit scheduling priority (higher
// runs first among ready tasks).
func ForkWithPriority[T any](p *Pool, ctx context.Context, priority int, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	group, ok := groupFromContext(ctx)
	if !ok {
		group = p.root
	}
	return ForkIn(p, ctx, group, priority, nil, fn)
}

// ForkIn is Fork against an explicit group instead of one derived from ctx.
func ForkIn[T any](p *Pool, ctx context.Context, group *future.Group, priority int, deps []future.TaskID, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	if !group.IsAlive() {
		var zero T
		cell := future.NewCell[T]("forkIn.cancelled")
		_ = cell.Assign(zero, group.InterruptedError())
		return future.NewFuture[T](future.NextTaskID(), group, cell, false)
	}

	group.AddTask()
	cell := future.NewCell[T]("forkIn")
	childCtx := withWorker(withGroup(ctx, group), p)

	body := func() {
		result, err := runBody(func() (T, error) { return fn(childCtx) })
		if err != nil {
			// Cancel before Assign: the cell's done-channel close is the
			// synchronization point any Join relies on, so a caller that
			// unblocks there must already observe the group as cancelled.
			group.Cancel(err)
		}
		_ = cell.Assign(result, err)
	}

	id, wasFirst := p.queue.Enqueue(group, deps, priority, body)
	p.addResolver(id, group, newResolver(cell))
	if wasFirst {
		p.wake()
	}
	return future.NewFuture[T](id, group, cell, false)
}

// ForkDeps schedules fn to run only once every future named in deps has
// finished, under ctx's ambient group. deps may mix futures of different
// result types, since only their task ids matter here.
func ForkDeps[T any](p *Pool, ctx context.Context, deps []future.Awaitable, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	group, ok := groupFromContext(ctx)
	if !ok {
		group = p.root
	}
	ids := make([]future.TaskID, len(deps))
	for i, d := range deps {
		ids[i] = d.ID()
	}
	return ForkIn(p, ctx, group, defaultPriority, ids, fn)
}

// Value returns an already-resolved Future wrapping value, for composing
// with Join/JoinResults without forking a task.
func Value[T any](value T) *future.Future[T] {
	cell := future.NewCell[T]("value")
	_ = cell.Assign(value, nil)
	return future.NewFuture[T](future.DummyTaskID, nil, cell, false)
}

// Map attaches f as a continuation on src's result. If src's task has not
// yet started, the continuation is appended directly onto it (the queue's
// fast path, taskqueue.Extend), avoiding a second task dispatch; otherwise
// it falls back to a normal dependent Fork.
func Map[T, R any](p *Pool, ctx context.Context, src *future.Future[T], f func(T) (R, error)) *future.Future[R] {
	group := src.Group()
	if group == nil {
		group, _ = groupFromContext(ctx)
		if group == nil {
			group = p.root
		}
	}

	if group.IsAlive() {
		out := future.NewCell[R]("map")
		// The appended continuation shares src's task id: it does not count as
		// a second unit of the group's live-task refcount, since runWork calls
		// Group.RemoveTask exactly once per task id, regardless of how many
		// bodies Extend accumulated on it.
		appended := p.queue.Extend(src.ID(), func() {
			v, err := src.Cell().Await()
			if err != nil {
				// src's own group.Cancel has already happened-before this
				// Await unblocked (see ForkIn): nothing further to cancel.
				var zero R
				_ = out.Assign(zero, err)
				return
			}
			result, ferr := runBody(func() (R, error) { return f(v) })
			if ferr != nil {
				group.Cancel(ferr)
			}
			_ = out.Assign(result, ferr)
		})
		if appended {
			p.addResolver(src.ID(), group, newResolver(out))
			return future.NewFuture[R](src.ID(), group, out, false)
		}
		// fall through: task already started or finished, fork a dependent instead
	}

	return ForkIn(p, ctx, group, defaultPriority, []future.TaskID{src.ID()}, func(ctx context.Context) (R, error) {
		v, err := src.Cell().Await()
		if err != nil {
			var zero R
			return zero, err
		}
		return f(v)
	})
}

// Promise creates an unresolved Future whose value must be supplied later
// via Fulfill. It is registered with the queue as a passive task so
// Shutdown can still observe it.
func Promise[T any](p *Pool, ctx context.Context) *future.Future[T] {
	group, ok := groupFromContext(ctx)
	if !ok {
		group = p.root
	}
	group.AddTask()
	id := p.queue.EnqueuePassive(group)
	cell := future.NewCell[T]("promise")
	p.addResolver(id, group, newResolver(cell))
	return future.NewFuture[T](id, group, cell, true)
}

// Fulfill resolves a Future created by Promise with value and err. It
// reports false if the Future was already resolved (by a prior Fulfill or
// by cancellation).
func Fulfill[T any](p *Pool, f *future.Future[T], value T, err error) bool {
	if !f.Promised() {
		future.PanicMisuse("scheduler.Fulfill: future was not created by Promise")
	}
	assignErr := f.Cell().Assign(value, err)
	if assignErr != nil {
		// already settled, by a prior Fulfill or by cancellation sweeping it
		// as a dropped passive task; resolveDropped already finished the
		// queue entry and removed the task from its group in that case.
		return false
	}
	p.queue.Finish(f.ID())
	p.removeResolvers(f.ID())
	if f.Group() != nil {
		f.Group().RemoveTask()
	}
	p.wake()
	return true
}

// runBody invokes fn, converting a panic into a *future.UserFailure result
// instead of propagating it through the worker goroutine.
func runBody[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &future.UserFailure{Cause: panicToError(r)}
		}
	}()
	return fn()
}

func panicToError(r any) error {
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("panic: %v", r)
}
