package future

import "sync/atomic"

// TaskID uniquely identifies a submitted thunk. DummyTaskID is reserved for
// futures created directly from an already-resolved value (Value), which
// never occupy a task queue slot.
type TaskID int64

// DummyTaskID is the distinguished id used by already-resolved futures.
const DummyTaskID TaskID = 0

var taskIDCounter atomic.Int64

// NextTaskID allocates the next process-wide unique task id.
func NextTaskID() TaskID {
	return TaskID(taskIDCounter.Add(1))
}

// Outcome is the result of a single future, as returned (without raising) by
// JoinResults.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the outcome completed without error.
func (o Outcome[T]) Ok() bool { return o.Err == nil }

// Awaitable is implemented by every Future, regardless of its result type,
// so heterogeneous-typed futures can be combined into one dependency list
// (e.g. scheduler.ForkDeps's deps parameter).
type Awaitable interface {
	ID() TaskID
}

// Future carries everything needed to observe a scheduled computation: its
// task id, its owning group, and the single-assignment cell its result will
// land in. Future is deliberately a thin, comparable-by-pointer handle; all
// synchronization lives in Cell and Group.
type Future[T any] struct {
	id       TaskID
	promised bool
	group    *Group
	cell     *Cell[T]
}

// NewFuture wraps a cell, task id, and group into a Future handle.
func NewFuture[T any](id TaskID, group *Group, cell *Cell[T], promised bool) *Future[T] {
	return &Future[T]{id: id, promised: promised, group: group, cell: cell}
}

// ID returns the future's task id.
func (f *Future[T]) ID() TaskID { return f.id }

// Group returns the future's owning cancellation group.
func (f *Future[T]) Group() *Group { return f.group }

// Promised reports whether the future was created via a promise (no
// executable body attached at creation).
func (f *Future[T]) Promised() bool { return f.promised }

// Finished reports whether the future's result cell has been assigned.
func (f *Future[T]) Finished() bool { return f.cell.Finished() }

// Peek returns the assigned outcome without blocking, if any.
func (f *Future[T]) Peek() (Outcome[T], bool) {
	v, err, ok := f.cell.Peek()
	if !ok {
		return Outcome[T]{}, false
	}
	return Outcome[T]{Value: v, Err: err}, true
}

// Cell exposes the future's underlying result cell, for use by the
// scheduler's Join implementation (which needs direct access to block on it
// without going through Future's convenience wrappers).
func (f *Future[T]) Cell() *Cell[T] { return f.cell }
