package future

import (
	"sync"
	"sync/atomic"
)

// GroupID identifies a Group. Ids are process-wide unique and monotonically
// increasing, mirroring the task id allocation scheme (see TaskID).
type GroupID int64

var groupIDCounter atomic.Int64

// Group is a node in a cancellation tree. Cancelling a group atomically
// cancels every descendant; the operation is monotonic (a cancelled group
// never becomes alive again) and idempotent.
//
// Group deliberately does not cancel automatically when whatever goroutine
// created it returns — Go has no notion of an owning thread terminating the
// way the ML runtime this system is modeled on does, so cancellation is
// always an explicit CancelGroup call (see DESIGN.md for the considered
// alternative).
type Group struct {
	id     GroupID
	parent *Group

	mu        sync.Mutex
	cancelled bool
	causes    []error
	children  map[GroupID]*Group
	tasks     int
}

// NewGroup creates a new group with the given parent, which may be nil for
// a root group. If parent is already cancelled, the new group is created
// already-cancelled, satisfying the descendant-closure invariant: no caller
// can observe a live child of a cancelled parent.
func NewGroup(parent *Group) *Group {
	g := &Group{
		id:       GroupID(groupIDCounter.Add(1)),
		parent:   parent,
		children: make(map[GroupID]*Group),
	}
	if parent != nil {
		parent.adopt(g)
	}
	return g
}

// ID returns the group's unique identifier.
func (g *Group) ID() GroupID { return g.id }

// Parent returns the group's parent, or nil for a root group.
func (g *Group) Parent() *Group { return g.parent }

func (g *Group) adopt(child *Group) {
	g.mu.Lock()
	cancelled := g.cancelled
	if !cancelled {
		g.children[child.id] = child
	}
	g.mu.Unlock()

	if cancelled {
		// descendant closure: a child created under an already-cancelled
		// parent is cancelled before it is returned to the caller, and is
		// never registered, so it cannot keep the parent from being reaped.
		child.Cancel(nil)
	}
}

// IsAlive reports whether the group itself (not checking its ancestors) has
// not been cancelled. A group whose ancestor was cancelled is itself cancelled too,
// by propagation at the time of the ancestor's Cancel call.
func (g *Group) IsAlive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.cancelled
}

// Cancel marks the group, and every current descendant, cancelled. reason,
// if non-nil, is recorded as one of this group's own causes; descendants
// receive no reason of their own from this call (their status becomes
// cancelled, but Failures() on an ancestor still reports this group's reason
// as the root cause). Cancel is idempotent: calling it again with the same
// or a different reason on an already-cancelled group has no further
// effect and reports changed=false.
func (g *Group) Cancel(reason error) (changed bool) {
	g.mu.Lock()
	if g.cancelled {
		g.mu.Unlock()
		return false
	}
	g.cancelled = true
	if reason != nil {
		g.causes = append(g.causes, reason)
	}
	children := make([]*Group, 0, len(g.children))
	for _, c := range g.children {
		children = append(children, c)
	}
	g.mu.Unlock()

	for _, c := range children {
		c.Cancel(nil)
	}
	return true
}

// Failures returns the transitive union of this group's own recorded causes
// and those of every descendant, reported on demand (no cost is paid for
// maintaining this union outside of a Cancel/Failures call).
func (g *Group) Failures() []error {
	g.mu.Lock()
	causes := append([]error(nil), g.causes...)
	children := make([]*Group, 0, len(g.children))
	for _, c := range g.children {
		children = append(children, c)
	}
	g.mu.Unlock()

	for _, c := range children {
		causes = append(causes, c.Failures()...)
	}
	return causes
}

// InterruptedError builds the *Interrupted a caller observing this group's
// cancellation should see: its Reason is nil if no cause was ever recorded,
// the sole cause if exactly one was recorded anywhere in the subtree, or an
// *AggregateFailure wrapping all of them, so the earliest root cause (or
// causes) surfaces instead of a bare, uninformative interrupt.
func (g *Group) InterruptedError() *Interrupted {
	failures := g.Failures()
	switch len(failures) {
	case 0:
		return &Interrupted{Group: g.id}
	case 1:
		return &Interrupted{Group: g.id, Reason: failures[0]}
	default:
		return &Interrupted{Group: g.id, Reason: &AggregateFailure{Causes: failures}}
	}
}

// AddTask registers a live task against this group, for orphan bookkeeping.
func (g *Group) AddTask() {
	g.mu.Lock()
	g.tasks++
	g.mu.Unlock()
}

// RemoveTask deregisters a finished or dropped task. Once a group has no
// live tasks and no live children, it is unlinked from its parent (the
// orphan rule); this cascades upward through any ancestor that becomes
// orphaned as a result.
func (g *Group) RemoveTask() {
	g.mu.Lock()
	g.tasks--
	orphaned := g.tasks <= 0 && len(g.children) == 0
	g.mu.Unlock()

	if orphaned && g.parent != nil {
		g.parent.reapChild(g)
	}
}

func (g *Group) reapChild(child *Group) {
	g.mu.Lock()
	delete(g.children, child.id)
	orphaned := g.tasks <= 0 && len(g.children) == 0
	g.mu.Unlock()

	if orphaned && g.parent != nil {
		g.parent.reapChild(g)
	}
}

// childCount reports the number of live children, for tests/diagnostics.
func (g *Group) childCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.children)
}
