package future

import (
	"errors"
	"fmt"
)

// ErrAlreadyAssigned is returned by Cell.Assign when the cell already holds
// a value or failure.
var ErrAlreadyAssigned = errors.New(`future: cell already assigned`)

// Interrupted reports that a task's group was cancelled while the task was
// running, waiting, or queued. Reason, if non-nil, is the cause the group
// was cancelled with; it is nil for descendants that observe a cancellation
// originated elsewhere in the tree.
type Interrupted struct {
	Group  GroupID
	Reason error
}

func (e *Interrupted) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf(`future: group %d interrupted: %v`, e.Group, e.Reason)
	}
	return fmt.Sprintf(`future: group %d interrupted`, e.Group)
}

func (e *Interrupted) Unwrap() error { return e.Reason }

// AggregateFailure is raised by Join when a cancelled group's interrupt is
// flattened into the causes collected across the group and its descendants,
// so the earliest root cause(s) surface to the caller instead of a bare
// Interrupted.
type AggregateFailure struct {
	Causes []error
}

func (e *AggregateFailure) Error() string {
	if len(e.Causes) == 0 {
		return `future: aggregate failure (no causes recorded)`
	}
	if len(e.Causes) == 1 {
		return fmt.Sprintf(`future: aggregate failure: %v`, e.Causes[0])
	}
	return fmt.Sprintf(`future: aggregate failure: %v (and %d more)`, e.Causes[0], len(e.Causes)-1)
}

func (e *AggregateFailure) Unwrap() []error { return e.Causes }

// Unavailable reports that a TimedAccess deadline elapsed before the guard
// condition became satisfiable.
type Unavailable struct {
	Op string
}

func (e *Unavailable) Error() string {
	if e.Op == `` {
		return `future: unavailable (deadline exceeded)`
	}
	return fmt.Sprintf(`future: %s: unavailable (deadline exceeded)`, e.Op)
}

// UserFailure wraps whatever a user-supplied closure reported, distinguishing
// it from the runtime's own failure kinds.
type UserFailure struct {
	Cause error
}

func (e *UserFailure) Error() string {
	return fmt.Sprintf(`future: user closure failed: %v`, e.Cause)
}

func (e *UserFailure) Unwrap() error { return e.Cause }

// Misuse is a fatal programmer error. Misuse is never returned as an
// ordinary error; it is always panicked, so that contract violations abort
// the caller rather than propagate as a recoverable Outcome. The scheduler
// raises it only from Fulfill on a future that was not created by Promise.
// A second Fulfill of a promise reports false instead of panicking, and a
// join inside a syncell critical section or an enqueue after cancellation
// or shutdown is not detected.
type Misuse struct {
	Op string
}

func (e *Misuse) Error() string {
	return fmt.Sprintf(`future: misuse: %s`, e.Op)
}

// PanicMisuse panics with a *Misuse describing op. It is the single entry
// point callers use to report a fatal contract violation, so every such
// panic carries a consistent, greppable message shape.
func PanicMisuse(op string) {
	panic(&Misuse{Op: op})
}
