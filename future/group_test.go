package future

import (
	"errors"
	"testing"
)

func TestGroup_cancelMonotonicAndIdempotent(t *testing.T) {
	g := NewGroup(nil)
	if !g.IsAlive() {
		t.Fatal(`new group should be alive`)
	}

	cause := errors.New(`boom`)
	if changed := g.Cancel(cause); !changed {
		t.Fatal(`expected first cancel to report changed`)
	}
	if g.IsAlive() {
		t.Fatal(`expected group cancelled`)
	}

	if changed := g.Cancel(errors.New(`other`)); changed {
		t.Fatal(`second cancel should report no change`)
	}

	failures := g.Failures()
	if len(failures) != 1 || !errors.Is(failures[0], cause) {
		t.Fatalf(`expected single recorded cause, got %v`, failures)
	}
}

func TestGroup_cancelPropagatesToDescendants(t *testing.T) {
	root := NewGroup(nil)
	child := NewGroup(root)
	grandchild := NewGroup(child)

	root.Cancel(errors.New(`root failure`))

	for name, g := range map[string]*Group{`child`: child, `grandchild`: grandchild} {
		if g.IsAlive() {
			t.Fatalf(`%s should be cancelled`, name)
		}
	}

	// the root's cause is recorded on the root only; a descendant's
	// InterruptedError collects its own subtree's causes, so it has none
	ie := grandchild.InterruptedError()
	if ie.Reason != nil {
		t.Fatal(`expected grandchild to see no local cause of its own (nil reason on itself)`)
	}
}

func TestGroup_newChildOfCancelledParentIsCancelled(t *testing.T) {
	root := NewGroup(nil)
	root.Cancel(errors.New(`already dead`))

	child := NewGroup(root)
	if child.IsAlive() {
		t.Fatal(`child of cancelled parent must be created already-cancelled`)
	}
	if root.childCount() != 0 {
		t.Fatal(`cancelled-at-birth child should never be registered with the parent`)
	}
}

func TestGroup_orphanReaping(t *testing.T) {
	root := NewGroup(nil)
	child := NewGroup(root)
	child.AddTask()

	if root.childCount() != 1 {
		t.Fatal(`expected root to retain live child`)
	}

	child.RemoveTask()

	if root.childCount() != 0 {
		t.Fatal(`expected child to be reaped once it has no tasks and no descendants`)
	}
}

func TestGroup_interruptedErrorAggregatesMultipleCauses(t *testing.T) {
	root := NewGroup(nil)
	a := NewGroup(root)
	b := NewGroup(root)

	a.Cancel(errors.New(`a failed`))
	b.Cancel(errors.New(`b failed`))
	root.Cancel(nil)

	ie := root.InterruptedError()
	var agg *AggregateFailure
	if !errors.As(ie.Reason, &agg) {
		t.Fatalf(`expected aggregate failure, got %v`, ie.Reason)
	}
	if len(agg.Causes) != 2 {
		t.Fatalf(`expected 2 causes, got %d`, len(agg.Causes))
	}
}
