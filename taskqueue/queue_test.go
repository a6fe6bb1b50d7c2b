package taskqueue

import (
	"testing"

	"github.com/parago-go/parago/future"
)

func TestEnqueue_readyWithNoDeps(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	id, wasFirst := q.Enqueue(g, nil, 0, func() {})
	if !wasFirst {
		t.Fatal(`expected first enqueue to report wasFirstReady`)
	}
	if id == future.DummyTaskID {
		t.Fatal(`expected a real task id`)
	}

	status := q.Status()
	if status.Ready != 1 {
		t.Fatalf(`expected 1 ready, got %+v`, status)
	}
}

func TestEnqueue_priorityOrdering(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	low, _ := q.Enqueue(g, nil, 0, func() {})
	high, _ := q.Enqueue(g, nil, 10, func() {})
	mid, _ := q.Enqueue(g, nil, 5, func() {})

	first, ok := q.Dequeue()
	if !ok || first.TaskID != high {
		t.Fatalf(`expected highest priority task first, got %v`, first.TaskID)
	}
	second, ok := q.Dequeue()
	if !ok || second.TaskID != mid {
		t.Fatalf(`expected mid priority task second, got %v`, second.TaskID)
	}
	third, ok := q.Dequeue()
	if !ok || third.TaskID != low {
		t.Fatalf(`expected low priority task last, got %v`, third.TaskID)
	}
}

func TestEnqueue_fifoAmongEqualPriority(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	a, _ := q.Enqueue(g, nil, 0, func() {})
	b, _ := q.Enqueue(g, nil, 0, func() {})
	c, _ := q.Enqueue(g, nil, 0, func() {})

	for _, want := range []future.TaskID{a, b, c} {
		work, ok := q.Dequeue()
		if !ok || work.TaskID != want {
			t.Fatalf(`expected FIFO order, wanted %v got %v`, want, work.TaskID)
		}
	}
}

func TestEnqueue_dependencyBlocksUntilFinished(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	depID, _ := q.Enqueue(g, nil, 0, func() {})
	childID, wasFirst := q.Enqueue(g, []future.TaskID{depID}, 0, func() {})
	if wasFirst {
		t.Fatal(`dependent task should not be ready`)
	}

	status := q.Status()
	if status.Ready != 1 || status.Pending != 1 {
		t.Fatalf(`unexpected status: %+v`, status)
	}

	dep, ok := q.Dequeue()
	if !ok || dep.TaskID != depID {
		t.Fatalf(`expected dep to be dequeued first, got %v`, dep.TaskID)
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatal(`child should still be pending`)
	}

	q.Finish(depID)

	child, ok := q.Dequeue()
	if !ok || child.TaskID != childID {
		t.Fatalf(`expected child ready after dep finished, got %v %v`, child.TaskID, ok)
	}
}

func TestFinish_unknownID(t *testing.T) {
	q := New()
	if q.Finish(future.TaskID(999)) {
		t.Fatal(`finishing an unknown id should report false`)
	}
}

func TestExtend_appendsBodyBeforeStart(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	id, _ := q.Enqueue(g, nil, 0, func() {})
	if !q.Extend(id, func() {}) {
		t.Fatal(`expected extend to succeed on not-yet-started task`)
	}

	work, ok := q.Dequeue()
	if !ok || len(work.Bodies) != 2 {
		t.Fatalf(`expected 2 bodies, got %d`, len(work.Bodies))
	}

	if q.Extend(id, func() {}) {
		t.Fatal(`expected extend to fail once task is running`)
	}
}

func TestEnqueuePassive_andFulfillViaFinish(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	id := q.EnqueuePassive(g)
	status := q.Status()
	if status.Passive != 1 {
		t.Fatalf(`expected 1 passive, got %+v`, status)
	}
	if !q.AllPassive() {
		t.Fatal(`expected AllPassive`)
	}

	q.Finish(id)
	if q.Status() != (Status{}) {
		t.Fatalf(`expected empty status after finishing the only task, got %+v`, q.Status())
	}
}

func TestCancel_dropsReadyAndPendingButNotRunning(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	dep, _ := q.Enqueue(g, nil, 0, func() {})
	child, _ := q.Enqueue(g, []future.TaskID{dep}, 0, func() {})
	running, _ := q.Enqueue(g, nil, 0, func() {})

	work, ok := q.Dequeue()
	if !ok || work.TaskID != dep {
		t.Fatalf(`expected dep dequeued first, got %v`, work.TaskID)
	}
	// promote "running" to Running state by dequeuing it too
	runningWork, ok := q.Dequeue()
	if !ok || runningWork.TaskID != running {
		t.Fatalf(`expected running task dequeued, got %v`, runningWork.TaskID)
	}

	dropped := q.Cancel(g, nil)

	found := map[future.TaskID]bool{}
	for _, id := range dropped {
		found[id] = true
	}
	if !found[child] {
		t.Fatalf(`expected pending child to be dropped, dropped=%v`, dropped)
	}
	if found[running] {
		t.Fatal(`running task must not be dropped by Cancel`)
	}
	if found[dep] {
		t.Fatal(`already-running dep (popped above) should not be double-counted`)
	}

	status := q.Status()
	if status.Running != 2 {
		t.Fatalf(`expected both dequeued (running) tasks to remain, got %+v`, status)
	}
}

func TestCancel_idempotent(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)
	q.Enqueue(g, nil, 0, func() {})

	first := q.Cancel(g, nil)
	second := q.Cancel(g, nil)
	if len(first) != 1 {
		t.Fatalf(`expected 1 dropped, got %v`, first)
	}
	if second != nil {
		t.Fatalf(`expected no-op on second cancel, got %v`, second)
	}
}

func TestDequeueTowards_findsTransitiveReadyDependency(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)

	leaf, _ := q.Enqueue(g, nil, 0, func() {})
	mid, _ := q.Enqueue(g, []future.TaskID{leaf}, 0, func() {})
	top, _ := q.Enqueue(g, []future.TaskID{mid}, 0, func() {})

	work, ok := q.DequeueTowards([]future.TaskID{top})
	if !ok || work.TaskID != leaf {
		t.Fatalf(`expected leaf (the only ready transitive dep), got %v ok=%v`, work.TaskID, ok)
	}
}

func TestDequeueTowards_noneReady(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)
	top, _ := q.Enqueue(g, nil, 0, func() {})

	if _, ok := q.DequeueTowards([]future.TaskID{top + 1000}); ok {
		t.Fatal(`expected no ready transitive dependency for an unrelated id`)
	}
}

func TestAllPassive_falseWhenNonPassiveTaskExists(t *testing.T) {
	q := New()
	g := future.NewGroup(nil)
	q.Enqueue(g, nil, 0, func() {})
	if q.AllPassive() {
		t.Fatal(`expected AllPassive to be false with a ready task present`)
	}
}

func TestCancelAll_returnsAliveGroupsAndDrops(t *testing.T) {
	q := New()
	g1 := future.NewGroup(nil)
	g2 := future.NewGroup(nil)
	q.Enqueue(g1, nil, 0, func() {})
	q.Enqueue(g2, nil, 0, func() {})

	groups, dropped := q.CancelAll()
	if len(groups) != 2 {
		t.Fatalf(`expected 2 groups cancelled, got %d`, len(groups))
	}
	if len(dropped) != 2 {
		t.Fatalf(`expected 2 tasks dropped, got %d`, len(dropped))
	}
}
