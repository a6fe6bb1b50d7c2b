package taskqueue

import (
	"container/heap"
	"sync"

	"github.com/parago-go/parago/future"
)

// State is the lifecycle state of a non-finished task.
type State int

const (
	// Ready tasks have every dependency finished and no priority blocker.
	Ready State = iota
	// Pending tasks are waiting on at least one unfinished dependency.
	Pending
	// Running tasks have been handed to a worker.
	Running
	// Passive tasks have no body; they await an external Fulfill.
	Passive
)

// Work describes a dequeued task: its id, owning group, and the bodies
// accumulated for it (more than one only when Extend's fast-path map
// appended continuations onto a not-yet-started task).
type Work struct {
	TaskID future.TaskID
	Group  *future.Group
	Bodies []func()
}

// Status reports queue-wide counts by state.
type Status struct {
	Ready, Pending, Running, Passive int
}

type entry struct {
	id         future.TaskID
	group      *future.Group
	priority   int
	state      State
	deps       map[future.TaskID]struct{}
	dependents map[future.TaskID]struct{}
	bodies     []func()
	heapIndex  int
}

// Queue is a priority+dependency queue of tasks grouped by cancellation
// group. The zero value is not usable; construct with New or NewShared.
//
// The queue's mutator methods all acquire mu. Per the runtime's single-lock
// discipline (the worker pool's own list and pool-sizing variables are
// protected by this same mutex, not a second one), mu is a pointer so the
// scheduler package can share its own lock with the queue instead of
// layering two locks over what is, operationally, one critical section.
type Queue struct {
	mu    *sync.Mutex
	tasks map[future.TaskID]*entry
	ready readyHeap
}

// New creates an empty Queue with its own private mutex.
func New() *Queue {
	return NewShared(new(sync.Mutex))
}

// NewShared creates an empty Queue using the given mutex instead of an
// internal one, so a caller (the scheduler) can fold the queue's critical
// section into its own.
func NewShared(mu *sync.Mutex) *Queue {
	return &Queue{mu: mu, tasks: make(map[future.TaskID]*entry)}
}

// Mutex exposes the queue's lock, so the scheduler can share it for its own
// worker-list and pool-sizing state, and for a condition variable used to
// wake workers on new ready work.
func (q *Queue) Mutex() *sync.Mutex { return q.mu }

// Enqueue adds a new task under group, depending on deps (any dep already
// finished — i.e., absent from the queue — is silently ignored), at the
// given priority, with body as its initial executable body. It returns the
// new task's id and whether the task became the sole ready task (i.e., the
// queue was otherwise empty of ready work), which callers use to decide
// whether to wake a sleeping worker.
//
// Enqueue assumes group is alive; per Fork's contract (spec.md §4.4), group
// liveness is checked by the caller before a task is ever handed to the
// queue, so a cancelled-group short-circuit never needs to be represented
// here.
func (q *Queue) Enqueue(group *future.Group, deps []future.TaskID, priority int, body func()) (future.TaskID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := future.NextTaskID()
	e := &entry{
		id:         id,
		group:      group,
		priority:   priority,
		bodies:     []func(){body},
		deps:       make(map[future.TaskID]struct{}),
		dependents: make(map[future.TaskID]struct{}),
		heapIndex:  -1,
	}
	for _, d := range deps {
		if dep, ok := q.tasks[d]; ok {
			dep.dependents[id] = struct{}{}
			e.deps[d] = struct{}{}
		}
	}
	q.tasks[id] = e

	if len(e.deps) == 0 {
		e.state = Ready
		wasFirstReady := len(q.ready) == 0
		heap.Push(&q.ready, e)
		return id, wasFirstReady
	}
	e.state = Pending
	return id, false
}

// EnqueuePassive registers a passive task (no body, no dependencies) under
// group, to be resolved later by Fulfill via the scheduler.
func (q *Queue) EnqueuePassive(group *future.Group) future.TaskID {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := future.NextTaskID()
	q.tasks[id] = &entry{
		id:         id,
		group:      group,
		state:      Passive,
		deps:       make(map[future.TaskID]struct{}),
		dependents: make(map[future.TaskID]struct{}),
		heapIndex:  -1,
	}
	return id
}

// Extend appends a continuation body to an already-queued, not-yet-started
// task, reporting whether it did so. It fails (returns false) once the task
// has started running or no longer exists, in which case the caller must
// fall back to forking a normal dependent task.
func (q *Queue) Extend(id future.TaskID, body func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.tasks[id]
	if !ok || e.state == Running {
		return false
	}
	e.bodies = append(e.bodies, body)
	return true
}

// Dequeue pops the highest-priority ready task whose group is still alive.
// Entries whose group died without going through Cancel (which sweeps them
// proactively) are skipped defensively and cleaned up in passing.
func (q *Queue) Dequeue() (Work, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.ready) > 0 {
		e := heap.Pop(&q.ready).(*entry)
		if !e.group.IsAlive() {
			q.finishLocked(e)
			continue
		}
		e.state = Running
		return Work{TaskID: e.id, Group: e.group, Bodies: e.bodies}, true
	}
	return Work{}, false
}

// DequeueTowards picks a ready task that is a transitive dependency of deps
// — i.e. reachable by following deps' own dependency edges — preferring the
// one closest to deps (shallowest in the dependency graph, a proxy for
// "on the critical path"). It is used by a blocked join to find useful work
// instead of idling.
func (q *Queue) DequeueTowards(deps []future.TaskID) (Work, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	visited := make(map[future.TaskID]bool, len(deps))
	frontier := make([]future.TaskID, 0, len(deps))
	for _, d := range deps {
		if !visited[d] {
			visited[d] = true
			frontier = append(frontier, d)
		}
	}

	var candidates []*entry
	for len(frontier) > 0 && candidates == nil {
		var next []future.TaskID
		for _, id := range frontier {
			e, ok := q.tasks[id]
			if !ok {
				continue // already finished
			}
			if e.state == Ready && e.group.IsAlive() {
				candidates = append(candidates, e)
			}
			for dep := range e.deps {
				if !visited[dep] {
					visited[dep] = true
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}

	if len(candidates) == 0 {
		return Work{}, false
	}

	// among the shallowest ready candidates, prefer higher priority then FIFO
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.priority > best.priority || (c.priority == best.priority && c.id < best.id) {
			best = c
		}
	}

	q.removeFromReadyLocked(best)
	best.state = Running
	return Work{TaskID: best.id, Group: best.group, Bodies: best.bodies}, true
}

// Finish removes task id and its outgoing edges, waking any dependent whose
// last remaining dependency this was. It reports whether the ready set was
// empty immediately prior to removal — a signal callers use to decide
// whether newly-readied dependents warrant waking a sleeping worker.
func (q *Queue) Finish(id future.TaskID) (wasMaximal bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.tasks[id]
	if !ok {
		return false
	}
	wasMaximal = len(q.ready) == 0
	q.finishLocked(e)
	return wasMaximal
}

func (q *Queue) finishLocked(e *entry) {
	if e.state == Ready {
		q.removeFromReadyLocked(e)
	}
	delete(q.tasks, e.id)
	for depID := range e.dependents {
		dep, ok := q.tasks[depID]
		if !ok {
			continue
		}
		delete(dep.deps, e.id)
		if len(dep.deps) == 0 && dep.state == Pending {
			dep.state = Ready
			heap.Push(&q.ready, dep)
		}
	}
}

// Cancel marks group (and its descendants) cancelled, then sweeps every
// non-running task belonging to a now-dead group out of the queue,
// returning their ids so the caller can resolve their result cells as
// Interrupted. Running tasks are left in place; they observe cancellation
// cooperatively.
func (q *Queue) Cancel(group *future.Group, reason error) []future.TaskID {
	if changed := group.Cancel(reason); !changed {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sweepDeadLocked()
}

func (q *Queue) sweepDeadLocked() []future.TaskID {
	var dropped []future.TaskID
	for id, e := range q.tasks {
		if e.state == Running {
			continue
		}
		if !e.group.IsAlive() {
			dropped = append(dropped, id)
			q.finishLocked(e)
		}
	}
	return dropped
}

// CancelAll cancels every group currently represented in the queue,
// returning the groups that were alive (and hence actually cancelled) and
// the ids dropped as a result. It is used by Shutdown.
func (q *Queue) CancelAll() (groups []*future.Group, dropped []future.TaskID) {
	q.mu.Lock()
	seen := make(map[future.GroupID]*future.Group)
	for _, e := range q.tasks {
		if e.group.IsAlive() {
			seen[e.group.ID()] = e.group
		}
	}
	q.mu.Unlock()

	for _, g := range seen {
		g.Cancel(nil)
		groups = append(groups, g)
	}

	q.mu.Lock()
	dropped = q.sweepDeadLocked()
	q.mu.Unlock()
	return groups, dropped
}

// Depend inserts dependency edges for a join-initiated wait: task id will
// not be considered finished-and-available-for-reuse semantics change, but
// practically Depend is used to register that a blocked join cares about
// deps, for DequeueTowards's benefit; it also genuinely blocks id (moving it
// from ready back to pending) if any of deps has not finished.
func (q *Queue) Depend(id future.TaskID, deps []future.TaskID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.tasks[id]
	if !ok || e.state == Running {
		return false
	}

	added := false
	for _, d := range deps {
		if d == id {
			continue
		}
		if dep, ok := q.tasks[d]; ok {
			if _, already := e.deps[d]; !already {
				e.deps[d] = struct{}{}
				dep.dependents[id] = struct{}{}
				added = true
			}
		}
	}
	if added && e.state == Ready {
		q.removeFromReadyLocked(e)
		e.state = Pending
	}
	return true
}

// Status reports current counts by state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	var s Status
	for _, e := range q.tasks {
		switch e.state {
		case Ready:
			s.Ready++
		case Pending:
			s.Pending++
		case Running:
			s.Running++
		case Passive:
			s.Passive++
		}
	}
	return s
}

// AllPassive reports whether every remaining (non-finished) task is
// passive — the condition under which the scheduler may shut down.
func (q *Queue) AllPassive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.tasks {
		if e.state != Passive {
			return false
		}
	}
	return true
}

func (q *Queue) removeFromReadyLocked(e *entry) {
	if e.heapIndex >= 0 {
		heap.Remove(&q.ready, e.heapIndex)
	}
}

// readyHeap orders entries by priority (descending), then task id
// (ascending) for FIFO among equal priorities.
type readyHeap []*entry

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].id < h[j].id
}

func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *readyHeap) Push(x any) {
	e := x.(*entry)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIndex = -1
	*h = old[:n-1]
	return e
}
