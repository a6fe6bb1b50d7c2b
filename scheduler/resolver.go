package scheduler

import "github.com/parago-go/parago/future"

// cellResolver lets the pool settle a result cell of any type T when its
// owning task is dropped by cancellation, without the pool itself being
// generic.
type cellResolver interface {
	resolveDropped(err error)
}

// typedResolver binds a cellResolver to a concrete *future.Cell[T].
type typedResolver[T any] struct{ cell *future.Cell[T] }

func (r typedResolver[T]) resolveDropped(err error) {
	var zero T
	_ = r.cell.Assign(zero, err) // already-assigned cells (finished before the drop raced in) are left alone
}

// newResolver returns a cellResolver for cell.
func newResolver[T any](cell *future.Cell[T]) cellResolver {
	return typedResolver[T]{cell: cell}
}

// resolverEntry tracks every cell still waiting on a given task, plus the
// group that task belongs to (needed to build the Interrupted error once
// the task is dropped).
type resolverEntry struct {
	group     *future.Group
	resolvers []cellResolver
}

// addResolver registers r to be resolved (with an Interrupted error built
// from group) if task id is ever dropped by cancellation instead of
// finishing normally.
func (p *Pool) addResolver(id future.TaskID, group *future.Group, r cellResolver) {
	p.mu.Lock()
	e := p.resolvers[id]
	if e == nil {
		e = &resolverEntry{group: group}
		p.resolvers[id] = e
	}
	e.resolvers = append(e.resolvers, r)
	p.mu.Unlock()
}

// removeResolvers discards any pending resolvers for id, called once a task
// finishes normally (its body already assigned every cell it owns).
func (p *Pool) removeResolvers(id future.TaskID) {
	p.mu.Lock()
	delete(p.resolvers, id)
	p.mu.Unlock()
}

// resolveDropped settles every cell registered against each of ids with an
// Interrupted error sourced from that task's group, and removes one task
// reference from the group (mirroring the task having nominally run to
// completion as far as orphan reaping is concerned).
func (p *Pool) resolveDropped(ids []future.TaskID) {
	for _, id := range ids {
		p.mu.Lock()
		e := p.resolvers[id]
		delete(p.resolvers, id)
		p.mu.Unlock()
		if e == nil {
			continue
		}
		ie := e.group.InterruptedError()
		for _, r := range e.resolvers {
			r.resolveDropped(ie)
		}
		e.group.RemoveTask()
	}
}
