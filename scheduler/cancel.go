package scheduler

import "github.com/parago-go/parago/future"

// CancelGroup cancels group and every descendant, settling the result cell
// of every dropped (ready, pending, or passive) task as Interrupted. Tasks
// already running are left to finish; they observe cancellation only if
// their body checks group.IsAlive itself.
func (p *Pool) CancelGroup(group *future.Group, reason error) {
	dropped := p.queue.Cancel(group, reason)
	if len(dropped) > 0 {
		p.resolveDropped(dropped)
		p.trace(TraceEvent{Kind: EventGroupCancelled, Dropped: len(dropped)})
		p.wake()
	}
}

// Cancel cancels the pool's root group, i.e. every task forked without an
// explicit group of its own.
func (p *Pool) Cancel(reason error) {
	p.CancelGroup(p.root, reason)
}
