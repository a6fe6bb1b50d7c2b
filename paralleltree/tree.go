package paralleltree

import (
	"context"
	"iter"
	"sync"

	"github.com/parago-go/parago/compactor"
	"github.com/parago-go/parago/future"
	"github.com/parago-go/parago/scheduler"
)

// Tree drives a lazy-in-depth, parallel-in-breadth traversal of an
// S-state tree, through a Compactor that batches Node children and a
// scheduler.Pool that runs the batches.
type Tree[S, L any] struct {
	cfg  config
	pool *scheduler.Pool
}

// New builds a Tree bound to pool.
func New[S, L any](pool *scheduler.Pool, opts ...Option) *Tree[S, L] {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Tree[S, L]{cfg: cfg, pool: pool}
}

func (t *Tree[S, L]) trace(kind EventKind, children int) {
	t.cfg.tracer.Trace(Event{Kind: kind, Children: children})
}

// Compute expands root via expand, returning the flat sequence of leaves
// reachable from it. Nothing is expanded until the returned sequence is
// pulled.
func (t *Tree[S, L]) Compute(ctx context.Context, root S, expand ExpandFunc[S, L]) iter.Seq[Result[L]] {
	ctx, group := t.childGroup(ctx, t.pool.Root())
	return t.expandNode(ctx, group, root, expand)
}

// childGroup either creates a fresh child group of group (the default,
// isolating a subtree's failure to its own cancellation fate) or, when
// configured with WithNoGroups, returns group and ctx unchanged so every
// node in the traversal shares one group.
func (t *Tree[S, L]) childGroup(ctx context.Context, group *future.Group) (context.Context, *future.Group) {
	if t.cfg.noGroups {
		return ctx, group
	}
	return t.pool.NewGroup(ctx)
}

func (t *Tree[S, L]) expandNode(ctx context.Context, group *future.Group, s S, expand ExpandFunc[S, L]) iter.Seq[Result[L]] {
	return func(yield func(Result[L]) bool) {
		t.trace(EventExpanding, 0)
		children, err := expand(s)
		if err != nil {
			t.pool.CancelGroup(group, err)
			t.trace(EventCancelled, 0)
			yield(Result[L]{Err: err})
			return
		}
		if len(children) == 0 {
			t.trace(EventYielded, 0)
			return
		}
		t.trace(EventDispatched, len(children))

		if t.cfg.orderMatters {
			t.emitOrdered(ctx, group, children, expand, yield)
		} else {
			t.emitUnordered(ctx, group, children, expand, yield)
		}
	}
}

// splitNodeStates separates leaves from node children, applying the
// configured node limit: at most nodeLimit node children are dispatched
// through the compactor/scheduler in parallel; any remainder is returned
// separately, to be folded in directly by the caller instead of forked.
func (t *Tree[S, L]) splitNodeStates(children []Child[S, L]) (parallel []S, overflow []S) {
	for _, c := range children {
		if c.isLeaf {
			continue
		}
		if t.cfg.nodeLimit > 0 && len(parallel) >= t.cfg.nodeLimit {
			overflow = append(overflow, c.node)
			continue
		}
		parallel = append(parallel, c.node)
	}
	return parallel, overflow
}

// compactedGroups batches nodeStates through a fresh Compactor whose fold
// recursively drains each node's own subtree via a child group. The
// accumulator is one []Result[L] entry per folded node (not a flat
// concatenation of leaves): a node's subtree may contribute any number of
// leaves, and ordered emission needs to know where one node's contribution
// ends and the next begins.
func (t *Tree[S, L]) compactedGroups(ctx context.Context, group *future.Group, expand ExpandFunc[S, L], nodeStates []S) iter.Seq[compactor.Group[[][]Result[L]]] {
	zero := func() [][]Result[L] { return nil }
	fold := func(acc [][]Result[L], s S) ([][]Result[L], error) {
		entry, err := t.drainNode(ctx, group, s, expand)
		acc = append(acc, entry)
		return acc, err
	}
	return compactor.CompactSlice(nodeStates, zero, fold, t.cfg.compactorOpts...)
}

// drainNode fully forces one node's subtree into a single []Result[L],
// stopping at the first failure (included as the entry's last element).
func (t *Tree[S, L]) drainNode(ctx context.Context, group *future.Group, s S, expand ExpandFunc[S, L]) ([]Result[L], error) {
	childCtx, childGroup := t.childGroup(ctx, group)
	var entry []Result[L]
	for r := range t.expandNode(childCtx, childGroup, s, expand) {
		entry = append(entry, r)
		if r.Err != nil {
			return entry, r.Err
		}
	}
	return entry, nil
}

// forkGroups forks one scheduler task per compacted batch, in order.
func (t *Tree[S, L]) forkGroups(ctx context.Context, seq iter.Seq[compactor.Group[[][]Result[L]]]) []*future.Future[[][]Result[L]] {
	var futures []*future.Future[[][]Result[L]]
	for g := range seq {
		g := g
		futures = append(futures, scheduler.Fork(t.pool, ctx, func(ctx context.Context) ([][]Result[L], error) {
			return g.Run()
		}))
	}
	return futures
}

// emitOrdered walks children in their original position order, yielding
// leaves immediately and, for each node child, pulling the next whole
// per-node entry (however many leaves it holds) from whichever parallel
// batch or overflow result covers it. Node children are consumed in the
// same order they were handed to the compactor, so the first
// not-yet-drained future always covers the next node child in line.
func (t *Tree[S, L]) emitOrdered(ctx context.Context, group *future.Group, children []Child[S, L], expand ExpandFunc[S, L], yield func(Result[L]) bool) {
	parallel, overflow := t.splitNodeStates(children)
	futures := t.forkGroups(ctx, t.compactedGroups(ctx, group, expand, parallel))
	overflowEntries := t.foldOverflowEntries(ctx, group, expand, overflow)

	fi, oi := 0, 0
	var entryQueue [][]Result[L]
	for _, c := range children {
		if c.isLeaf {
			if !yield(Result[L]{Leaf: c.leaf}) {
				return
			}
			continue
		}

		for len(entryQueue) == 0 && fi < len(futures) {
			v, err := scheduler.Join(t.pool, ctx, futures[fi])
			fi++
			entryQueue = v
			if err != nil {
				entryQueue = append(entryQueue, []Result[L]{{Err: err}})
			}
		}

		var entry []Result[L]
		switch {
		case len(entryQueue) > 0:
			entry, entryQueue = entryQueue[0], entryQueue[1:]
		case oi < len(overflowEntries):
			entry, oi = overflowEntries[oi], oi+1
		default:
			return
		}

		for _, r := range entry {
			if !yield(r) {
				return
			}
			if r.Err != nil {
				return
			}
		}
	}
}

// foldOverflowEntries sequentially drains every overflow node, one entry
// per node, stopping (without draining the rest) at the first failure.
func (t *Tree[S, L]) foldOverflowEntries(ctx context.Context, group *future.Group, expand ExpandFunc[S, L], overflow []S) [][]Result[L] {
	var out [][]Result[L]
	for _, s := range overflow {
		entry, err := t.drainNode(ctx, group, s, expand)
		out = append(out, entry)
		if err != nil {
			break
		}
	}
	return out
}

func (t *Tree[S, L]) emitUnordered(ctx context.Context, group *future.Group, children []Child[S, L], expand ExpandFunc[S, L], yield func(Result[L]) bool) {
	parallel, overflow := t.splitNodeStates(children)

	for _, c := range children {
		if c.isLeaf {
			if !yield(Result[L]{Leaf: c.leaf}) {
				return
			}
		}
	}

	for _, entry := range t.foldOverflowEntries(ctx, group, expand, overflow) {
		for _, r := range entry {
			if !yield(r) {
				return
			}
			if r.Err != nil {
				return
			}
		}
	}

	futures := t.forkGroups(ctx, t.compactedGroups(ctx, group, expand, parallel))
	if len(futures) == 0 {
		return
	}

	results := make(chan Result[L])
	done := make(chan struct{})
	defer close(done)

	var wg sync.WaitGroup
	for _, f := range futures {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := scheduler.Join(t.pool, ctx, f)
			if err != nil {
				v = append(v, []Result[L]{{Err: err}})
			}
			for _, entry := range v {
				for _, r := range entry {
					select {
					case results <- r:
					case <-done:
						return
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if !yield(r) {
			return
		}
		if r.Err != nil {
			return
		}
	}
}
