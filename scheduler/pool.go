package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/parago-go/parago/future"
	"github.com/parago-go/parago/taskqueue"
)

// trendThreshold is how many consecutive ticks of sustained demand
// imbalance the control loop requires before it resizes the pool, so a
// single noisy tick doesn't cause it to thrash.
const trendThreshold = 50

// Pool is the runtime's elastic worker pool and control thread. The zero
// value is not usable; construct with NewPool.
type Pool struct {
	cfg config

	mu        *sync.Mutex
	cond      *sync.Cond
	queue     *taskqueue.Queue
	root      *future.Group
	resolvers map[future.TaskID]*resolverEntry

	sem          *semaphore.Weighted
	workers      map[int]*workerHandle
	nextWorkerID int
	trend        int

	shutdownRequested bool
	wg                sync.WaitGroup
	controlDone       chan struct{}
}

type workerHandle struct {
	id     int
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool constructs a Pool and starts its control loop. Callers should
// call Shutdown when finished, to stop the control loop and every worker.
func NewPool(opts ...Option) *Pool {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	mu := new(sync.Mutex)
	initial := max(1, cfg.targetWorkers())
	p := &Pool{
		cfg:         cfg,
		mu:          mu,
		cond:        sync.NewCond(mu),
		queue:       taskqueue.NewShared(mu),
		root:        future.NewGroup(nil),
		resolvers:   make(map[future.TaskID]*resolverEntry),
		sem:         semaphore.NewWeighted(int64(initial)),
		workers:     make(map[int]*workerHandle),
		controlDone: make(chan struct{}),
	}
	p.mu.Lock()
	p.spawnWorkersLocked(initial)
	p.mu.Unlock()

	go p.controlLoop()
	return p
}

// Root returns the pool's root cancellation group, the implicit ancestor of
// every group created without an explicit parent.
func (p *Pool) Root() *future.Group { return p.root }

// wake broadcasts the pool's condition variable, waking any worker or
// control-loop iteration currently waiting on it.
func (p *Pool) wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pool) trace(e TraceEvent) { p.cfg.tracer.Trace(e) }

func (p *Pool) controlLoop() {
	defer close(p.controlDone)
	for {
		status := p.queue.Status()
		allIdle := status.Ready == 0 && status.Pending == 0 && status.Running == 0

		p.mu.Lock()
		target := p.currentTargetLocked()
		demand := status.Ready + status.Pending
		current := len(p.workers)
		p.updateTrendLocked(demand, current)
		if abs(p.trend) > trendThreshold || (demand == 0 && current != target) {
			p.resizeLocked(target)
			p.trend = 0
		}
		shutdownRequested := p.shutdownRequested
		workersLeft := len(p.workers)
		p.mu.Unlock()

		if shutdownRequested && allIdle && workersLeft == 0 {
			p.trace(TraceEvent{Kind: EventShutdown, Message: "control loop quiesced"})
			return
		}

		p.mu.Lock()
		waitUntil(p.cond, time.Now().Add(p.cfg.tick))
		p.mu.Unlock()
	}
}

func (p *Pool) currentTargetLocked() int {
	if p.shutdownRequested {
		return 0
	}
	return max(1, p.cfg.targetWorkers())
}

func (p *Pool) updateTrendLocked(demand, current int) {
	switch {
	case demand > current:
		p.trend++
	case demand < current:
		p.trend--
	default:
		p.trend = 0
	}
}

func (p *Pool) resizeLocked(target int) {
	current := len(p.workers)
	switch {
	case current < target:
		p.spawnWorkersLocked(target - current)
	case current > target:
		p.stopWorkersLocked(current - target)
	default:
		return
	}
	p.sem = semaphore.NewWeighted(int64(max(1, target)))
	p.trace(TraceEvent{Kind: EventPoolResize, Workers: target})
}

func (p *Pool) spawnWorkersLocked(n int) {
	for i := 0; i < n; i++ {
		id := p.nextWorkerID
		p.nextWorkerID++
		ctx, cancel := context.WithCancel(context.Background())
		h := &workerHandle{id: id, ctx: ctx, cancel: cancel}
		p.workers[id] = h
		p.wg.Add(1)
		go p.workerLoop(h)
	}
}

func (p *Pool) stopWorkersLocked(n int) {
	i := 0
	for id, h := range p.workers {
		if i >= n {
			break
		}
		h.cancel()
		delete(p.workers, id)
		i++
	}
}

// workerLoop acquires a pool slot, dequeues and runs a task, and repeats
// until h's context is cancelled (by stopWorkersLocked shrinking the pool,
// or Shutdown). The semaphore is re-read from the pool each iteration
// rather than captured once, so a resize mid-loop only affects the next
// acquire; a worker mid-task keeps the weight it already acquired.
func (p *Pool) workerLoop(h *workerHandle) {
	defer p.wg.Done()
	for {
		if h.ctx.Err() != nil {
			return
		}

		p.mu.Lock()
		sem := p.sem
		p.mu.Unlock()

		if err := sem.Acquire(h.ctx, 1); err != nil {
			return
		}

		work, ok := p.queue.Dequeue()
		if !ok {
			sem.Release(1)
			p.mu.Lock()
			if h.ctx.Err() != nil {
				p.mu.Unlock()
				return
			}
			waitUntil(p.cond, time.Now().Add(p.cfg.tick))
			p.mu.Unlock()
			continue
		}

		p.runWork(work)
		sem.Release(1)
	}
}

func (p *Pool) runWork(work taskqueue.Work) {
	defer func() {
		var panicErr error
		if r := recover(); r != nil {
			p.trace(TraceEvent{Kind: EventWorkerPanic, Message: fmt.Sprint(r)})
			panicErr = &future.UserFailure{Cause: panicToError(r)}
		}
		p.queue.Finish(work.TaskID)
		if panicErr != nil {
			// settle every cell of the task that its bodies did not reach
			p.mu.Lock()
			e := p.resolvers[work.TaskID]
			p.mu.Unlock()
			if e != nil {
				for _, r := range e.resolvers {
					r.resolveDropped(panicErr)
				}
			}
		}
		p.removeResolvers(work.TaskID)
		work.Group.RemoveTask()
		p.wake()
	}()

	for _, body := range work.Bodies {
		body()
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
