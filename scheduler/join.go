package scheduler

import (
	"context"

	"github.com/parago-go/parago/future"
)

// workerKey marks a context as running inside a pool's own worker, so Join
// knows it may steal other ready work from the same pool instead of idling.
type workerKey struct{}

func withWorker(ctx context.Context, p *Pool) context.Context {
	return context.WithValue(ctx, workerKey{}, p)
}

func workerPoolFromContext(ctx context.Context) (*Pool, bool) {
	wp, ok := ctx.Value(workerKey{}).(*Pool)
	return wp, ok && wp != nil
}

// Join, JoinResults, and joinWithStealing are free functions for the same
// reason Fork is: a new result type parameter can't live on a Pool method.

// Join blocks until f resolves and returns its outcome. If ctx identifies a
// goroutine that is itself running as one of p's workers, Join participates
// in work-stealing via taskqueue.DequeueTowards instead of idling, so a
// worker blocked on a join keeps the pool busy rather than parking a slot.
func Join[T any](p *Pool, ctx context.Context, f *future.Future[T]) (T, error) {
	if wp, ok := workerPoolFromContext(ctx); ok && wp == p {
		return joinWithStealing(p, ctx, f)
	}
	return f.Cell().AwaitContext(ctx)
}

func joinWithStealing[T any](p *Pool, ctx context.Context, f *future.Future[T]) (T, error) {
	target := f.ID()
	for {
		if v, err, ok := f.Cell().Peek(); ok {
			return v, err
		}
		if ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}

		if work, ok := p.queue.DequeueTowards([]future.TaskID{target}); ok {
			p.runWork(work)
			continue
		}

		waitCtx, cancel := context.WithTimeout(ctx, p.cfg.tick)
		v, err := f.Cell().AwaitContext(waitCtx)
		cancel()
		if waitCtx.Err() == nil {
			return v, err
		}
		if ctx.Err() != nil {
			var zero T
			return zero, ctx.Err()
		}
		// only the bounded waitCtx timed out; loop around and try stealing again
	}
}

// JoinResults joins every Future in fs, in order, without raising: each
// entry in the returned slice carries its own value and error, so a failure
// in one future never discards the outcomes of the others.
func JoinResults[T any](p *Pool, ctx context.Context, fs []*future.Future[T]) []future.Outcome[T] {
	outcomes := make([]future.Outcome[T], len(fs))
	for i, f := range fs {
		v, err := Join(p, ctx, f)
		outcomes[i] = future.Outcome[T]{Value: v, Err: err}
	}
	return outcomes
}

// JoinResultsOrFirstError is the first-failure variant of JoinResults: it
// joins every Future in fs, in order, returning every value if all succeed,
// or the first error observed (in list order) as soon as it's seen.
func JoinResultsOrFirstError[T any](p *Pool, ctx context.Context, fs []*future.Future[T]) ([]T, error) {
	values := make([]T, len(fs))
	for i, f := range fs {
		v, err := Join(p, ctx, f)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
