package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parago-go/parago/future"
)

func TestJoinResults_allSucceed(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	var fs []*future.Future[int]
	for i := 0; i < 5; i++ {
		i := i
		fs = append(fs, Fork(p, ctx, func(ctx context.Context) (int, error) { return i * i, nil }))
	}

	outcomes := JoinResults(p, ctx, fs)
	want := []int{0, 1, 4, 9, 16}
	for i := range want {
		if outcomes[i].Err != nil {
			t.Fatalf(`index %d: unexpected error %v`, i, outcomes[i].Err)
		}
		if outcomes[i].Value != want[i] {
			t.Fatalf(`index %d: expected %d, got %d`, i, want[i], outcomes[i].Value)
		}
	}
}

func TestJoinResults_doesNotRaiseAndKeepsEveryOutcome(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	wantErr := errors.New(`nope`)

	fs := []*future.Future[int]{
		Fork(p, ctx, func(ctx context.Context) (int, error) { return 1, nil }),
		Fork(p, ctx, func(ctx context.Context) (int, error) { return 0, wantErr }),
		Fork(p, ctx, func(ctx context.Context) (int, error) { return 3, nil }),
	}

	outcomes := JoinResults(p, ctx, fs)
	if len(outcomes) != 3 {
		t.Fatalf(`expected 3 outcomes, got %d`, len(outcomes))
	}
	if !outcomes[0].Ok() || outcomes[0].Value != 1 {
		t.Fatalf(`expected outcome 0 to be (1, nil), got %+v`, outcomes[0])
	}
	if outcomes[1].Ok() || !errors.Is(outcomes[1].Err, wantErr) {
		t.Fatalf(`expected outcome 1's error to be %v, got %+v`, wantErr, outcomes[1])
	}
	if !outcomes[2].Ok() || outcomes[2].Value != 3 {
		t.Fatalf(`expected the third future's outcome to survive the second one's failure, got %+v`, outcomes[2])
	}
}

func TestJoinResultsOrFirstError_firstErrorWins(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	wantErr := errors.New(`nope`)

	fs := []*future.Future[int]{
		Fork(p, ctx, func(ctx context.Context) (int, error) { return 1, nil }),
		Fork(p, ctx, func(ctx context.Context) (int, error) { return 0, wantErr }),
	}

	_, err := JoinResultsOrFirstError(p, ctx, fs)
	if !errors.Is(err, wantErr) {
		t.Fatalf(`expected %v, got %v`, wantErr, err)
	}
}

// TestJoin_workerStealsWhileBlocked runs a single-worker pool where a task
// joins on a dependency it never directly forked a dependency edge for;
// with only one worker, the join must itself execute the awaited task via
// DequeueTowards, or the pool would deadlock waiting on itself.
func TestJoin_workerStealsWhileBlocked(t *testing.T) {
	p := NewPool(WithTargetWorkers(func() int { return 1 }), WithTick(5*time.Millisecond))
	defer p.Shutdown()
	ctx := context.Background()

	outer := Fork(p, ctx, func(ctx context.Context) (int, error) {
		inner := Fork(p, ctx, func(ctx context.Context) (int, error) { return 99, nil })
		return Join(p, ctx, inner)
	})

	done := make(chan struct{})
	var v int
	var err error
	go func() {
		v, err = Join(p, ctx, outer)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal(`single-worker join deadlocked instead of stealing work`)
	}
	if err != nil || v != 99 {
		t.Fatalf(`expected (99, nil), got (%d, %v)`, v, err)
	}
}

func TestJoin_respectsContextCancellation(t *testing.T) {
	p := newTestPool(t)
	gate := make(chan struct{})
	f := Fork(p, context.Background(), func(ctx context.Context) (int, error) {
		<-gate
		return 1, nil
	})
	defer close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Join(p, ctx, f)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf(`expected context.DeadlineExceeded, got %v`, err)
	}
}
