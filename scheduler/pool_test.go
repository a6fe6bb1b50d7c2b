package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/parago-go/parago/internal/testutil"
)

func TestPool_shutdownDrainsWorkersAndGoroutines(t *testing.T) {
	defer testutil.CheckNumGoroutines(3 * time.Second)(t)

	p := NewPool(WithTargetWorkers(func() int { return 4 }), WithTick(5*time.Millisecond))
	ctx := context.Background()

	var fs []int
	for i := 0; i < 20; i++ {
		i := i
		f := Fork(p, ctx, func(ctx context.Context) (int, error) { return i, nil })
		v, err := Join(p, ctx, f)
		if err != nil || v != i {
			t.Fatalf(`task %d: expected (%d, nil), got (%d, %v)`, i, i, v, err)
		}
		fs = append(fs, v)
	}
	if len(fs) != 20 {
		t.Fatalf(`expected 20 results, got %d`, len(fs))
	}

	p.Shutdown()
}

func TestPool_shutdownIsIdempotent(t *testing.T) {
	p := NewPool(WithTargetWorkers(func() int { return 2 }), WithTick(5*time.Millisecond))
	p.Shutdown()
	p.Shutdown()
}

func TestPool_resizesTowardTargetWorkers(t *testing.T) {
	target := 3
	p := NewPool(WithTargetWorkers(func() int { return target }), WithTick(5*time.Millisecond))
	defer p.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		n := len(p.workers)
		p.mu.Unlock()
		if n == target {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf(`pool never resized to target worker count %d`, target)
}
