package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCell_Peek_unassigned(t *testing.T) {
	c := NewCell[int](`test`)
	if _, _, ok := c.Peek(); ok {
		t.Fatal(`expected not ok`)
	}
	if c.Finished() {
		t.Fatal(`expected not finished`)
	}
}

func TestCell_Assign_onceOnly(t *testing.T) {
	c := NewCell[int](`test`)
	if err := c.Assign(42, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Assign(43, nil); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf(`expected ErrAlreadyAssigned, got %v`, err)
	}

	v, err, ok := c.Peek()
	if !ok || v != 42 || err != nil {
		t.Fatalf(`unexpected peek result: %v %v %v`, v, err, ok)
	}
}

func TestCell_Assign_idempotentUnderRace(t *testing.T) {
	c := NewCell[int](`race`)
	const n = 64
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() { errs <- c.Assign(i, nil) }()
	}
	var nilCount int
	for i := 0; i < n; i++ {
		if err := <-errs; err == nil {
			nilCount++
		}
	}
	if nilCount != 1 {
		t.Fatalf(`expected exactly one successful assign, got %d`, nilCount)
	}
}

func TestCell_Await_blocksUntilAssigned(t *testing.T) {
	c := NewCell[string](`await`)
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Await()
		if err != nil || v != `value` {
			t.Errorf(`unexpected await result: %v %v`, v, err)
		}
	}()

	select {
	case <-done:
		t.Fatal(`await returned before assignment`)
	case <-time.After(20 * time.Millisecond):
	}

	if err := c.Assign(`value`, nil); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal(`await did not unblock after assign`)
	}
}

func TestCell_AwaitContext_cancel(t *testing.T) {
	c := NewCell[int](`ctx`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.AwaitContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf(`expected context.Canceled, got %v`, err)
	}
}

func TestCell_AwaitContext_resolvesBeforeCancel(t *testing.T) {
	c := NewCell[int](`ctx2`)
	if err := c.Assign(7, nil); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := c.AwaitContext(ctx)
	if err != nil || v != 7 {
		t.Fatalf(`unexpected result: %v %v`, v, err)
	}
}

func TestCell_Assign_carriesError(t *testing.T) {
	c := NewCell[int](`err`)
	sentinel := errors.New(`boom`)
	if err := c.Assign(0, sentinel); err != nil {
		t.Fatal(err)
	}
	_, err := c.Await()
	if !errors.Is(err, sentinel) {
		t.Fatalf(`expected sentinel error, got %v`, err)
	}
}
