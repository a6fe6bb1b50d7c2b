package syncell

import (
	"errors"
	"testing"
	"time"

	"github.com/parago-go/parago/future"
)

func TestCell_Value_snapshot(t *testing.T) {
	c := New(1)
	if got := c.Value(); got != 1 {
		t.Fatalf(`expected 1, got %d`, got)
	}
	Change(c, func(current int) int { return current + 1 })
	if got := c.Value(); got != 2 {
		t.Fatalf(`expected 2, got %d`, got)
	}
}

func TestChange_unconditional(t *testing.T) {
	c := New([]int{})
	for i := 0; i < 5; i++ {
		Change(c, func(current []int) []int { return append(current, i) })
	}
	got := c.Value()
	if len(got) != 5 {
		t.Fatalf(`expected 5 elements, got %v`, got)
	}
}

func TestGuardedAccess_retriesUntilSatisfiable(t *testing.T) {
	c := New(0)
	done := make(chan int, 1)

	go func() {
		// blocks until the value becomes >= 3
		result := GuardedAccess(c, func(current int) (int, int, bool) {
			if current < 3 {
				return 0, current, false
			}
			return current * 10, current, true
		})
		done <- result
	}()

	time.Sleep(10 * time.Millisecond)
	Change(c, func(current int) int { return 1 })
	Change(c, func(current int) int { return 2 })
	Change(c, func(current int) int { return 3 })

	select {
	case result := <-done:
		if result != 30 {
			t.Fatalf(`expected 30, got %d`, result)
		}
	case <-time.After(time.Second):
		t.Fatal(`GuardedAccess did not unblock`)
	}
}

func TestTimedAccess_deadlineExceeded(t *testing.T) {
	c := New(0)
	_, err := TimedAccess(c, time.Now().Add(20*time.Millisecond), func(current int) (int, int, bool) {
		return 0, current, false // never satisfiable
	})
	var unavailable *future.Unavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf(`expected *future.Unavailable, got %v`, err)
	}
}

func TestTimedAccess_succeedsBeforeDeadline(t *testing.T) {
	c := New(0)
	go func() {
		time.Sleep(5 * time.Millisecond)
		Change(c, func(current int) int { return 42 })
	}()

	result, err := TimedAccess(c, time.Now().Add(time.Second), func(current int) (int, int, bool) {
		if current == 42 {
			return current, current, true
		}
		return 0, current, false
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != 42 {
		t.Fatalf(`expected 42, got %d`, result)
	}
}
