// Package testutil holds small test-only helpers shared across the
// runtime's packages.
package testutil

import (
	"runtime"
	"testing"
	"time"
)

// CheckNumGoroutines returns a function to be deferred at the very start of
// a test (after t.Helper-style setup but before anything that spawns
// goroutines), which then polls runtime.NumGoroutine until it falls back to
// at or below the count observed at the call site, failing the test if it
// hasn't within timeout.
//
// Grounded on the same defer-at-top-of-test shape microbatch_test.go uses
// throughout ("defer checkNumGoroutines(time.Second * 3)(t)"), generalized
// here into a shared helper instead of a per-package copy.
func CheckNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			if current := runtime.NumGoroutine(); current <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`leaked goroutines: started with %d, still have %d after %s`, before, runtime.NumGoroutine(), timeout)
				return
			}
			runtime.Gosched()
			time.Sleep(time.Millisecond)
		}
	}
}
