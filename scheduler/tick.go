package scheduler

import (
	"sync"
	"time"
)

// waitUntil blocks on cond until either cond is broadcast or deadline
// passes. The caller must already hold cond.L.
//
// This is the condition-variable analogue of longpoll.Channel's bounded
// partial-timeout receive: rather than a channel select with a timer case,
// a timer goroutine broadcasts the condition at the deadline so a waiter
// parked in cond.Wait wakes up to re-check regardless of whether anything
// of interest actually happened.
func waitUntil(cond *sync.Cond, deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), cond.Broadcast)
	defer timer.Stop()
	cond.Wait()
}
