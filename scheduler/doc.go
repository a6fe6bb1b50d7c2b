// Package scheduler implements the control thread and elastic worker pool
// that dequeue and execute jobs, and exposes the runtime's public library
// surface: Fork, ForkIn, ForkDeps, Value, Map, Promise, Fulfill, Join,
// JoinResults, JoinResultsOrFirstError, Cancel, CancelGroup, NewGroup, and
// Shutdown.
//
// A Pool owns one taskqueue.Queue and a bounded, elastic set of worker
// goroutines. The control loop recomputes the target worker count from the
// host's available CPUs (or a caller-supplied override) roughly 20 times a
// second, growing or shrinking the pool with hysteresis so a single noisy
// tick doesn't cause it to thrash.
//
// See also [github.com/joeycumines/go-microbatch] and the longpoll package it
// superseded, whose bounded-wait-with-early-wake technique this package's
// tick loop adapts from a channel receive to a condition variable.
package scheduler
