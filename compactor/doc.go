// Package compactor groups a lazy stream of small thunks into batches sized
// to hit a target run time, so the scheduler pays task-dispatch overhead
// once per batch instead of once per tiny unit of work.
//
// A static Compactor always consumes a fixed number of items per group. A
// dynamic Compactor times each group it runs and adjusts the next group's
// size toward a target duration, using a shared, lock-free estimate swapped
// in through a single atomic pointer: a stale read or a lost update only
// costs one badly-sized group, never correctness.
//
// See also [github.com/joeycumines/go-microbatch], whose batch-accumulation
// shape (a pending group assembled from individual submissions, handed off
// to a bounded-concurrency runner) this package adapts from a push model
// (Submit) into a pull model (a lazily-forced iter.Seq of groups).
package compactor
