// Package future provides the write-once result cell, the cancellation
// Group tree, and the error taxonomy shared by the scheduler, compactor,
// and paralleltree packages.
//
// A [Cell] is assigned at most once and may be read (blocking or not) any
// number of times afterwards. A [Group] is a node in a cancellation tree:
// cancelling a group cancels every descendant, and the operation is
// monotonic and idempotent.
package future
