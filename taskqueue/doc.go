// Package taskqueue implements the priority- and dependency-ordered queue
// of runnable, pending, running, and passive tasks that the scheduler
// dequeues from. A single mutex protects the whole structure: the
// dependency edge set, the priority order, and the inverse-dependency index
// join uses to find useful work while it waits.
package taskqueue
