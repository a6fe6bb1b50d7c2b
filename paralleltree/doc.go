// Package paralleltree turns a node-expansion function into a
// lazy-in-depth, parallel-in-breadth traversal: a root state is expanded
// into leaves and further nodes, each further node is batched through a
// compactor.Compactor and dispatched onto a scheduler.Pool, and the leaves
// are re-assembled into a single sequence, either in original child order
// or in whatever order each subtree happens to finish.
//
// See also the compactor and scheduler packages this one is built from:
// a Tree expands one level synchronously, then hands its node children to
// a Compactor (so sibling subtrees are batched instead of dispatched one
// task per node), and joins the resulting futures back together.
package paralleltree
