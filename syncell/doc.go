// Package syncell provides Cell, a monotonic, condition-variable-backed
// mutable cell with a guarded transactional update contract. It replaces
// ad-hoc locking with a small, explicit protocol: the read path stays fast
// and unsynchronized where that is safe, the write path is serialized by a
// single mutex, and waiters are woken only on an actual state transition.
package syncell
