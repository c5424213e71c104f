// Package allocator implements the assignment operations: schedule,
// get-or-assign, assign, reserve, and release. Every mutation runs inside
// the store's lock-and-atomic-write cycle, which is what upholds the
// global uniqueness invariant under concurrent callers: the critical
// section covers reading the registry, deciding the next available
// identifier or validating a conflict, and writing the new state.
//
// GetOrAssign is the sole integration point for external collaborators
// (metadata, pricing, distribution): it returns a stable identifier for a
// book key across repeated pipeline runs.
package allocator
