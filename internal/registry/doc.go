// Package registry defines the in-memory aggregate the engine operates on:
// publisher blocks, identifier assignments, and the status lifecycle.
//
// The Registry is an explicit value loaded fresh for each mutating
// operation and persisted as one atomic JSON document; there is no
// process-wide singleton. Block utilization and next-available scans are
// recomputed on demand from the assignment table, which stays small
// (thousands of rows, one per identifier ever touched).
//
// Treat this package as the single source of truth for assignment
// semantics: the uniqueness invariant (no two active records share an
// identifier, at most one active record per book key) is enforced here and
// relied on by the allocator above.
package registry
