// Package store provides the SQLite-backed relational store underneath
// the versioned metadata engine.
//
// Three relations:
//   - metadata_aspect: aspect rows keyed by (urn, aspect, version);
//     version 0 is the mutable latest slot, versions >= 1 are immutable
//     history
//   - metadata_index: secondary index rows projecting indexed fields of
//     the latest aspect values into typed columns
//   - metadata_id: namespace-scoped numeric id allocations
//
// Concurrency relies on unique-key constraints, not locks: concurrent
// writers to the same key produce a constraint conflict that
// RunInTransactionWithRetry absorbs by re-running the whole unit of
// work. No state is shared between calls beyond the database itself.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - urn columns use COLLATE NOCASE, so key matching is
//     case-insensitive while stored text keeps its case
package store
