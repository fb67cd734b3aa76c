// Package database provides the SQLite-backed relational store for the
// normalized transfer equivalency dataset: Schools, GTCourses,
// ExternalCourses, and Equivalencies.
//
// # Upsert contract
//
// Persistence follows an explicit two-step contract inside one
// transaction per record: look up by unique key, insert if absent,
// compare-and-update if present. We deliberately do not lean on
// SQLite's ON CONFLICT syntax for the entity upserts so the semantics
// live in this package, not in driver-specific conflict resolution.
//
// # Concurrency
//
// SQLite supports one writer; the pool is capped at a single connection
// and WAL mode is enabled. Entity identifiers are always re-resolved
// inside the transaction that uses them, never cached across retries, so
// a concurrent writer can never make an in-process ID stale.
package database
