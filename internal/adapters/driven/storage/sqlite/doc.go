// Package sqlite provides a SQLite-backed job ledger.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.JobStore.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The ledger records job identity, channel and state only. Document text and
// verdicts are never persisted.
//
// # Data Location
//
// By default, the database is stored at ~/.triagem/data/jobs.db
//
// # Thread Safety
//
// Transitions are a single conditional UPDATE, so concurrent processes sharing
// the database file cannot both claim the same job for dispatch.
package sqlite
