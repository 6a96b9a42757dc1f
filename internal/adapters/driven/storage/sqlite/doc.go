// Package sqlite provides a SQLite-based implementation of the
// driven.ResultStore interface.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Runs are stored as one
// row in the runs table plus one row per driver result, with the
// source-specific payload serialised to JSON.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.prospect/data/prospect.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
