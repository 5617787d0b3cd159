// Package sqlite provides a SQLite-backed content store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It holds a snapshot of handbook content
// imported from another content store, so search can run offline:
//
//   - sections: one row per imported section with its table of contents
//   - documents: one row per document envelope
//
// Bodies are stored in the same JSON envelope the content service serves, so a
// snapshot decodes through the same codec as live content.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.handbook/data/content.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
