// Package prefs provides the key-value preference store used by musikremote.
//
// A Store is deliberately small: typed reads of a single key, and an atomic
// batch write. Everything richer (defaults, validation, notifications) lives
// in the settings package on top of it.
//
// # Values
//
// Preferences are typed. A Value carries one of three kinds (string, int,
// bool) and a read asks for a specific kind:
//
//	v, ok := store.Get("main_port", prefs.KindInt)
//	if !ok {
//	    // absent, or stored with a different kind
//	}
//
// A stored value whose kind differs from the requested kind is reported as
// absent rather than coerced.
//
// # Backends
//
//   - MemoryStore: maps in memory, used by tests and as a scratch store.
//   - FileStore: a YAML document (prefs.yaml) replaced atomically on every
//     commit via renameio. Watch reports writes made by other processes.
//   - SQLiteStore: a single table in a SQLite database, one transaction per
//     commit.
//
// # Atomicity
//
// CommitBatch is all-or-nothing for every backend. A reader never observes
// part of a batch: FileStore swaps its in-memory snapshot only after the
// rename succeeds, and SQLiteStore relies on the transaction.
//
// # Thread Safety
//
// All stores guard their state with a mutex and are safe for concurrent use.
package prefs
