// Package todo holds the task collection and every operation on it.
//
// A Store owns an insertion-ordered list of tasks:
//
//	[
//	  {"id": "5f0c...", "title": "Buy milk", "description": "2%", "completed": false},
//	  {"id": "9a41...", "title": "Wash car", "completed": true}
//	]
//
// # Operations
//
//   - Create: trims the title, rejects blank titles as a no-op, appends a pending task
//   - Update: replaces title and description in place, keeping id and completion
//   - Complete: marks a task done; completing twice is a successful no-op
//   - Delete: removes a task, keeping the order of the rest
//   - List: a read-only projection by filter (all, completed, pending) and title search
//
// # Persistence
//
// Every mutation that changes the collection hands a full snapshot to the
// configured Persister while the store lock is held, so snapshots arrive in
// mutation order. The store itself never blocks on storage.
//
// # Ids
//
// Ids are UUID v4 strings. Resolve accepts an exact id or a unique prefix of
// at least MinPrefixLen characters, so interactive callers can type short ids.
package todo
