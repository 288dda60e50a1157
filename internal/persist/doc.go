// Package persist keeps a kv.Store in sync with the task collection.
//
// At startup Hydrate reads the stored value once. Anything that cannot be
// read, parsed, or validated against TasksSchema and the collection
// invariants is logged and replaced by an empty collection, so startup
// never fails on bad data.
//
// After hydration the Bridge acts as a todo.Persister. Persist encodes the
// snapshot and returns at once; a single writer goroutine stores snapshots
// in the order they were handed over, keeping only the newest one when it
// falls behind. Write failures are logged and counted but never reach the
// caller. Flush and Close wait for outstanding writes.
package persist
