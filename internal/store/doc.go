// Package store provides SQLite-backed execution history for queries sent to
// a broker.
//
// Every execution is appended with the query's content hash, type, data
// source, outcome, request time and canonical JSON. Rows are ordered by a
// monotonically increasing seq column, never by wall time, so listings are
// stable even when the recorded clock is not.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Query hashes come from doc.Hash with the query domain, so two executions of
// the same document share a hash regardless of key order or key spelling.
package store
