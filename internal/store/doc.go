// Package store provides SQLite-backed save slots.
//
// A slot is a named sequence of save blobs. Writing appends a new row with the
// next seq; reading returns the row with the highest seq. A bounded number of
// older rows is kept as history so a bad save can be rolled back by hand.
//
// # Critical Patterns
//
// Logical ordering:
//   - Rows are ordered by seq INTEGER, never by saved_at
//   - saved_at is informational only
//
// Integrity:
//   - Each row stores the SHA-256 digest of its blob
//   - A digest mismatch on read is reported as an error, not silently served
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5 seconds for locks
//   - foreign_keys=ON: Enforce referential integrity
//   - MaxOpenConns=1: Single writer
package store
