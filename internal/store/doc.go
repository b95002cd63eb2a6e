// Package store provides SQLite-backed durable storage for the record
// action log.
//
// The store implements an append-only log with:
//   - Records: identity rows fixed at creation (ID, type, tracking ID)
//   - Actions: one row per accepted lifecycle action
//   - Record state: a projection of current status/assignee/flags for
//     workqueue queries
//
// # Critical Patterns
//
// Transaction-level idempotency
//   - UNIQUE(transaction_key) constraint on actions
//   - A retried submission inserts nothing and reports inserted=false
//
// Logical identity and time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic query results
//   - History queries ORDER BY seq ASC
//   - State queries ORDER BY updated_at DESC, record_id ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All content-addressed IDs are computed via functions in internal/record
// using RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
