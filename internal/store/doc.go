// Package store keeps the history of tracbench sessions in SQLite.
//
// Three tables are written once per session and never updated:
//   - sessions: one row per harness execution
//   - job_results: one row per (series, sweep position), with a SHA-256
//     digest of the output instead of the output itself
//   - comparisons: one verdict per (position, non-reference series)
//
// Writes use ON CONFLICT DO NOTHING, so saving a session twice is a no-op.
// Reads order by insertion (rowid) or position for stable output.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
