// Package store provides SQLite-backed durable storage for generation runs.
//
// Each recorded run captures the profile, header, and output digests of one
// generation execution. Later invocations compare fresh digests against the
// latest recorded run to detect drift without re-reading the old output.
//
// Ordering rules:
//   - Runs are ordered by seq INTEGER (a store-assigned logical clock),
//     NEVER by timestamps. created_at is display-only.
//   - All list queries include: ORDER BY seq ASC, id COLLATE BINARY ASC.
//     Identical databases therefore always list runs identically.
//
// Writes are idempotent: re-recording an existing run ID leaves the stored
// record unchanged and returns it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run digests are computed by internal/ir using RFC 8785 canonical JSON and
// SHA-256 with domain separation.
package store
