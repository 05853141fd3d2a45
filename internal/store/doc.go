// Package store provides SQLite-backed storage for resolver runs.
//
// Each run records the content hashes of its inputs, its outcome, and the
// pairs it committed:
//   - runs: one row per resolution attempt, ordered by seq
//   - assignments: committed (column, rule) pairs with the pass that
//     committed them
//
// UNIQUE(run_id, column_index) and UNIQUE(run_id, rule_name) make a stored
// assignment a bijection by construction.
//
// All ordering uses seq INTEGER (logical clock), NEVER timestamps. Queries
// order by seq ASC, id ASC COLLATE BINARY.
//
// Open sets journal_mode=WAL, synchronous=NORMAL, busy_timeout=5000 and
// foreign_keys=ON on the store's single connection, applies schema.sql and
// stamps PRAGMA user_version. A database from a newer fieldres is refused.
//
// Input hashes are computed via functions in internal/ir/hash.go.
package store
