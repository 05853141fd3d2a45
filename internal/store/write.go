package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and its committed pairs in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same run
// twice leaves the first copy in place and skips its pairs.
//
// A pair set that is not injective violates the assignments UNIQUE
// constraints and rolls back the whole run.
func (s *Store) WriteRun(ctx context.Context, run Run, pairs []Pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, ruleset_hash, records_hash, assignment_hash, status, error_code,
		 passes, valid_records, rejected_records, resolver_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.RuleSetHash,
		run.RecordsHash,
		run.AssignmentHash,
		run.Status,
		run.ErrorCode,
		run.Passes,
		run.ValidRecords,
		run.RejectedRecords,
		run.ResolverVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n == 0 {
		return tx.Commit()
	}

	for _, p := range pairs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assignments (run_id, column_index, rule_name, pass, via)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, p.Column, p.Rule, p.Pass, p.Via)
		if err != nil {
			return fmt.Errorf("write run: pair (column %d, rule %q): %w", p.Column, p.Rule, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
