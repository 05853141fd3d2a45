package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, ruleset_hash, records_hash, assignment_hash, status, error_code,
	passes, valid_records, rejected_records, resolver_version, ir_version`

// LastSeq returns the highest stored seq, or 0 for an empty store.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadRun returns a run and its pairs ordered by column.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, []Pair, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}

	pairs, err := s.readPairs(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	return run, pairs, nil
}

// ListRuns returns stored runs ordered by seq ASC, id ASC COLLATE BINARY.
// limit <= 0 returns every run. Returns an empty slice (not nil) for an
// empty store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq ASC, id COLLATE BINARY ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// FindRuns returns runs over the given inputs, ordered by seq.
func (s *Store) FindRuns(ctx context.Context, ruleSetHash, recordsHash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE ruleset_hash = ? AND records_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, ruleSetHash, recordsHash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readPairs(ctx context.Context, runID string) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_index, rule_name, pass, via
		FROM assignments
		WHERE run_id = ?
		ORDER BY column_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	pairs := []Pair{}
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Column, &p.Rule, &p.Pass, &p.Via); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return pairs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.RuleSetHash,
		&r.RecordsHash,
		&r.AssignmentHash,
		&r.Status,
		&r.ErrorCode,
		&r.Passes,
		&r.ValidRecords,
		&r.RejectedRecords,
		&r.ResolverVersion,
		&r.IRVersion,
	)
	return r, err
}
