package resolver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/fieldres/internal/ir"
)

// ErrShapeMismatch is returned when a record's length differs from the
// number of rules.
var ErrShapeMismatch = errors.New("record length does not match rule count")

// Build computes the candidate matrix for rules over records.
// records must already be filtered by the validate package.
//
// Degenerate case: with zero records every rule trivially satisfies every
// column, so each candidate set is the full rule set. Resolve reports such a
// matrix as ambiguous whenever there are two or more rules; it never picks an
// arbitrary assignment.
func Build(rules ir.RuleSet, records []ir.Record) (*CandidateMatrix, error) {
	if err := checkShape(rules, records); err != nil {
		return nil, err
	}

	m := NewCandidateMatrix(len(rules))
	for c := range m.cols {
		m.cols[c] = columnCandidates(rules, records, c)
	}
	return m, nil
}

// BuildParallel is Build with one task per column, at most workers running at
// once (workers <= 0 means unlimited). Columns are independent, so the result
// equals Build's; the matrix is only returned after every column finished.
func BuildParallel(ctx context.Context, rules ir.RuleSet, records []ir.Record, workers int) (*CandidateMatrix, error) {
	if err := checkShape(rules, records); err != nil {
		return nil, err
	}

	m := NewCandidateMatrix(len(rules))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for c := range m.cols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m.cols[c] = columnCandidates(rules, records, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build candidate matrix: %w", err)
	}
	return m, nil
}

// columnCandidates returns the rules satisfied by every record's value at col.
func columnCandidates(rules ir.RuleSet, records []ir.Record, col int) bitset {
	set := newBitset(len(rules))
	for id, rule := range rules {
		fits := true
		for _, rec := range records {
			if !rule.Satisfies(rec[col]) {
				fits = false
				break
			}
		}
		if fits {
			set.set(id)
		}
	}
	return set
}

func checkShape(rules ir.RuleSet, records []ir.Record) error {
	for i, rec := range records {
		if len(rec) != len(rules) {
			return fmt.Errorf("record %d has %d values, want %d: %w", i, len(rec), len(rules), ErrShapeMismatch)
		}
	}
	return nil
}
