package resolver

import (
	"math/rand/v2"
	"testing"

	"github.com/roach88/fieldres/internal/ir"
)

// sampleRules is the rule set whose sample records resolve to
// row -> 0, class -> 1, seat -> 2.
func sampleRules() ir.RuleSet {
	return ir.RuleSet{
		{Name: "class", First: ir.Range{Min: 0, Max: 1}, Second: ir.Range{Min: 4, Max: 19}},
		{Name: "row", First: ir.Range{Min: 0, Max: 5}, Second: ir.Range{Min: 8, Max: 19}},
		{Name: "seat", First: ir.Range{Min: 0, Max: 13}, Second: ir.Range{Min: 16, Max: 19}},
	}
}

func sampleRecords() []ir.Record {
	return []ir.Record{
		{3, 9, 18},
		{15, 1, 5},
		{5, 14, 9},
	}
}

// matrixFrom builds a matrix from per-column candidate lists.
func matrixFrom(t *testing.T, cols ...[]ir.RuleID) *CandidateMatrix {
	t.Helper()
	m := NewCandidateMatrix(len(cols))
	for c, rules := range cols {
		for _, r := range rules {
			m.Allow(c, r)
		}
	}
	return m
}

// staircase returns a matrix with a unique answer reachable only one column
// per pass: the k-th column in a random order admits its own rule plus the
// rules of every column after it.
func staircase(rng *rand.Rand, n int) (*CandidateMatrix, []ir.RuleID) {
	want := make([]ir.RuleID, n)
	for i, p := range rng.Perm(n) {
		want[i] = ir.RuleID(p)
	}
	order := rng.Perm(n)

	m := NewCandidateMatrix(n)
	for k, col := range order {
		for _, later := range order[k:] {
			m.Allow(col, want[later])
		}
	}
	return m, want
}
