package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/fieldres/internal/ir"
)

// ResolvableNotes resolves to row=0, class=1, seat=2 in three passes.
const ResolvableNotes = `class: 0-1 or 4-19
row: 0-5 or 8-19
seat: 0-13 or 16-19

your ticket:
11,12,13

nearby tickets:
3,9,18
15,1,5
5,14,9
`

// ScanNotes has three invalid nearby records with a scanning error rate of 71.
const ScanNotes = `class: 1-3 or 5-7
row: 6-11 or 33-44
seat: 13-40 or 45-50

your ticket:
7,1,14

nearby tickets:
7,3,47
40,4,50
55,2,20
38,6,12
`

// AmbiguousNotes has two identical rules, so no column is ever forced.
const AmbiguousNotes = `a: 1-5 or 10-15
b: 1-5 or 10-15

your ticket:
1,2

nearby tickets:
3,4
`

// ResolvableRules are the rules of ResolvableNotes.
func ResolvableRules() ir.RuleSet {
	return ir.RuleSet{
		{Name: "class", First: ir.Range{Min: 0, Max: 1}, Second: ir.Range{Min: 4, Max: 19}},
		{Name: "row", First: ir.Range{Min: 0, Max: 5}, Second: ir.Range{Min: 8, Max: 19}},
		{Name: "seat", First: ir.Range{Min: 0, Max: 13}, Second: ir.Range{Min: 16, Max: 19}},
	}
}

// ResolvableRecords are the nearby records of ResolvableNotes.
func ResolvableRecords() []ir.Record {
	return []ir.Record{{3, 9, 18}, {15, 1, 5}, {5, 14, 9}}
}

// WriteFile writes content under t.TempDir() and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
