package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(t.Context(), path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a resolved run with minimal required fields.
func createTestRun(id string, seq int64) Run {
	return Run{
		ID:              id,
		Seq:             seq,
		RuleSetHash:     "ruleset-hash",
		RecordsHash:     "records-hash",
		AssignmentHash:  "assignment-hash",
		Status:          StatusResolved,
		Passes:          3,
		ValidRecords:    3,
		RejectedRecords: 0,
		ResolverVersion: "0.1.0",
		IRVersion:       "1",
	}
}

func samplePairs() []Pair {
	return []Pair{
		{Column: 2, Rule: "seat", Pass: 1, Via: "column"},
		{Column: 1, Rule: "class", Pass: 2, Via: "column"},
		{Column: 0, Rule: "row", Pass: 3, Via: "column"},
	}
}
