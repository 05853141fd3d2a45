package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/store"
	"github.com/roach88/fieldres/internal/testutil"
)

// recordRuns resolves each notes text once against db.
func recordRuns(t *testing.T, db string, texts ...string) {
	t.Helper()
	for i, text := range texts {
		path := testutil.WriteFile(t, "notes.txt", text)
		_, err := executeCommand(t, "resolve", "--db", db, path)
		if err != nil && GetExitCode(err) != ExitFailure {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
}

func TestHistoryCommandList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, testutil.ResolvableNotes, testutil.AmbiguousNotes)

	out, err := executeCommand(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)

	resp := decodeResponse[[]store.Run](t, out)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(1), resp.Data[0].Seq)
	assert.Equal(t, store.StatusResolved, resp.Data[0].Status)
	assert.Equal(t, store.StatusAmbiguous, resp.Data[1].Status)
	assert.Equal(t, "AMBIGUOUS", resp.Data[1].ErrorCode)
	assert.Empty(t, resp.Data[1].AssignmentHash)

	out, err = executeCommand(t, "history", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, store.StatusResolved)
	assert.NotContains(t, out, store.StatusAmbiguous)
}

func TestHistoryCommandShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, testutil.ResolvableNotes)

	out, err := executeCommand(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	runs := decodeResponse[[]store.Run](t, out).Data
	require.Len(t, runs, 1)

	out, err = executeCommand(t, "--format", "json", "history", "--db", db, runs[0].ID)
	require.NoError(t, err)

	report := decodeResponse[RunReport](t, out).Data
	assert.Equal(t, runs[0], report.Run)
	assert.Equal(t, []store.Pair{
		{Column: 0, Rule: "row", Pass: 1, Via: "column"},
		{Column: 1, Rule: "class", Pass: 2, Via: "column"},
		{Column: 2, Rule: "seat", Pass: 3, Via: "column"},
	}, report.Pairs)

	out, err = executeCommand(t, "history", "--db", db, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+runs[0].ID+" (seq 1): resolved")
	assert.Contains(t, out, "Assignment: "+runs[0].AssignmentHash)
}

func TestHistoryCommandUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, testutil.ResolvableNotes)

	out, err := executeCommand(t, "--format", "json", "history", "--db", db, "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestHistoryCommandEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(t.Context(), db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestHistoryCommandRequiresDB(t *testing.T) {
	_, err := executeCommand(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--db is required")

	_, err = executeCommand(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}
