package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/notes"
	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/store"
	"github.com/roach88/fieldres/internal/testutil"
)

func parseNotes(t *testing.T, src string) *notes.Document {
	t.Helper()
	doc, err := notes.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestResolve_Sample(t *testing.T) {
	ctx := t.Context()
	s, err := New(ctx, WithLogger(quietLogger()), WithIDGenerator(testutil.NewSequenceIDGenerator("run")))
	require.NoError(t, err)

	res, err := s.Resolve(ctx, parseNotes(t, testutil.ResolvableNotes))
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, int64(1), res.Seq)
	assert.Equal(t, map[string]int64{"row": 0, "class": 1, "seat": 2}, res.Facade.Mapping())
	assert.Equal(t, map[string]int64{"class": 12, "row": 11, "seat": 13}, res.Facade.Fields(res.Mine))
	assert.Len(t, res.Passes, 3)
	assert.Len(t, res.Records, 4, "own record joins the three nearby records")
	assert.NotEmpty(t, res.AssignmentHash)
}

func TestResolve_ScanReport(t *testing.T) {
	ctx := t.Context()
	s, err := New(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := s.Resolve(ctx, parseNotes(t, testutil.ScanNotes))
	require.NoError(t, err)
	assert.Equal(t, int64(71), res.ScanErrorRate)
	assert.Len(t, res.Validation.Valid, 1)
	assert.Len(t, res.Validation.Rejected, 3)
}

func TestResolve_Ambiguous(t *testing.T) {
	ctx := t.Context()
	s, err := New(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := s.Resolve(ctx, parseNotes(t, testutil.AmbiguousNotes))
	require.Error(t, err)
	assert.True(t, resolver.IsAmbiguous(err))

	require.NotNil(t, res)
	assert.Nil(t, res.Assignment)
	assert.Nil(t, res.Facade)
	assert.Empty(t, res.Passes)
	assert.Empty(t, res.AssignmentHash)
}

func TestResolve_ParallelMatchesSequential(t *testing.T) {
	ctx := t.Context()
	doc := parseNotes(t, testutil.ResolvableNotes)

	seq, err := New(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)
	par, err := New(ctx, WithLogger(quietLogger()), WithParallel(4))
	require.NoError(t, err)

	a, err := seq.Resolve(ctx, doc)
	require.NoError(t, err)
	b, err := par.Resolve(ctx, doc)
	require.NoError(t, err)

	assert.True(t, a.Matrix.Equal(b.Matrix))
	assert.Equal(t, a.AssignmentHash, b.AssignmentHash)
	assert.Equal(t, a.RecordsHash, b.RecordsHash)
}

func TestResolve_RuleSingletonsSameAnswer(t *testing.T) {
	ctx := t.Context()
	doc := parseNotes(t, testutil.ResolvableNotes)

	plain, err := New(ctx, WithLogger(quietLogger()))
	require.NoError(t, err)
	hidden, err := New(ctx, WithLogger(quietLogger()), WithRuleSingletons(true))
	require.NoError(t, err)

	a, err := plain.Resolve(ctx, doc)
	require.NoError(t, err)
	b, err := hidden.Resolve(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, a.AssignmentHash, b.AssignmentHash)
	assert.LessOrEqual(t, len(b.Passes), len(a.Passes))
}

func TestResolve_OwnRecord(t *testing.T) {
	ctx := t.Context()

	t.Run("excluded on request", func(t *testing.T) {
		s, err := New(ctx, WithLogger(quietLogger()), WithoutOwnRecord())
		require.NoError(t, err)

		res, err := s.Resolve(ctx, parseNotes(t, testutil.ResolvableNotes))
		require.NoError(t, err)
		assert.Len(t, res.Records, 3)
	})

	t.Run("invalid own record is left out and logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		s, err := New(ctx, WithLogger(logger))
		require.NoError(t, err)

		doc := parseNotes(t, testutil.ResolvableNotes)
		doc.Mine = ir.Record{11, 12, 99}

		res, err := s.Resolve(ctx, doc)
		require.NoError(t, err)
		assert.Len(t, res.Records, 3)
		assert.Contains(t, buf.String(), "own record fails validation")
	})
}

func TestResolve_PersistsRuns(t *testing.T) {
	ctx := t.Context()
	st := openStore(t)

	s, err := New(ctx, WithLogger(quietLogger()), WithStore(st), WithIDGenerator(testutil.NewSequenceIDGenerator("run")))
	require.NoError(t, err)

	_, err = s.Resolve(ctx, parseNotes(t, testutil.ResolvableNotes))
	require.NoError(t, err)
	_, err = s.Resolve(ctx, parseNotes(t, testutil.AmbiguousNotes))
	require.Error(t, err)

	run, pairs, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusResolved, run.Status)
	assert.Equal(t, 3, run.Passes)
	assert.Equal(t, []store.Pair{
		{Column: 0, Rule: "row", Pass: 1, Via: "column"},
		{Column: 1, Rule: "class", Pass: 2, Via: "column"},
		{Column: 2, Rule: "seat", Pass: 3, Via: "column"},
	}, pairs)

	run, pairs, err = st.ReadRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, store.StatusAmbiguous, run.Status)
	assert.Equal(t, "AMBIGUOUS", run.ErrorCode)
	assert.Empty(t, pairs)
}

func TestNew_ClockResumesFromStore(t *testing.T) {
	ctx := t.Context()
	st := openStore(t)
	doc := parseNotes(t, testutil.ResolvableNotes)

	first, err := New(ctx, WithLogger(quietLogger()), WithStore(st))
	require.NoError(t, err)
	_, err = first.Resolve(ctx, doc)
	require.NoError(t, err)
	_, err = first.Resolve(ctx, doc)
	require.NoError(t, err)

	second, err := New(ctx, WithLogger(quietLogger()), WithStore(st))
	require.NoError(t, err)
	res, err := second.Resolve(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Seq)

	runs, err := st.FindRuns(ctx, res.RuleSetHash, res.RecordsHash)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s, err := New(t.Context(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = s.Resolve(ctx, parseNotes(t, testutil.ResolvableNotes))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
	assert.Equal(t, int64(42), resumed.Current())
}

func TestNew_LogsResumedSeq(t *testing.T) {
	ctx := t.Context()
	st := openStore(t)

	first, err := New(ctx, WithLogger(quietLogger()), WithStore(st))
	require.NoError(t, err)
	_, err = first.Resolve(ctx, parseNotes(t, testutil.ResolvableNotes))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err = New(ctx, WithLogger(logger), WithStore(st))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "session opened")
	assert.Contains(t, buf.String(), "seq=1")
	assert.Contains(t, buf.String(), "stored=true")
}
