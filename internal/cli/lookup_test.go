package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/testutil"
)

func TestLookupCommandAllFields(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ResolvableNotes)

	out, err := executeCommand(t, "--format", "json", "lookup", path)
	require.NoError(t, err)

	resp := decodeResponse[LookupReport](t, out)
	assert.Equal(t, []FieldValue{
		{Field: "row", Column: 0, Value: 11},
		{Field: "class", Column: 1, Value: 12},
		{Field: "seat", Column: 2, Value: 13},
	}, resp.Data.Fields)

	// No field starts with the default prefix: empty product.
	require.NotNil(t, resp.Data.Product)
	assert.Equal(t, ProductReport{Prefix: "departure", Value: 1, Matched: 0}, *resp.Data.Product)
}

func TestLookupCommandPrefix(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ResolvableNotes)

	out, err := executeCommand(t, "lookup", "--prefix", "s", path, "seat")
	require.NoError(t, err)
	assert.Contains(t, out, "seat")
	assert.NotContains(t, out, "class")
	assert.Contains(t, out, `Product of 1 fields starting with "s": 13`)
}

func TestLookupCommandNoPrefix(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ResolvableNotes)

	out, err := executeCommand(t, "--format", "json", "lookup", "--prefix", "", path)
	require.NoError(t, err)

	resp := decodeResponse[LookupReport](t, out)
	assert.Nil(t, resp.Data.Product)
}

func TestLookupCommandUnknownField(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ResolvableNotes)

	out, err := executeCommand(t, "--format", "json", "lookup", path, "gate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "gate")
}

func TestLookupCommandAmbiguous(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.AmbiguousNotes)

	_, err := executeCommand(t, "lookup", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLookupCommandProductOverflow(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", `departure a: 0-1 or 2000000000-3000000000
departure b: 2-3 or 4000000000-5000000000

your ticket:
3000000000,5000000000

nearby tickets:
1,2
`)

	out, err := executeCommand(t, "--format", "json", "lookup", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeOverflow, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "overflows int64")
}
