package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/compiler"
	"github.com/roach88/fieldres/internal/testutil"
)

func TestValidateCommandNotes(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ResolvableNotes)

	out, err := executeCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "3 rules valid")
}

func TestValidateCommandRulesFile(t *testing.T) {
	path := testutil.WriteFile(t, "rules.cue", `rule: {
	class: {first: [1, 3], second: [5, 7]}
	row: {first: [6, 11], second: [33, 44]}
}
`)

	out, err := executeCommand(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	resp := decodeResponse[ValidateReport](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "rules", resp.Data.Kind)
	assert.Equal(t, 2, resp.Data.Rules)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateCommandInvertedRange(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", "class: 3-1 or 5-7\n\nyour ticket:\n1\n\nnearby tickets:\n2\n")

	out, err := executeCommand(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParse, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "line 1")
}

func TestValidateCommandCUEError(t *testing.T) {
	path := testutil.WriteFile(t, "rules.cue", `rule: class: {first: [1, 3]}`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_PARSE]")
}

func TestValidateCommandReportJSONShape(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", testutil.ScanNotes)

	out, err := executeCommand(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	resp := decodeResponse[ValidateReport](t, out)
	assert.Equal(t, "notes", resp.Data.Kind)
	assert.Equal(t, []compiler.ValidationError{}, resp.Data.Errors)
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, err := executeCommand(t, "validate", "missing.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommandPrintNormalizes(t *testing.T) {
	path := testutil.WriteFile(t, "notes.txt", `class:  1-3 or 5-7
row: 6-11 or 33-44


your ticket:
 7,1

nearby tickets:
7,3
`)

	out, err := executeCommand(t, "--format", "json", "validate", "--print", path)
	require.NoError(t, err)

	resp := decodeResponse[ValidateReport](t, out)
	assert.Equal(t, "class: 1-3 or 5-7\nrow: 6-11 or 33-44\n\nyour ticket:\n7,1\n\nnearby tickets:\n7,3\n",
		resp.Data.Normalized)

	out, err = executeCommand(t, "validate", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "your ticket:")
}
