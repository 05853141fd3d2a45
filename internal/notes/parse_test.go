package notes

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/ir"
)

const sampleNotes = `class: 1-3 or 5-7
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

func TestParse_Sample(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleNotes))
	require.NoError(t, err)

	require.Len(t, doc.Rules, 3)
	assert.Equal(t, ir.Rule{Name: "class", First: ir.Range{Min: 1, Max: 3}, Second: ir.Range{Min: 5, Max: 7}}, doc.Rules[0])
	assert.Equal(t, "seat", doc.Rules[2].Name)
	assert.Equal(t, ir.Record{7, 1, 14}, doc.Mine)
	assert.Equal(t, []ir.Record{{7, 3, 47}, {40, 4, 50}, {55, 2, 20}, {38, 6, 12}}, doc.Nearby)
}

func TestParse_NamesWithSpaces(t *testing.T) {
	input := "departure location: 25-80 or 90-961\narrival station: 1-2 or 4-5\n\nyour ticket:\n1,2\n\nnearby tickets:\n"
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"departure location", "arrival station"}, doc.Rules.Names())
	assert.NotNil(t, doc.Nearby)
	assert.Empty(t, doc.Nearby)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{"no rules", "your ticket:\n\nnearby tickets:\n", 0, "no rules"},
		{"missing colon", "class 1-3 or 5-7\n", 1, "missing ':'"},
		{"single range", "class: 1-3\n", 1, "expected two ranges"},
		{"bad number", "class: 1-x or 5-7\n", 1, "range"},
		{"inverted range", "class: 3-1 or 5-7\n", 1, "invalid range"},
		{"missing mine", "class: 1-3 or 5-7\n", 0, "missing \"your ticket:\""},
		{"empty mine", "class: 1-3 or 5-7\nyour ticket:\nnearby tickets:\n", 0, "no record"},
		{"missing nearby", "class: 1-3 or 5-7\nyour ticket:\n1\n", 0, "missing \"nearby tickets:\""},
		{"nearby before mine", "class: 1-3 or 5-7\nnearby tickets:\n", 2, "must follow"},
		{"two own records", "class: 1-3 or 5-7\nyour ticket:\n1\n2\n", 4, "more than one"},
		{"wrong width", "a: 1-3 or 5-7\nb: 1-3 or 5-7\nyour ticket:\n1\n", 4, "want 2"},
		{"duplicate rule", "a: 1-3 or 5-7\na: 1-3 or 5-7\nyour ticket:\n1,2\nnearby tickets:\n", 0, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.Contains(t, pe.Message, tt.wantMsg)
		})
	}
}

func TestParse_WrapsSentinels(t *testing.T) {
	_, err := Parse(strings.NewReader("class: 3-1 or 5-7\n"))
	assert.ErrorIs(t, err, ir.ErrInvalidRange)
}

func TestFormat_RoundTrip(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleNotes))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, doc))

	again, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleNotes), 0o644))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Nearby, 4)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
