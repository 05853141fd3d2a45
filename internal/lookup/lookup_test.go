package lookup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/resolver"
)

func sampleFacade(t *testing.T) *Facade {
	t.Helper()
	rules := ir.RuleSet{
		{Name: "class", First: ir.Range{Min: 0, Max: 1}, Second: ir.Range{Min: 4, Max: 19}},
		{Name: "row", First: ir.Range{Min: 0, Max: 5}, Second: ir.Range{Min: 8, Max: 19}},
		{Name: "seat", First: ir.Range{Min: 0, Max: 13}, Second: ir.Range{Min: 16, Max: 19}},
	}
	m, err := resolver.Build(rules, []ir.Record{{3, 9, 18}, {15, 1, 5}, {5, 14, 9}})
	require.NoError(t, err)
	a, err := resolver.Resolve(m)
	require.NoError(t, err)
	return New(rules, a)
}

func TestValueOf_OwnRecord(t *testing.T) {
	f := sampleFacade(t)
	mine := ir.Record{11, 12, 13}

	tests := []struct {
		name string
		want int64
	}{
		{"class", 12},
		{"row", 11},
		{"seat", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := f.ValueOf(tt.name, mine)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestValueOf_Total(t *testing.T) {
	f := sampleFacade(t)

	_, ok := f.ValueOf("zone", ir.Record{11, 12, 13})
	assert.False(t, ok, "unknown rule name")

	_, ok = f.ValueOf("seat", ir.Record{11})
	assert.False(t, ok, "record shorter than the assigned column")
}

func TestFieldsAndMapping(t *testing.T) {
	f := sampleFacade(t)
	assert.Equal(t, map[string]int64{"class": 12, "row": 11, "seat": 13}, f.Fields(ir.Record{11, 12, 13}))
	assert.Equal(t, map[string]int64{"row": 0, "class": 1, "seat": 2}, f.Mapping())

	col, ok := f.Column("seat")
	require.True(t, ok)
	assert.Equal(t, 2, col)
}

func TestProductWithPrefix(t *testing.T) {
	rules := ir.RuleSet{
		{Name: "departure a", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
		{Name: "arrival", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
		{Name: "departure b", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
	}
	m := resolver.NewCandidateMatrix(3)
	m.Allow(0, 2) // column 0 -> departure b
	m.Allow(1, 0) // column 1 -> departure a
	m.Allow(2, 1) // column 2 -> arrival
	a, err := resolver.Resolve(m)
	require.NoError(t, err)

	f := New(rules, a)
	product, matched, err := f.ProductWithPrefix("departure", ir.Record{3, 7, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(21), product)
	assert.Equal(t, 2, matched)

	product, matched, err = f.ProductWithPrefix("zone", ir.Record{3, 7, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), product)
	assert.Equal(t, 0, matched)

	product, matched, err = f.ProductWithPrefix("departure", ir.Record{0, 7, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), product)
	assert.Equal(t, 2, matched)
}

func TestProductWithPrefixOverflow(t *testing.T) {
	rules := ir.RuleSet{
		{Name: "departure a", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
		{Name: "departure b", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
		{Name: "departure c", First: ir.Range{Min: 0, Max: 9}, Second: ir.Range{Min: 0, Max: 9}},
	}
	m := resolver.NewCandidateMatrix(3)
	for i := 0; i < 3; i++ {
		m.Allow(i, ir.RuleID(i))
	}
	a, err := resolver.Resolve(m)
	require.NoError(t, err)
	f := New(rules, a)

	// 2^31 * 2^31 * 2 = 2^63 does not fit.
	big := int64(1) << 31
	_, _, err = f.ProductWithPrefix("departure", ir.Record{big, big, 2})
	require.ErrorIs(t, err, ErrProductOverflow)
	assert.Contains(t, err.Error(), "departure c")

	// 2^31 * 2^31 * 1 = 2^62 does.
	product, matched, err := f.ProductWithPrefix("departure", ir.Record{big, big, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<62, product)
	assert.Equal(t, 3, matched)
}

func TestMulInt64(t *testing.T) {
	tests := []struct {
		a, b   int64
		want   int64
		wantOK bool
	}{
		{6, 7, 42, true},
		{-6, 7, -42, true},
		{0, math.MaxInt64, 0, true},
		{math.MaxInt64, 1, math.MaxInt64, true},
		{math.MaxInt64, 2, 0, false},
		{math.MinInt64, -1, 0, false},
		{-1, math.MinInt64, 0, false},
		{1 << 32, 1 << 32, 0, false},
	}
	for _, tt := range tests {
		got, ok := mulInt64(tt.a, tt.b)
		assert.Equal(t, tt.wantOK, ok, "%d*%d", tt.a, tt.b)
		assert.Equal(t, tt.want, got, "%d*%d", tt.a, tt.b)
	}
}
