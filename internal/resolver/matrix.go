package resolver

import (
	"fmt"
	"strings"

	"github.com/roach88/fieldres/internal/ir"
)

// CandidateMatrix maps each column index to the set of rules still
// consistent with every value seen in that column.
//
// The matrix is square: column count equals rule count. Resolve never
// mutates a matrix it is given.
type CandidateMatrix struct {
	size int
	cols []bitset
}

// NewCandidateMatrix returns a size x size matrix with every candidate set empty.
func NewCandidateMatrix(size int) *CandidateMatrix {
	m := &CandidateMatrix{size: size, cols: make([]bitset, size)}
	for c := range m.cols {
		m.cols[c] = newBitset(size)
	}
	return m
}

// Size returns the number of columns, which is also the number of rules.
func (m *CandidateMatrix) Size() int {
	return m.size
}

// Allow adds rule to column col's candidate set.
// Panics if either index is out of range.
func (m *CandidateMatrix) Allow(col int, rule ir.RuleID) {
	m.checkIndex(col, rule)
	m.cols[col].set(int(rule))
}

// Has reports whether rule is a candidate for column col.
func (m *CandidateMatrix) Has(col int, rule ir.RuleID) bool {
	m.checkIndex(col, rule)
	return m.cols[col].has(int(rule))
}

// Count returns the size of column col's candidate set.
func (m *CandidateMatrix) Count(col int) int {
	return m.cols[col].count()
}

// Candidates returns column col's candidate rules in ascending RuleID order.
func (m *CandidateMatrix) Candidates(col int) []ir.RuleID {
	members := m.cols[col].members()
	out := make([]ir.RuleID, len(members))
	for i, r := range members {
		out[i] = ir.RuleID(r)
	}
	return out
}

// EmptyColumns lists columns whose candidate set is empty. A well-formed
// input has none.
func (m *CandidateMatrix) EmptyColumns() []int {
	var out []int
	for c, set := range m.cols {
		if set.first() < 0 {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *CandidateMatrix) Clone() *CandidateMatrix {
	out := &CandidateMatrix{size: m.size, cols: make([]bitset, m.size)}
	for c, set := range m.cols {
		out.cols[c] = set.clone()
	}
	return out
}

// Equal reports whether both matrices hold identical candidate sets.
func (m *CandidateMatrix) Equal(o *CandidateMatrix) bool {
	if m.size != o.size {
		return false
	}
	for c := range m.cols {
		if !m.cols[c].equal(o.cols[c]) {
			return false
		}
	}
	return true
}

// String renders one line per column, e.g. "0: {0 2}".
func (m *CandidateMatrix) String() string {
	var sb strings.Builder
	for c := range m.cols {
		fmt.Fprintf(&sb, "%d: %v\n", c, m.cols[c].members())
	}
	return sb.String()
}

func (m *CandidateMatrix) checkIndex(col int, rule ir.RuleID) {
	if col < 0 || col >= m.size {
		panic(fmt.Sprintf("resolver: column %d out of range [0,%d)", col, m.size))
	}
	if rule < 0 || int(rule) >= m.size {
		panic(fmt.Sprintf("resolver: rule %d out of range [0,%d)", rule, m.size))
	}
}
