package resolver

import (
	"fmt"

	"github.com/roach88/fieldres/internal/ir"
)

// Via records which kind of singleton justified a commit.
type Via string

const (
	// ViaColumn: the column had exactly one candidate rule left.
	ViaColumn Via = "column"

	// ViaRule: the rule fit exactly one open column (WithRuleSingletons).
	ViaRule Via = "rule"
)

// Pair is one committed column/rule match.
type Pair struct {
	Column int       `json:"column"`
	Rule   ir.RuleID `json:"rule"`
	Via    Via       `json:"via"`
}

// Assignment is a bijection between column indices and rule IDs.
type Assignment struct {
	ruleOf   []ir.RuleID
	columnOf []int
}

func newAssignment(size int) *Assignment {
	a := &Assignment{
		ruleOf:   make([]ir.RuleID, size),
		columnOf: make([]int, size),
	}
	for i := 0; i < size; i++ {
		a.ruleOf[i] = -1
		a.columnOf[i] = -1
	}
	return a
}

func (a *Assignment) set(col int, rule ir.RuleID) {
	a.ruleOf[col] = rule
	a.columnOf[rule] = col
}

// Len returns the number of columns (and rules) covered.
func (a *Assignment) Len() int {
	return len(a.ruleOf)
}

// RuleFor returns the rule assigned to col.
func (a *Assignment) RuleFor(col int) (ir.RuleID, bool) {
	if col < 0 || col >= len(a.ruleOf) || a.ruleOf[col] < 0 {
		return -1, false
	}
	return a.ruleOf[col], true
}

// ColumnFor returns the column assigned to rule.
func (a *Assignment) ColumnFor(rule ir.RuleID) (int, bool) {
	if rule < 0 || int(rule) >= len(a.columnOf) || a.columnOf[rule] < 0 {
		return -1, false
	}
	return a.columnOf[rule], true
}

// Columns returns the rule of each column, indexed by column.
func (a *Assignment) Columns() []ir.RuleID {
	out := make([]ir.RuleID, len(a.ruleOf))
	copy(out, a.ruleOf)
	return out
}

// Verify checks the bijection: every column maps to a distinct rule and
// every rule is used exactly once.
func (a *Assignment) Verify() error {
	if len(a.ruleOf) != len(a.columnOf) {
		return fmt.Errorf("assignment covers %d columns but %d rules", len(a.ruleOf), len(a.columnOf))
	}
	used := newBitset(len(a.columnOf))
	for col, rule := range a.ruleOf {
		if rule < 0 {
			return fmt.Errorf("column %d has no rule", col)
		}
		if int(rule) >= len(a.columnOf) {
			return fmt.Errorf("column %d maps to unknown rule %d", col, rule)
		}
		if used.has(int(rule)) {
			return fmt.Errorf("rule %d assigned to more than one column", rule)
		}
		used.set(int(rule))
		if a.columnOf[rule] != col {
			return fmt.Errorf("rule %d points at column %d, not %d", rule, a.columnOf[rule], col)
		}
	}
	return nil
}

// Named maps rule names to their columns.
func (a *Assignment) Named(rules ir.RuleSet) map[string]int64 {
	out := make(map[string]int64, len(a.ruleOf))
	for col, rule := range a.ruleOf {
		if rule >= 0 && int(rule) < len(rules) {
			out[rules[rule].Name] = int64(col)
		}
	}
	return out
}
