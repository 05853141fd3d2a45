// Package lookup gives named-field access to records once columns are resolved.
package lookup

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/resolver"
)

// Facade answers "value of the field named X" for records sharing the
// resolved column layout. It owns the assignment for the lifetime of a
// query session.
type Facade struct {
	rules      ir.RuleSet
	assignment *resolver.Assignment
}

// New wraps a resolved assignment. rules must be the rule set the
// assignment's RuleIDs refer to.
func New(rules ir.RuleSet, a *resolver.Assignment) *Facade {
	return &Facade{rules: rules, assignment: a}
}

// Column returns the column resolved for the rule named name.
func (f *Facade) Column(name string) (int, bool) {
	id, ok := f.rules.Index(name)
	if !ok {
		return -1, false
	}
	return f.assignment.ColumnFor(id)
}

// ValueOf returns rec's value in the column assigned to name.
// Reports false for an unknown name or a record too short for the column.
func (f *Facade) ValueOf(name string, rec ir.Record) (int64, bool) {
	col, ok := f.Column(name)
	if !ok || col >= len(rec) {
		return 0, false
	}
	return rec[col], true
}

// Fields maps every rule name to its value in rec.
func (f *Facade) Fields(rec ir.Record) map[string]int64 {
	out := make(map[string]int64, len(f.rules))
	for _, r := range f.rules {
		if v, ok := f.ValueOf(r.Name, rec); ok {
			out[r.Name] = v
		}
	}
	return out
}

// Mapping maps every rule name to its column.
func (f *Facade) Mapping() map[string]int64 {
	return f.assignment.Named(f.rules)
}

// ErrProductOverflow is returned when a prefix product does not fit in int64.
var ErrProductOverflow = errors.New("product overflows int64")

// ProductWithPrefix multiplies rec's values for every field whose name
// starts with prefix and returns the product and the number of fields
// matched. Names and prefix are compared in NFC form. With no match the
// product is 1. An overflowing product is never returned: the error wraps
// ErrProductOverflow and names the field that overflowed.
func (f *Facade) ProductWithPrefix(prefix string, rec ir.Record) (int64, int, error) {
	prefix = norm.NFC.String(prefix)
	product := int64(1)
	matched := 0
	for _, r := range f.rules {
		if !strings.HasPrefix(norm.NFC.String(r.Name), prefix) {
			continue
		}
		v, ok := f.ValueOf(r.Name, rec)
		if !ok {
			continue
		}
		next, ok := mulInt64(product, v)
		if !ok {
			return 0, matched, fmt.Errorf("lookup: %q: %w", r.Name, ErrProductOverflow)
		}
		product = next
		matched++
	}
	return product, matched, nil
}

// mulInt64 returns a*b and whether it did not overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}
