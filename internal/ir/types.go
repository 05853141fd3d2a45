package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned when a range has Min > Max.
	ErrInvalidRange = errors.New("invalid range")

	// ErrDuplicateRule is returned when two rules in a set share a name.
	ErrDuplicateRule = errors.New("duplicate rule name")

	// ErrEmptyRuleName is returned when a rule has no name.
	ErrEmptyRuleName = errors.New("empty rule name")
)

// Range is an inclusive integer interval [Min, Max].
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether v lies in the range, both ends inclusive.
func (r Range) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// String renders the range in notes syntax ("1-3").
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Rule names a field and the two ranges its values may fall in.
// The ranges may overlap or even be identical.
type Rule struct {
	Name   string `json:"name"`
	First  Range  `json:"first"`
	Second Range  `json:"second"`
}

// Satisfies reports whether v falls in either of the rule's ranges.
func (r Rule) Satisfies(v int64) bool {
	return r.First.Contains(v) || r.Second.Contains(v)
}

// Validate checks the Min <= Max invariant on both ranges.
func (r Rule) Validate() error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if r.First.Min > r.First.Max {
		return fmt.Errorf("rule %q: first %s: %w", r.Name, r.First, ErrInvalidRange)
	}
	if r.Second.Min > r.Second.Max {
		return fmt.Errorf("rule %q: second %s: %w", r.Name, r.Second, ErrInvalidRange)
	}
	return nil
}

// String renders the rule in notes syntax ("class: 1-3 or 5-7").
func (r Rule) String() string {
	return fmt.Sprintf("%s: %s or %s", r.Name, r.First, r.Second)
}

// RuleID identifies a rule by its position in a RuleSet.
type RuleID int

// RuleSet is an ordered list of rules. Order defines RuleIDs.
type RuleSet []Rule

// Validate checks every rule and that names are unique.
func (rs RuleSet) Validate() error {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("rule %q: %w", r.Name, ErrDuplicateRule)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// Index returns the RuleID of the rule with the given name.
func (rs RuleSet) Index(name string) (RuleID, bool) {
	for i, r := range rs {
		if r.Name == name {
			return RuleID(i), true
		}
	}
	return -1, false
}

// Names returns rule names in RuleID order.
func (rs RuleSet) Names() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

// Record is an ordered sequence of values whose column meaning is unknown.
// All records resolved together share the same length.
type Record []int64

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}
