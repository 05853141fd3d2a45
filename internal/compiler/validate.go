package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/fieldres/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// RuleSet errors (E101-E109)
	ErrNoRules       = "E101" // at least one rule required
	ErrRuleNameEmpty = "E102" // rule name is required
	ErrRangeInverted = "E103" // min > max
	ErrDuplicateName = "E104" // duplicate rule name

	// Record errors (E110-E119)
	ErrRecordWidth = "E110" // record length differs from rule count
)

// ValidationError represents a rule-set or record validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a rule set and returns every problem found (does not
// fail fast).
func Validate(rules ir.RuleSet) []ValidationError {
	var errs []ValidationError

	if len(rules) == 0 {
		return []ValidationError{{
			Field:   "rules",
			Message: "at least one rule is required",
			Code:    ErrNoRules,
		}}
	}

	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		field := fmt.Sprintf("rules[%d]", i)

		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "rule name is required and must be non-empty",
				Code:    ErrRuleNameEmpty,
			})
		} else if prev, dup := seen[r.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate rule name %q (first at rules[%d])", r.Name, prev),
				Code:    ErrDuplicateName,
			})
		} else {
			seen[r.Name] = i
		}

		for _, part := range []struct {
			label string
			rng   ir.Range
		}{{"first", r.First}, {"second", r.Second}} {
			if part.rng.Min > part.rng.Max {
				errs = append(errs, ValidationError{
					Field:   field + "." + part.label,
					Message: fmt.Sprintf("range %s has min > max", part.rng),
					Code:    ErrRangeInverted,
				})
			}
		}
	}

	return errs
}

// ValidateRecords reports every record whose length differs from the
// rule count. label prefixes the field path, e.g. "nearby[3]".
func ValidateRecords(rules ir.RuleSet, records []ir.Record, label string) []ValidationError {
	var errs []ValidationError
	for i, rec := range records {
		if len(rec) != len(rules) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", label, i),
				Message: fmt.Sprintf("record has %d values, want %d", len(rec), len(rules)),
				Code:    ErrRecordWidth,
			})
		}
	}
	return errs
}
