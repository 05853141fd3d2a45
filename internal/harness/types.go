package harness

import "github.com/roach88/fieldres/internal/resolver"

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Status is "resolved", "ambiguous" or "incomplete".
	Status string `json:"status"`

	// Rules lists rule names by RuleID, resolving the rules in Trace.
	Rules []string `json:"rules"`

	// Trace holds the committing passes in order.
	Trace []resolver.Pass `json:"trace"`

	// Assignment maps rule names to columns; nil when resolution failed.
	Assignment map[string]int64 `json:"assignment,omitempty"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []resolver.Pass{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
