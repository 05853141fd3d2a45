package resolver

import "log/slog"

// Pass summarizes one propagation pass.
type Pass struct {
	// Number is 1-based.
	Number int `json:"pass"`

	// Committed lists the pairs committed during the pass, in commit order.
	Committed []Pair `json:"committed"`

	// UnassignedColumns and UnassignedRules are the open-set sizes after the
	// pass. They are always equal.
	UnassignedColumns int `json:"unassigned_columns"`
	UnassignedRules   int `json:"unassigned_rules"`
}

// Option configures Resolve.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	observer       func(Pass)
	ruleSingletons bool
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// WithLogger routes per-pass debug logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver calls fn after every pass that committed at least one pair.
func WithObserver(fn func(Pass)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithRuleSingletons also commits a rule that fits exactly one open column.
// Such a commit is forced, never a guess. It can cut the number of passes but
// never changes whether a matrix resolves or what it resolves to: a rule
// commit leaves every other column's candidate set untouched, so it cannot
// unblock a pass that found no column singleton.
//
// Default: false.
func WithRuleSingletons(enabled bool) Option {
	return func(o *options) {
		o.ruleSingletons = enabled
	}
}
