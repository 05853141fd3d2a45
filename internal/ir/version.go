package ir

// Version constants stamped on stored runs.
const (
	// IRVersion is the encoding version of rules, records and assignments.
	IRVersion = "1"

	// ResolverVersion is the fieldres resolver version.
	ResolverVersion = "0.1.0"
)
