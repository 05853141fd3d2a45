// Package resolver assigns rules to unlabeled record columns.
//
// The package has two halves:
//
//	Build / BuildParallel   rules + valid records -> CandidateMatrix
//	Resolve                 CandidateMatrix       -> Assignment (a bijection)
//
// # Candidate Matrix
//
// Column c's candidate set holds every rule that all values in column c
// satisfy. Candidate sets are bitsets keyed by ir.RuleID, so counting a set
// or removing a rule never touches rule names.
//
// # Singleton Elimination
//
// Resolve runs forced-singleton propagation with no backtracking. Each pass
// commits every column whose candidate set has exactly one rule left, then
// removes that rule from every other column. Columns that drop to a single
// candidate are queued for the next pass, so only the first pass scans the
// whole matrix.
//
// A pass that commits nothing ends the run with an ErrCodeAmbiguous
// ResolutionError. This covers both inputs with several valid completions and
// inputs starved by an empty candidate set; the resolver never guesses.
//
// CRITICAL PATTERNS:
//
// Determinism:
// Work queues are processed in ascending column order and rules are scanned
// in ascending RuleID order. No map iteration influences the result.
//
// Bijection:
// Every commit removes one column and one rule from the open sets, so the
// two sets always have equal size. Resolve verifies the finished Assignment
// and reports ErrCodeIncomplete instead of ever returning a partial mapping.
package resolver
