// Package validate filters records that cannot belong to a rule set.
//
// A record is valid when every one of its values satisfies at least one
// rule. Invalid records are exclusions, never errors: they are reported back
// to the caller with the offending values and dropped before candidate
// matrix construction.
package validate

import "github.com/roach88/fieldres/internal/ir"

// Rejection describes a record excluded by Filter.
type Rejection struct {
	// Index is the record's position in the input slice.
	Index int `json:"index"`

	// Values are the values that satisfy no rule, in record order.
	Values []int64 `json:"values"`
}

// Result is the outcome of filtering a batch of records.
type Result struct {
	Valid    []ir.Record `json:"valid"`
	Rejected []Rejection `json:"rejected"`
}

// SatisfiesAny reports whether v satisfies at least one rule.
func SatisfiesAny(rules ir.RuleSet, v int64) bool {
	for _, r := range rules {
		if r.Satisfies(v) {
			return true
		}
	}
	return false
}

// RecordIsValid reports whether every value in rec satisfies at least one rule.
// An empty record is trivially valid.
func RecordIsValid(rules ir.RuleSet, rec ir.Record) bool {
	for _, v := range rec {
		if !SatisfiesAny(rules, v) {
			return false
		}
	}
	return true
}

// InvalidValues returns the values of rec that satisfy no rule.
// Returns nil when the record is valid.
func InvalidValues(rules ir.RuleSet, rec ir.Record) []int64 {
	var bad []int64
	for _, v := range rec {
		if !SatisfiesAny(rules, v) {
			bad = append(bad, v)
		}
	}
	return bad
}

// Filter splits records into valid ones and rejections.
// Valid records keep their relative order. Valid and Rejected are never nil.
func Filter(rules ir.RuleSet, records []ir.Record) Result {
	res := Result{
		Valid:    make([]ir.Record, 0, len(records)),
		Rejected: []Rejection{},
	}
	for i, rec := range records {
		if bad := InvalidValues(rules, rec); len(bad) > 0 {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Values: bad})
			continue
		}
		res.Valid = append(res.Valid, rec)
	}
	return res
}

// ScanErrorRate sums every value, across all records, that satisfies no rule.
func ScanErrorRate(rules ir.RuleSet, records []ir.Record) int64 {
	var sum int64
	for _, rec := range records {
		for _, v := range InvalidValues(rules, rec) {
			sum += v
		}
	}
	return sum
}
