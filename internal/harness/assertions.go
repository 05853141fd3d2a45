package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/session"
)

// evaluate checks every set expectation and returns one message per
// mismatch. failure is nil when resolution succeeded.
func evaluate(e Expect, res *session.Result, failure *resolver.ResolutionError) []string {
	var errs []string

	switch {
	case e.Error == "" && failure != nil:
		errs = append(errs, fmt.Sprintf("unexpected resolution error: %v", failure))
	case e.Error != "" && failure == nil:
		errs = append(errs, fmt.Sprintf("expected %s resolution error, resolved instead", e.Error))
	case e.Error != "" && strings.ToLower(string(failure.Code)) != e.Error:
		errs = append(errs, fmt.Sprintf("expected %s resolution error, got %s", e.Error, failure.Code))
	}

	if e.Unresolved != nil && failure != nil && !slices.Equal(e.Unresolved, failure.Unresolved) {
		errs = append(errs, fmt.Sprintf("unresolved columns: expected %v, got %v", e.Unresolved, failure.Unresolved))
	}

	if e.ScanErrorRate != nil && *e.ScanErrorRate != res.ScanErrorRate {
		errs = append(errs, fmt.Sprintf("scan_error_rate: expected %d, got %d", *e.ScanErrorRate, res.ScanErrorRate))
	}
	if e.Rejected != nil && *e.Rejected != len(res.Validation.Rejected) {
		errs = append(errs, fmt.Sprintf("rejected: expected %d, got %d", *e.Rejected, len(res.Validation.Rejected)))
	}
	if e.Passes != nil && *e.Passes != len(res.Passes) {
		errs = append(errs, fmt.Sprintf("passes: expected %d, got %d", *e.Passes, len(res.Passes)))
	}

	// The remaining checks need a resolved facade.
	if res.Facade == nil {
		return errs
	}

	if e.Assignment != nil {
		errs = append(errs, diffFields("assignment", e.Assignment, res.Facade.Mapping(), true)...)
	}
	if e.Lookup != nil {
		errs = append(errs, diffFields("lookup", e.Lookup, res.Facade.Fields(res.Mine), false)...)
	}
	if p := e.Product; p != nil {
		got, matched, err := res.Facade.ProductWithPrefix(p.Prefix, res.Mine)
		if err != nil {
			errs = append(errs, fmt.Sprintf("product %q: %v", p.Prefix, err))
		} else if got != p.Value {
			errs = append(errs, fmt.Sprintf("product %q: expected %d, got %d", p.Prefix, p.Value, got))
		}
		if p.Matched != nil && *p.Matched != matched {
			errs = append(errs, fmt.Sprintf("product %q: expected %d matched fields, got %d", p.Prefix, *p.Matched, matched))
		}
	}
	return errs
}

// diffFields compares expected and actual name->value maps. Without exact,
// fields missing from want are not checked (subset match). Messages are
// sorted by field name.
func diffFields(label string, want, got map[string]int64, exact bool) []string {
	names := make(map[string]bool, len(want)+len(got))
	for k := range want {
		names[k] = true
	}
	if exact {
		for k := range got {
			names[k] = true
		}
	}
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, k := range keys {
		w, inWant := want[k]
		g, inGot := got[k]
		switch {
		case !inGot:
			errs = append(errs, fmt.Sprintf("%s.%s: expected %d, missing", label, k, w))
		case !inWant:
			errs = append(errs, fmt.Sprintf("%s.%s: unexpected field (value %d)", label, k, g))
		case w != g:
			errs = append(errs, fmt.Sprintf("%s.%s: expected %d, got %d", label, k, w, g))
		}
	}
	return errs
}
