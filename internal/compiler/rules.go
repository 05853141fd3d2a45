package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fieldres/internal/ir"
)

// ruleSchema constrains every field of the rule struct. Unifying with it
// turns shape mistakes into CUE errors that carry source positions.
const ruleSchema = `
#Range: [int, int]
#Rule: {
	first:  #Range
	second: #Range
}
rule: [string]: #Rule
`

// LoadRuleFile reads and compiles a CUE rule-set file.
func LoadRuleFile(path string) (ir.RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return CompileSource(path, src)
}

// CompileSource compiles CUE source text holding a top-level rule struct.
// filename is used for error positions only.
func CompileSource(filename string, src []byte) (ir.RuleSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema := ctx.CompileString(ruleSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("rule schema: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRules(unified.LookupPath(cue.ParsePath("rule")))
}

// CompileRules converts a CUE struct of rules into a RuleSet, keeping
// declaration order so RuleIDs follow the source.
//
//	rule: {
//		class: {first: [1, 3], second: [5, 7]}
//		"departure location": {first: [25, 80], second: [90, 961]}
//	}
func CompileRules(v cue.Value) (ir.RuleSet, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "rule", Message: "rule is required", Pos: v.Pos()}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules ir.RuleSet
	for iter.Next() {
		name := iter.Selector().Unquoted()
		rule, err := compileRule(name, iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, &CompileError{Field: "rule", Message: "at least one rule is required", Pos: v.Pos()}
	}
	if err := rules.Validate(); err != nil {
		return nil, &CompileError{Field: "rule", Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return rules, nil
}

func compileRule(name string, v cue.Value) (ir.Rule, error) {
	first, err := compileRange(name, "first", v)
	if err != nil {
		return ir.Rule{}, err
	}
	second, err := compileRange(name, "second", v)
	if err != nil {
		return ir.Rule{}, err
	}

	rule := ir.Rule{Name: name, First: first, Second: second}
	if err := rule.Validate(); err != nil {
		return ir.Rule{}, &CompileError{Field: name, Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return rule, nil
}

func compileRange(name, field string, v cue.Value) (ir.Range, error) {
	rv := v.LookupPath(cue.ParsePath(field))
	if !rv.Exists() {
		return ir.Range{}, &CompileError{
			Field:   name + "." + field,
			Message: field + " range is required",
			Pos:     v.Pos(),
		}
	}

	var bounds []int64
	if err := rv.Decode(&bounds); err != nil {
		return ir.Range{}, formatCUEError(err)
	}
	if len(bounds) != 2 {
		return ir.Range{}, &CompileError{
			Field:   name + "." + field,
			Message: fmt.Sprintf("range must have 2 bounds, got %d", len(bounds)),
			Pos:     rv.Pos(),
		}
	}
	return ir.Range{Min: bounds[0], Max: bounds[1]}, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}

	return err
}
