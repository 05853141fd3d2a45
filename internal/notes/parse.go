// Package notes parses the plain-text notes format: a block of rules,
// the own record under "your ticket:", and the remaining records under
// "nearby tickets:".
package notes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/fieldres/internal/ir"
)

const (
	headerMine   = "your ticket:"
	headerNearby = "nearby tickets:"
)

// Document is a parsed notes file.
type Document struct {
	Rules  ir.RuleSet
	Mine   ir.Record
	Nearby []ir.Record
}

// ParseError reports a malformed line. Line is 1-based; 0 means the
// problem is with the document as a whole.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("notes: %s", e.Message)
	}
	return fmt.Sprintf("notes: line %d: %s", e.Line, e.Message)
}

type section int

const (
	sectionRules section = iota
	sectionMine
	sectionNearby
)

// ParseFile opens path and parses it.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notes: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a notes document. Both section headers are required, the
// own section holds exactly one record, and every record has one value
// per rule.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sec := sectionRules
	seenMine, seenNearby := false, false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch line {
		case headerMine:
			if sec != sectionRules {
				return nil, &ParseError{Line: lineNo, Message: "unexpected \"your ticket:\" header"}
			}
			sec, seenMine = sectionMine, true
			continue
		case headerNearby:
			if sec != sectionMine {
				return nil, &ParseError{Line: lineNo, Message: "\"nearby tickets:\" must follow \"your ticket:\""}
			}
			sec, seenNearby = sectionNearby, true
			continue
		}

		switch sec {
		case sectionRules:
			rule, err := parseRule(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error(), Err: err}
			}
			doc.Rules = append(doc.Rules, rule)
		case sectionMine:
			if doc.Mine != nil {
				return nil, &ParseError{Line: lineNo, Message: "more than one record under \"your ticket:\""}
			}
			rec, err := parseRecord(line, len(doc.Rules))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error(), Err: err}
			}
			doc.Mine = rec
		case sectionNearby:
			rec, err := parseRecord(line, len(doc.Rules))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error(), Err: err}
			}
			doc.Nearby = append(doc.Nearby, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	switch {
	case len(doc.Rules) == 0:
		return nil, &ParseError{Message: "no rules"}
	case !seenMine:
		return nil, &ParseError{Message: "missing \"your ticket:\" section"}
	case doc.Mine == nil:
		return nil, &ParseError{Message: "no record under \"your ticket:\""}
	case !seenNearby:
		return nil, &ParseError{Message: "missing \"nearby tickets:\" section"}
	}
	if err := doc.Rules.Validate(); err != nil {
		return nil, &ParseError{Message: err.Error(), Err: err}
	}
	if doc.Nearby == nil {
		doc.Nearby = []ir.Record{}
	}
	return doc, nil
}

// parseRule parses "name: a-b or c-d". The name may contain spaces.
func parseRule(line string) (ir.Rule, error) {
	name, body, ok := strings.Cut(line, ":")
	if !ok {
		return ir.Rule{}, fmt.Errorf("rule %q: missing ':'", line)
	}
	name = strings.TrimSpace(name)
	first, second, ok := strings.Cut(body, " or ")
	if !ok {
		return ir.Rule{}, fmt.Errorf("rule %q: expected two ranges joined by \"or\"", name)
	}
	a, err := parseRange(first)
	if err != nil {
		return ir.Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	b, err := parseRange(second)
	if err != nil {
		return ir.Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	rule := ir.Rule{Name: name, First: a, Second: b}
	if err := rule.Validate(); err != nil {
		return ir.Rule{}, err
	}
	return rule, nil
}

func parseRange(s string) (ir.Range, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return ir.Range{}, fmt.Errorf("range %q: expected min-max", strings.TrimSpace(s))
	}
	min, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return ir.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	max, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return ir.Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	return ir.Range{Min: min, Max: max}, nil
}

func parseRecord(line string, width int) (ir.Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != width {
		return nil, fmt.Errorf("record has %d values, want %d", len(fields), width)
	}
	rec := make(ir.Record, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		rec[i] = v
	}
	return rec, nil
}

// Format renders doc in the notes format. Parse(Format(doc)) yields doc.
func Format(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for _, r := range doc.Rules {
		fmt.Fprintln(bw, r.String())
	}
	fmt.Fprintf(bw, "\n%s\n%s\n\n%s\n", headerMine, joinRecord(doc.Mine), headerNearby)
	for _, rec := range doc.Nearby {
		fmt.Fprintln(bw, joinRecord(rec))
	}
	return bw.Flush()
}

func joinRecord(rec ir.Record) string {
	parts := make([]string, len(rec))
	for i, v := range rec {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
