package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines one resolution scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Notes holds an inline notes document. Exactly one of Notes and
	// NotesFile is set.
	Notes string `yaml:"notes,omitempty"`

	// NotesFile is a notes document path, relative to the scenario file.
	NotesFile string `yaml:"notes_file,omitempty"`

	// RulesFile optionally replaces the notes rules with a CUE rule set,
	// relative to the scenario file.
	RulesFile string `yaml:"rules_file,omitempty"`

	Options Options `yaml:"options,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Options are the resolver knobs a scenario can set.
type Options struct {
	RuleSingletons bool `yaml:"rule_singletons,omitempty"`
	Parallel       int  `yaml:"parallel,omitempty"`
	ExcludeOwn     bool `yaml:"exclude_own,omitempty"`
}

// Expect lists the outcomes to check. Unset fields are not checked.
type Expect struct {
	// Error is the expected resolution failure: "ambiguous" or "incomplete".
	Error string `yaml:"error,omitempty"`

	// Unresolved lists the columns left open by a failed resolution.
	Unresolved []int `yaml:"unresolved,omitempty"`

	// Assignment maps rule names to columns.
	Assignment map[string]int64 `yaml:"assignment,omitempty"`

	// Lookup maps rule names to the own record's values.
	Lookup map[string]int64 `yaml:"lookup,omitempty"`

	ScanErrorRate *int64 `yaml:"scan_error_rate,omitempty"`
	Rejected      *int   `yaml:"rejected,omitempty"`
	Passes        *int   `yaml:"passes,omitempty"`

	Product *ProductExpect `yaml:"product,omitempty"`
}

// ProductExpect checks Facade.ProductWithPrefix on the own record.
type ProductExpect struct {
	Prefix  string `yaml:"prefix"`
	Value   int64  `yaml:"value"`
	Matched *int   `yaml:"matched,omitempty"`
}

// Expected error names.
const (
	ExpectAmbiguous  = "ambiguous"
	ExpectIncomplete = "incomplete"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
//
// NotesFile and RulesFile are resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "asignment:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.NotesFile != "" && !filepath.IsAbs(scenario.NotesFile) {
		scenario.NotesFile = filepath.Join(base, scenario.NotesFile)
	}
	if scenario.RulesFile != "" && !filepath.IsAbs(scenario.RulesFile) {
		scenario.RulesFile = filepath.Join(base, scenario.RulesFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Notes == "" && s.NotesFile == "":
		return fmt.Errorf("one of notes or notes_file is required")
	case s.Notes != "" && s.NotesFile != "":
		return fmt.Errorf("notes and notes_file are mutually exclusive")
	}
	if s.NotesFile != "" {
		if _, err := os.Stat(s.NotesFile); err != nil {
			return fmt.Errorf("notes file not found: %s", s.NotesFile)
		}
	}
	if s.RulesFile != "" {
		if _, err := os.Stat(s.RulesFile); err != nil {
			return fmt.Errorf("rules file not found: %s", s.RulesFile)
		}
	}

	if s.Options.Parallel < 0 {
		return fmt.Errorf("options.parallel must be non-negative")
	}

	e := s.Expect
	switch e.Error {
	case "", ExpectAmbiguous, ExpectIncomplete:
	default:
		return fmt.Errorf("expect.error: unknown error %q", e.Error)
	}
	if e.Error != "" && (e.Assignment != nil || e.Lookup != nil || e.Product != nil) {
		return fmt.Errorf("expect.error cannot be combined with assignment, lookup or product")
	}
	if e.Error == "" && e.Unresolved != nil {
		return fmt.Errorf("expect.unresolved requires expect.error")
	}
	if e.Error == "" && e.Assignment == nil && e.Lookup == nil && e.Product == nil &&
		e.ScanErrorRate == nil && e.Rejected == nil && e.Passes == nil {
		return fmt.Errorf("expect must check at least one outcome")
	}
	return nil
}
