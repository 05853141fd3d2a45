package compiler

import (
	"fmt"

	"github.com/roach88/fieldres/internal/notes"
)

// ApplyRuleFile replaces doc's rules with the rules compiled from a CUE
// file. The file must declare one rule per record column.
func ApplyRuleFile(doc *notes.Document, path string) error {
	rules, err := LoadRuleFile(path)
	if err != nil {
		return err
	}
	if len(rules) != len(doc.Rules) {
		return fmt.Errorf("rules file %s has %d rules, notes records have %d columns",
			path, len(rules), len(doc.Rules))
	}
	doc.Rules = rules
	return nil
}
