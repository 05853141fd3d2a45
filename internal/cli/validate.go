package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/compiler"
	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/notes"
)

// ValidateReport is the validate command's JSON payload.
type ValidateReport struct {
	File   string                     `json:"file"`
	Kind   string                     `json:"kind"` // "rules" | "notes"
	Rules  int                        `json:"rules"`
	Errors []compiler.ValidationError `json:"errors"`

	// Normalized is the notes file re-rendered, set with --print.
	Normalized string `json:"normalized,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Print bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a notes file or a CUE rules file",
		Long: `Check a notes file, or a .cue rules file, without resolving it.
Every problem is reported, not just the first. Exits 1 when any is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.Print, "print", false, "print a valid notes file in normalized form")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, path string) error {
	if _, err := opts.settings(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	report := ValidateReport{File: path, Kind: "notes"}
	var (
		rules ir.RuleSet
		doc   *notes.Document
		err   error
	)
	if filepath.Ext(path) == ".cue" {
		report.Kind = "rules"
		rules, err = compiler.LoadRuleFile(path)
	} else {
		doc, err = notes.ParseFile(path)
		if err == nil {
			rules = doc.Rules
			report.Errors = append(report.Errors, compiler.ValidateRecords(rules, []ir.Record{doc.Mine}, "mine")...)
			report.Errors = append(report.Errors, compiler.ValidateRecords(rules, doc.Nearby, "nearby")...)
		}
	}
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
		if outErr := f.Error(CodeParse, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "invalid input", err)
	}

	report.Rules = len(rules)
	report.Errors = append(compiler.Validate(rules), report.Errors...)
	if report.Errors == nil {
		report.Errors = []compiler.ValidationError{}
	}
	if opts.Print && doc != nil && len(report.Errors) == 0 {
		var buf strings.Builder
		if err := notes.Format(&buf, doc); err != nil {
			return WrapExitError(ExitCommandError, "failed to render notes", err)
		}
		report.Normalized = buf.String()
	}

	if f.IsJSON() {
		if len(report.Errors) > 0 {
			if err := f.Error(CodeInvalid, fmt.Sprintf("%d validation error(s)", len(report.Errors)), report); err != nil {
				return err
			}
		} else if err := f.Success(report); err != nil {
			return err
		}
	} else {
		for _, e := range report.Errors {
			fmt.Fprintf(f.Writer, "✗ %s\n", e.Error())
		}
		if len(report.Errors) == 0 {
			fmt.Fprintf(f.Writer, "✓ %s: %d rules valid\n", path, report.Rules)
		}
		if report.Normalized != "" {
			fmt.Fprintf(f.Writer, "\n%s", report.Normalized)
		}
	}

	if len(report.Errors) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d validation error(s)", path, len(report.Errors)))
	}
	return nil
}
