package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/resolver"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	RulesFile string
}

// FieldValue is one named value of the own record.
type FieldValue struct {
	Field  string `json:"field"`
	Column int    `json:"column"`
	Value  int64  `json:"value"`
}

// ProductReport is the product of the own record's prefixed fields.
type ProductReport struct {
	Prefix  string `json:"prefix"`
	Value   int64  `json:"value"`
	Matched int    `json:"matched"`
}

// LookupReport is the lookup command's JSON payload.
type LookupReport struct {
	Fields  []FieldValue   `json:"fields"`
	Product *ProductReport `json:"product,omitempty"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <notes> [field...]",
		Short: "Read your own record by field name",
		Long: `Resolve the column assignment and read your own record by field name.
Without field arguments every field is shown. With a non-empty --prefix the
product of the fields whose names start with it is reported too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts, args[0], args[1:])
		},
	}

	addRulesFlag(cmd, &opts.RulesFile)
	cmd.Flags().String("prefix", "departure", "field name prefix for the product")
	cmd.Flags().Bool("rule-singletons", false, "also commit rules that fit exactly one open column")

	return cmd
}

func runLookup(cmd *cobra.Command, opts *LookupOptions, path string, names []string) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	doc, err := loadNotes(f, path, opts.RulesFile)
	if err != nil {
		return err
	}

	// Lookups never record history.
	local := *cfg
	local.Database = ""
	sess, closeSession, err := openSession(cmd.Context(), cmd, &local)
	if err != nil {
		return err
	}
	defer closeSession()

	res, err := sess.Resolve(cmd.Context(), doc)
	var failure *resolver.ResolutionError
	if errors.As(err, &failure) {
		return reportUnresolved(f, res, failure)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "resolution failed", err)
	}

	if len(names) == 0 {
		names = doc.Rules.Names()
	}
	report := LookupReport{Fields: make([]FieldValue, 0, len(names))}
	var unknown []string
	for _, name := range names {
		col, ok := res.Facade.Column(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		value, _ := res.Facade.ValueOf(name, doc.Mine)
		report.Fields = append(report.Fields, FieldValue{Field: name, Column: col, Value: value})
	}
	if len(unknown) > 0 {
		if err := f.Error(CodeNotFound, fmt.Sprintf("unknown field(s): %v", unknown), doc.Rules.Names()); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("unknown field(s): %v", unknown))
	}
	slices.SortFunc(report.Fields, func(a, b FieldValue) int { return a.Column - b.Column })

	if cfg.Prefix != "" {
		value, matched, err := res.Facade.ProductWithPrefix(cfg.Prefix, doc.Mine)
		if err != nil {
			if outErr := f.Error(CodeOverflow, err.Error(), nil); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "product failed", err)
		}
		report.Product = &ProductReport{Prefix: cfg.Prefix, Value: value, Matched: matched}
	}

	if f.IsJSON() {
		return f.Success(report)
	}

	rows := make([]table.Row, len(report.Fields))
	for i, fv := range report.Fields {
		rows[i] = table.Row{fv.Field, fv.Column, fv.Value}
	}
	f.Table(table.Row{"Field", "Column", "Value"}, rows)
	if p := report.Product; p != nil {
		fmt.Fprintf(f.Writer, "Product of %d fields starting with %q: %d\n", p.Matched, p.Prefix, p.Value)
	}
	return nil
}
