package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/validate"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	RulesFile string
}

// ScanReport is the scan command's JSON payload.
type ScanReport struct {
	Records       int                  `json:"records"`
	Valid         int                  `json:"valid"`
	Rejected      []validate.Rejection `json:"rejected"`
	ScanErrorRate int64                `json:"scan_error_rate"`

	// Candidates is the number of rules fitting every valid record, per column.
	Candidates []int `json:"candidates"`

	// EmptyColumns lists columns no rule fits; such notes cannot resolve.
	EmptyColumns []int `json:"empty_columns"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <notes>",
		Short: "Report invalid nearby records and the scanning error rate",
		Long: `Check every nearby record against the rules. A record is invalid when
one of its values satisfies no rule; the scanning error rate is the sum of
those values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0])
		},
	}
	addRulesFlag(cmd, &opts.RulesFile)

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions, path string) error {
	if _, err := opts.settings(cmd); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	doc, err := loadNotes(f, path, opts.RulesFile)
	if err != nil {
		return err
	}

	res := validate.Filter(doc.Rules, doc.Nearby)
	report := ScanReport{
		Records:       len(doc.Nearby),
		Valid:         len(res.Valid),
		Rejected:      res.Rejected,
		ScanErrorRate: validate.ScanErrorRate(doc.Rules, doc.Nearby),
	}
	if report.Rejected == nil {
		report.Rejected = []validate.Rejection{}
	}

	m, err := resolver.Build(doc.Rules, res.Valid)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build candidate matrix", err)
	}
	report.Candidates = make([]int, m.Size())
	for c := range report.Candidates {
		report.Candidates[c] = m.Count(c)
	}
	report.EmptyColumns = m.EmptyColumns()
	if report.EmptyColumns == nil {
		report.EmptyColumns = []int{}
	}

	if f.IsJSON() {
		return f.Success(report)
	}

	if len(report.Rejected) > 0 {
		rows := make([]table.Row, len(report.Rejected))
		for i, r := range report.Rejected {
			rows[i] = table.Row{r.Index, joinValues(doc.Nearby[r.Index]), joinValues(r.Values)}
		}
		f.Table(table.Row{"Record", "Values", "Invalid"}, rows)
	}
	fmt.Fprintf(f.Writer, "Scan error rate: %d (%d valid, %d rejected of %d records)\n",
		report.ScanErrorRate, report.Valid, len(report.Rejected), report.Records)
	fmt.Fprintf(f.Writer, "Candidate rules per column: %v\n", report.Candidates)
	if len(report.EmptyColumns) > 0 {
		fmt.Fprintf(f.Writer, "Columns no rule fits: %v\n", report.EmptyColumns)
	}
	return nil
}

func joinValues[T ~[]int64](values T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
