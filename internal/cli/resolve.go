package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/session"
	"github.com/roach88/fieldres/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	RulesFile  string
	ExcludeOwn bool
}

// ResolveReport is the resolve command's JSON payload.
type ResolveReport struct {
	RunID           string           `json:"run_id"`
	Seq             int64            `json:"seq"`
	Assignment      map[string]int64 `json:"assignment"`
	Pairs           []store.Pair     `json:"pairs"`
	Passes          int              `json:"passes"`
	ValidRecords    int              `json:"valid_records"`
	RejectedRecords int              `json:"rejected_records"`
	ScanErrorRate   int64            `json:"scan_error_rate"`
	RuleSetHash     string           `json:"ruleset_hash"`
	AssignmentHash  string           `json:"assignment_hash"`
}

// UnresolvedDetails describes a failed resolution.
type UnresolvedDetails struct {
	Pass       int          `json:"pass"`
	Unresolved []int        `json:"unresolved"`
	Empty      []int        `json:"empty,omitempty"`
	Committed  []store.Pair `json:"committed"`

	// Candidates names the rules each unresolved column started with.
	Candidates map[int][]string `json:"candidates,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <notes>",
		Short: "Resolve which column carries which field",
		Long: `Discard invalid nearby records, build the candidate matrix and resolve
the column assignment by forced-singleton elimination.

With --db the run and its committed pairs are recorded in a SQLite
database. Exits 1 when the records leave the assignment ambiguous.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, args[0])
		},
	}

	addRulesFlag(cmd, &opts.RulesFile)
	cmd.Flags().String("db", "", "path to SQLite database for run history")
	cmd.Flags().Int("parallel", 0, "build the candidate matrix with this many workers")
	cmd.Flags().Bool("rule-singletons", false, "also commit rules that fit exactly one open column")
	cmd.Flags().BoolVar(&opts.ExcludeOwn, "exclude-own", false, "leave your own record out of the candidate matrix")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions, path string) error {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	doc, err := loadNotes(f, path, opts.RulesFile)
	if err != nil {
		return err
	}

	var extra []session.Option
	if opts.ExcludeOwn {
		extra = append(extra, session.WithoutOwnRecord())
	}
	sess, closeSession, err := openSession(cmd.Context(), cmd, cfg, extra...)
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

	pairs := sortedPairs(res.StorePairs())
	report := ResolveReport{
		RunID:           res.RunID,
		Seq:             res.Seq,
		Assignment:      res.Facade.Mapping(),
		Pairs:           pairs,
		Passes:          len(res.Passes),
		ValidRecords:    len(res.Validation.Valid),
		RejectedRecords: len(res.Validation.Rejected),
		ScanErrorRate:   res.ScanErrorRate,
		RuleSetHash:     res.RuleSetHash,
		AssignmentHash:  res.AssignmentHash,
	}
	if f.IsJSON() {
		return f.Success(report)
	}

	f.Table(table.Row{"Column", "Field", "Pass", "Via"}, pairRows(pairs))
	fmt.Fprintf(f.Writer, "Resolved %d columns in %d passes from %d valid records (%d rejected)\n",
		len(pairs), report.Passes, report.ValidRecords, report.RejectedRecords)
	if cfg.Database != "" {
		fmt.Fprintf(f.Writer, "Run %s recorded in %s\n", report.RunID, cfg.Database)
	}
	return nil
}

// reportUnresolved writes a resolution failure and returns the exit error.
func reportUnresolved(f *OutputFormatter, res *session.Result, failure *resolver.ResolutionError) error {
	code := CodeAmbiguous
	if failure.Code == resolver.ErrCodeIncomplete {
		code = CodeIncomplete
	}
	details := UnresolvedDetails{
		Pass:       failure.Pass,
		Unresolved: failure.Unresolved,
		Empty:      failure.Empty,
		Committed:  []store.Pair{},
	}
	if res != nil {
		details.Committed = append(details.Committed, sortedPairs(res.StorePairs())...)
		if res.Matrix != nil {
			details.Candidates = make(map[int][]string, len(failure.Unresolved))
			for _, col := range failure.Unresolved {
				names := []string{}
				for _, id := range res.Matrix.Candidates(col) {
					names = append(names, res.Rules[id].Name)
				}
				details.Candidates[col] = names
			}
		}
	}
	if details.Unresolved == nil {
		details.Unresolved = []int{}
	}

	if err := f.Error(code, failure.Message, details); err != nil {
		return err
	}
	if !f.IsJSON() {
		if len(details.Committed) > 0 {
			f.Table(table.Row{"Column", "Field", "Pass", "Via"}, pairRows(details.Committed))
		}
		fmt.Fprintf(f.Writer, "Unresolved columns: %v\n", details.Unresolved)
		for _, col := range details.Unresolved {
			fmt.Fprintf(f.Writer, "  column %d: %s\n", col, strings.Join(details.Candidates[col], ", "))
		}
		if len(details.Empty) > 0 {
			fmt.Fprintf(f.Writer, "Columns with no candidate: %v\n", details.Empty)
		}
	}
	return WrapExitError(ExitFailure, "resolution failed", failure)
}

func sortedPairs(pairs []store.Pair) []store.Pair {
	out := slices.Clone(pairs)
	slices.SortFunc(out, func(a, b store.Pair) int { return a.Column - b.Column })
	if out == nil {
		out = []store.Pair{}
	}
	return out
}

func pairRows(pairs []store.Pair) []table.Row {
	rows := make([]table.Row, len(pairs))
	for i, p := range pairs {
		rows[i] = table.Row{p.Column, p.Rule, p.Pass, p.Via}
	}
	return rows
}
