package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// RunReport is one stored run with its pairs.
type RunReport struct {
	Run   store.Run    `json:"run"`
	Pairs []store.Pair `json:"pairs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded resolution runs",
		Long: `List the runs recorded by resolve --db, oldest first. With a run ID,
show that run and the pairs it committed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(cmd, opts, args[0])
			}
			return runHistoryList(cmd, opts)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many runs (0 = all)")

	return cmd
}

// openHistory opens an existing database. history never creates one.
func openHistory(cmd *cobra.Command, opts *HistoryOptions) (*store.Store, error) {
	cfg, err := opts.settings(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(cfg.Database); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	st, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer st.Close()
	f := opts.formatter(cmd)

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if f.IsJSON() {
		return f.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded")
		return nil
	}
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		rows[i] = table.Row{r.Seq, r.ID, r.Status, r.Passes, r.ValidRecords, r.RejectedRecords, shortHash(r.RuleSetHash)}
	}
	f.Table(table.Row{"Seq", "Run", "Status", "Passes", "Valid", "Rejected", "Rule set"}, rows)
	return nil
}

func runHistoryShow(cmd *cobra.Command, opts *HistoryOptions, id string) error {
	st, err := openHistory(cmd, opts)
	if err != nil {
		return err
	}
	defer st.Close()
	f := opts.formatter(cmd)

	run, pairs, err := st.ReadRun(cmd.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		if outErr := f.Error(CodeNotFound, fmt.Sprintf("run %s not found", id), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if pairs == nil {
		pairs = []store.Pair{}
	}

	if f.IsJSON() {
		return f.Success(RunReport{Run: run, Pairs: pairs})
	}

	fmt.Fprintf(f.Writer, "Run %s (seq %d): %s", run.ID, run.Seq, run.Status)
	if run.ErrorCode != "" {
		fmt.Fprintf(f.Writer, " [%s]", run.ErrorCode)
	}
	fmt.Fprintf(f.Writer, "\nRule set:   %s\nRecords:    %s\n", run.RuleSetHash, run.RecordsHash)
	if run.AssignmentHash != "" {
		fmt.Fprintf(f.Writer, "Assignment: %s\n", run.AssignmentHash)
	}
	if len(pairs) > 0 {
		f.Table(table.Row{"Column", "Field", "Pass", "Via"}, pairRows(pairs))
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
