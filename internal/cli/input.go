package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldres/internal/compiler"
	"github.com/roach88/fieldres/internal/config"
	"github.com/roach88/fieldres/internal/notes"
	"github.com/roach88/fieldres/internal/session"
	"github.com/roach88/fieldres/internal/store"
)

// addRulesFlag registers --rules, a CUE file replacing the notes' rules.
func addRulesFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "rules", "", "CUE rules file overriding the rules in the notes")
}

// loadNotes parses a notes file and applies an optional CUE rules file.
// Unreadable files are command errors; malformed content is reported
// through f and fails with ExitFailure.
func loadNotes(f *OutputFormatter, path, rulesFile string) (*notes.Document, error) {
	doc, err := notes.ParseFile(path)
	if err == nil && rulesFile != "" {
		err = compiler.ApplyRuleFile(doc, rulesFile)
	}
	if err == nil {
		return doc, nil
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return nil, WrapExitError(ExitCommandError, "failed to read input", err)
	}
	if outErr := f.Error(CodeParse, err.Error(), nil); outErr != nil {
		return nil, outErr
	}
	return nil, WrapExitError(ExitFailure, "invalid input", err)
}

// openSession creates a session from cfg, backed by cfg.Database when set.
// The returned close function releases the store.
func openSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, extra ...session.Option) (*session.Session, func(), error) {
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithParallel(cfg.Parallel),
		session.WithRuleSingletons(cfg.RuleSingletons),
	}

	closeFn := func() {}
	if cfg.Database != "" {
		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		logger.Debug("store opened", slog.String("path", cfg.Database))
		opts = append(opts, session.WithStore(st))
		closeFn = func() { st.Close() }
	}

	sess, err := session.New(ctx, append(opts, extra...)...)
	if err != nil {
		closeFn()
		return nil, nil, WrapExitError(ExitCommandError, "failed to start session", err)
	}
	return sess, closeFn, nil
}
