package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/fieldres/internal/compiler"
	"github.com/roach88/fieldres/internal/notes"
	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/session"
	"github.com/roach88/fieldres/internal/store"
	"github.com/roach88/fieldres/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory store for isolation. A resolution
// failure is an outcome, not an error: it fails the result unless the
// scenario expects it. The returned error covers setup problems only
// (unreadable notes, bad rule files, store failures).
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	doc, err := loadDocument(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	opts := []session.Option{
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		session.WithStore(st),
		session.WithIDGenerator(testutil.NewSequenceIDGenerator(scenario.Name)),
		session.WithParallel(scenario.Options.Parallel),
		session.WithRuleSingletons(scenario.Options.RuleSingletons),
	}
	if scenario.Options.ExcludeOwn {
		opts = append(opts, session.WithoutOwnRecord())
	}
	sess, err := session.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, resolveErr := sess.Resolve(ctx, doc)
	var failure *resolver.ResolutionError
	if resolveErr != nil && !errors.As(resolveErr, &failure) {
		return nil, resolveErr
	}

	result := NewResult()
	result.Rules = res.Rules.Names()
	result.Trace = append(result.Trace, res.Passes...)
	result.Status = store.StatusResolved
	if failure != nil {
		result.Status = strings.ToLower(string(failure.Code))
	} else {
		result.Assignment = res.Facade.Mapping()
	}

	for _, msg := range evaluate(scenario.Expect, res, failure) {
		result.AddError(msg)
	}

	// The stored run must agree with what the session returned.
	if err := checkStored(ctx, st, res, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadDocument parses the scenario notes and applies a CUE rule override.
func loadDocument(scenario *Scenario) (*notes.Document, error) {
	var (
		doc *notes.Document
		err error
	)
	if scenario.NotesFile != "" {
		doc, err = notes.ParseFile(scenario.NotesFile)
	} else {
		doc, err = notes.Parse(strings.NewReader(scenario.Notes))
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	if scenario.RulesFile != "" {
		if err := compiler.ApplyRuleFile(doc, scenario.RulesFile); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}
	return doc, nil
}

func checkStored(ctx context.Context, st *store.Store, res *session.Result, result *Result) error {
	run, pairs, err := st.ReadRun(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("read stored run: %w", err)
	}
	if run.Status != result.Status {
		result.AddError(fmt.Sprintf("stored status %q, want %q", run.Status, result.Status))
	}
	if result.Assignment != nil && len(pairs) != len(result.Assignment) {
		result.AddError(fmt.Sprintf("stored %d pairs, want %d", len(pairs), len(result.Assignment)))
	}
	return nil
}
