// Package session runs the resolution pipeline over a parsed notes
// document: validate, build, resolve, and wrap the result in a lookup
// facade. Runs are optionally persisted to a store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/lookup"
	"github.com/roach88/fieldres/internal/notes"
	"github.com/roach88/fieldres/internal/resolver"
	"github.com/roach88/fieldres/internal/store"
	"github.com/roach88/fieldres/internal/validate"
)

// Session owns the collaborators shared by every run: logger, optional
// store, ID generator and logical clock.
type Session struct {
	logger         *slog.Logger
	store          *store.Store
	ids            IDGenerator
	clock          *Clock
	parallel       int
	ruleSingletons bool
	excludeMine    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore persists every run to st.
func WithStore(st *store.Store) Option {
	return func(s *Session) {
		s.store = st
	}
}

// WithIDGenerator overrides the run ID generator. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Session) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithParallel builds the candidate matrix with up to workers goroutines.
// Values <= 1 build sequentially.
func WithParallel(workers int) Option {
	return func(s *Session) {
		s.parallel = workers
	}
}

// WithRuleSingletons enables hidden-single commits in the resolver.
func WithRuleSingletons(enabled bool) Option {
	return func(s *Session) {
		s.ruleSingletons = enabled
	}
}

// WithoutOwnRecord keeps the own record out of the candidate matrix.
// By default a valid own record constrains columns like any nearby record.
func WithoutOwnRecord() Option {
	return func(s *Session) {
		s.excludeMine = true
	}
}

// New creates a session. With a store, the clock resumes after the
// store's last seq.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	s := &Session{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.clock = NewClock()
	if s.store != nil {
		last, err := s.store.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		s.clock = NewClockAt(last)
	}
	s.logger.Debug("session opened", "seq", s.clock.Current(), "stored", s.store != nil)
	return s, nil
}

// Result is everything one run produced. Assignment and Facade are nil
// when resolution failed.
type Result struct {
	RunID          string
	Seq            int64
	Rules          ir.RuleSet
	Mine           ir.Record
	Validation     validate.Result
	ScanErrorRate  int64
	Records        []ir.Record
	Matrix         *resolver.CandidateMatrix
	Passes         []resolver.Pass
	Assignment     *resolver.Assignment
	Facade         *lookup.Facade
	RuleSetHash    string
	RecordsHash    string
	AssignmentHash string
}

// Resolve runs the pipeline over doc.
//
// A resolution failure returns a non-nil Result (validation, matrix and
// the passes that did commit) together with the *resolver.ResolutionError.
// Any other error returns a nil Result.
func (s *Session) Resolve(ctx context.Context, doc *notes.Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID: s.ids.Generate(),
		Seq:   s.clock.Next(),
		Rules: doc.Rules,
		Mine:  doc.Mine,
	}
	log := s.logger.With("run", res.RunID, "seq", res.Seq)

	res.Validation = validate.Filter(doc.Rules, doc.Nearby)
	res.ScanErrorRate = validate.ScanErrorRate(doc.Rules, doc.Nearby)
	log.Debug("validated records",
		"valid", len(res.Validation.Valid),
		"rejected", len(res.Validation.Rejected),
		"scan_error_rate", res.ScanErrorRate,
	)

	res.Records = res.Validation.Valid
	if !s.excludeMine && doc.Mine != nil {
		if validate.RecordIsValid(doc.Rules, doc.Mine) {
			res.Records = append([]ir.Record{doc.Mine}, res.Records...)
		} else {
			log.Warn("own record fails validation, excluded from matrix",
				"invalid_values", validate.InvalidValues(doc.Rules, doc.Mine))
		}
	}

	var err error
	if res.RuleSetHash, err = ir.RuleSetHash(doc.Rules); err != nil {
		return nil, err
	}
	if res.RecordsHash, err = ir.RecordsHash(res.Records); err != nil {
		return nil, err
	}

	if s.parallel > 1 {
		res.Matrix, err = resolver.BuildParallel(ctx, doc.Rules, res.Records, s.parallel)
	} else {
		res.Matrix, err = resolver.Build(doc.Rules, res.Records)
	}
	if err != nil {
		return nil, err
	}

	a, resolveErr := resolver.Resolve(res.Matrix,
		resolver.WithLogger(log),
		resolver.WithRuleSingletons(s.ruleSingletons),
		resolver.WithObserver(func(p resolver.Pass) {
			res.Passes = append(res.Passes, p)
		}),
	)
	if resolveErr != nil {
		var re *resolver.ResolutionError
		if !errors.As(resolveErr, &re) {
			return nil, resolveErr
		}
		log.Info("resolution failed", "code", string(re.Code), "pass", re.Pass, "unresolved", len(re.Unresolved))
		if err := s.persist(ctx, res, re); err != nil {
			return nil, err
		}
		return res, resolveErr
	}

	res.Assignment = a
	res.Facade = lookup.New(doc.Rules, a)
	if res.AssignmentHash, err = ir.AssignmentHash(a.Named(doc.Rules)); err != nil {
		return nil, err
	}
	log.Info("resolved", "passes", len(res.Passes), "columns", a.Len())

	if err := s.persist(ctx, res, nil); err != nil {
		return nil, err
	}
	return res, nil
}

// persist writes res to the store, if any.
func (s *Session) persist(ctx context.Context, res *Result, failure *resolver.ResolutionError) error {
	if s.store == nil {
		return nil
	}

	run := store.Run{
		ID:              res.RunID,
		Seq:             res.Seq,
		RuleSetHash:     res.RuleSetHash,
		RecordsHash:     res.RecordsHash,
		AssignmentHash:  res.AssignmentHash,
		Status:          store.StatusResolved,
		Passes:          len(res.Passes),
		ValidRecords:    len(res.Validation.Valid),
		RejectedRecords: len(res.Validation.Rejected),
		ResolverVersion: ir.ResolverVersion,
		IRVersion:       ir.IRVersion,
	}
	var pairs []store.Pair
	if failure != nil {
		run.ErrorCode = string(failure.Code)
		run.Status = store.StatusAmbiguous
		if failure.Code == resolver.ErrCodeIncomplete {
			run.Status = store.StatusIncomplete
		}
	} else {
		pairs = res.StorePairs()
	}

	if err := s.store.WriteRun(ctx, run, pairs); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.logger.Debug("run stored", "run", run.ID, "status", run.Status)
	return nil
}

// StorePairs flattens the committed passes into named store pairs.
func (r *Result) StorePairs() []store.Pair {
	var pairs []store.Pair
	for _, p := range r.Passes {
		for _, c := range p.Committed {
			pairs = append(pairs, store.Pair{
				Column: c.Column,
				Rule:   r.Rules[c.Rule].Name,
				Pass:   p.Number,
				Via:    string(c.Via),
			})
		}
	}
	return pairs
}
