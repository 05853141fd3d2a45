package resolver

import (
	"slices"

	"github.com/roach88/fieldres/internal/ir"
)

// Resolve turns a candidate matrix into a column/rule bijection by
// forced-singleton elimination. m is not modified.
//
// Errors are always *ResolutionError:
//   - ErrCodeAmbiguous: a pass committed nothing
//   - ErrCodeIncomplete: the finished mapping failed verification
//
// Commits only ever take open rules, so two columns forced onto the same
// rule end as ErrCodeAmbiguous with the loser listed in Empty, not as
// ErrCodeIncomplete. ErrCodeIncomplete guards the bookkeeping itself.
//
// Terminates within m.Size() passes.
func Resolve(m *CandidateMatrix, opts ...Option) (*Assignment, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := newRun(m, cfg)
	for pass := 1; r.open > 0; pass++ {
		committed := r.runPass()
		if len(committed) == 0 {
			unresolved, empty := r.unresolved()
			cfg.logger.Debug("resolution stuck",
				"pass", pass,
				"unresolved", len(unresolved),
				"empty", len(empty),
			)
			return nil, newAmbiguousError(pass, unresolved, empty)
		}

		cfg.logger.Debug("pass committed",
			"pass", pass,
			"committed", len(committed),
			"open", r.open,
		)
		if cfg.observer != nil {
			cfg.observer(Pass{
				Number:            pass,
				Committed:         committed,
				UnassignedColumns: r.open,
				UnassignedRules:   r.openRules.count(),
			})
		}
	}

	if err := r.assignment.Verify(); err != nil {
		return nil, newIncompleteError(err)
	}
	return r.assignment, nil
}

// run holds the working state of one Resolve call.
//
// INVARIANTS:
//   - ruleCols[r] has c iff c is open and r is in work.cols[c]
//   - openCols.count() == openRules.count() == open
type run struct {
	cfg        options
	work       *CandidateMatrix
	ruleCols   []bitset
	openCols   bitset
	openRules  bitset
	open       int
	queue      []int
	queued     bitset
	assignment *Assignment
}

func newRun(m *CandidateMatrix, cfg options) *run {
	n := m.Size()
	r := &run{
		cfg:        cfg,
		work:       m.Clone(),
		ruleCols:   make([]bitset, n),
		openCols:   newBitset(n),
		openRules:  newBitset(n),
		open:       n,
		queued:     newBitset(n),
		assignment: newAssignment(n),
	}
	r.openCols.fill(n)
	r.openRules.fill(n)
	for rule := range r.ruleCols {
		r.ruleCols[rule] = newBitset(n)
	}

	// First pass considers every column that starts as a singleton.
	for c, set := range r.work.cols {
		for _, rule := range set.members() {
			r.ruleCols[rule].set(c)
		}
		if set.count() == 1 {
			r.enqueue(c)
		}
	}
	return r
}

// runPass commits every singleton available at the start of the pass and
// returns the committed pairs.
func (r *run) runPass() []Pair {
	current := r.queue
	slices.Sort(current)
	r.queue = nil
	r.queued = newBitset(r.work.Size())

	var committed []Pair
	for _, col := range current {
		// Re-check: an earlier commit in this pass may have emptied the column.
		if !r.openCols.has(col) || r.work.cols[col].count() != 1 {
			continue
		}
		rule := ir.RuleID(r.work.cols[col].first())
		committed = append(committed, r.commit(col, rule, ViaColumn))
	}

	if r.cfg.ruleSingletons {
		for _, rule := range r.openRules.members() {
			cols := r.ruleCols[rule]
			if !r.openRules.has(rule) || cols.count() != 1 {
				continue
			}
			committed = append(committed, r.commit(cols.first(), ir.RuleID(rule), ViaRule))
		}
	}
	return committed
}

// commit finalizes (col, rule), closes both, and strips rule from every other
// open column. Columns left with exactly one candidate are queued.
func (r *run) commit(col int, rule ir.RuleID, via Via) Pair {
	r.assignment.set(col, rule)
	r.openCols.clear(col)
	r.openRules.clear(int(rule))
	r.open--

	for _, other := range r.work.cols[col].members() {
		r.ruleCols[other].clear(col)
	}
	r.work.cols[col] = newBitset(r.work.Size())
	r.work.cols[col].set(int(rule))

	for _, other := range r.ruleCols[rule].members() {
		r.work.cols[other].clear(int(rule))
		if r.work.cols[other].count() == 1 {
			r.enqueue(other)
		}
	}
	r.ruleCols[rule] = newBitset(r.work.Size())

	r.cfg.logger.Debug("committed", "column", col, "rule", int(rule), "via", string(via))
	return Pair{Column: col, Rule: rule, Via: via}
}

func (r *run) enqueue(col int) {
	if r.queued.has(col) {
		return
	}
	r.queued.set(col)
	r.queue = append(r.queue, col)
}

// unresolved lists open columns and the subset with no candidates left.
func (r *run) unresolved() (open, empty []int) {
	open = r.openCols.members()
	empty = []int{}
	for _, c := range open {
		if r.work.cols[c].count() == 0 {
			empty = append(empty, c)
		}
	}
	return open, empty
}
