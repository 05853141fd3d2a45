package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldres/internal/ir"
	"github.com/roach88/fieldres/internal/resolver"
)

// TraceSnapshot captures a scenario's outcome for golden comparison.
type TraceSnapshot struct {
	ScenarioName string
	Status       string
	Trace        []resolver.Pass
	Assignment   map[string]int64
	RuleNames    []string
}

// NewTraceSnapshot captures result under scenarioName.
func NewTraceSnapshot(scenarioName string, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: scenarioName,
		Status:       result.Status,
		Trace:        result.Trace,
		Assignment:   result.Assignment,
		RuleNames:    result.Rules,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Rules are written by name.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	passes := make([]any, len(s.Trace))
	for i, p := range s.Trace {
		committed := make([]any, len(p.Committed))
		for j, c := range p.Committed {
			committed[j] = map[string]any{
				"column": c.Column,
				"rule":   s.RuleNames[c.Rule],
				"via":    string(c.Via),
			}
		}
		passes[i] = map[string]any{
			"pass":       p.Number,
			"committed":  committed,
			"unassigned": p.UnassignedColumns,
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"status":        s.Status,
		"passes":        passes,
	}
	if s.Assignment != nil {
		result["assignment"] = s.Assignment
	}
	return result
}

// Marshal returns the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. Expectation failures are
// reported through t.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
