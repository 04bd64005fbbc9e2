package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gpi/internal/ir"
)

// Snapshot is the canonical form of a result compared against golden
// files. The hierarchy digest is left out so that adding an object to a
// design does not churn every golden trace.
func Snapshot(name string, r *Result) ([]byte, error) {
	backends := make(ir.Array, len(r.Backends))
	for i, b := range r.Backends {
		backends[i] = ir.String(b)
	}
	trace := make(ir.Array, len(r.Trace))
	for i, line := range r.Lines() {
		trace[i] = ir.String(line)
	}
	obj := ir.NewObject(
		ir.P("scenario", ir.String(name)),
		ir.P("session_id", ir.String(r.SessionID)),
		ir.P("backends", backends),
		ir.P("pass", ir.Bool(r.Pass)),
		ir.P("end_time", ir.Int(r.EndTime)),
		ir.P("trace", trace),
	)
	return ir.MarshalCanonical(obj)
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	res, err := Run(context.Background(), sc, opts...)
	if err != nil {
		return nil, err
	}
	return res, AssertGolden(t, sc.Name, res)
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, r *Result) error {
	t.Helper()

	data, err := Snapshot(name, r)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
