package harness

import "fmt"

// TraceEvent is one executed step.
type TraceEvent struct {
	Step    int
	SimTime uint64
	Op      string
	Detail  string
}

func (e TraceEvent) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("t=%d %s", e.SimTime, e.Op)
	}
	return fmt.Sprintf("t=%d %s %s", e.SimTime, e.Op, e.Detail)
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect step and assertion held.
	Pass bool

	SessionID string
	Backends  []string
	EndTime   uint64

	// Digest is the hierarchy digest of the toplevel, see ir.Digest.
	Digest string

	Trace  []TraceEvent
	Errors []string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Lines returns the trace as text, one line per event.
func (r *Result) Lines() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.String()
	}
	return out
}
