package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/gpi/internal/gpi"
)

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertEndTime       = "end_time"
	AssertFinalValue    = "final_value"
)

// Assertion is checked after the simulation has ended.
type Assertion struct {
	Type string `yaml:"type"`

	// Line is a substring of one trace line (trace_contains).
	Line string `yaml:"line,omitempty"`

	// Lines are substrings that must match trace lines in order, with
	// other lines allowed between them (trace_order).
	Lines []string `yaml:"lines,omitempty"`

	// Op and Count: exactly Count trace events have Op (trace_count).
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Time is the expected final simulation time (end_time).
	Time uint64 `yaml:"time,omitempty"`

	// Value is read from the design after the run (final_value).
	Value *Access `yaml:"value,omitempty"`
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, ev)
		}
	}
	return buf.String()
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Line == "" {
			return fmt.Errorf("trace_contains: line is required")
		}
	case AssertTraceOrder:
		if len(a.Lines) < 2 {
			return fmt.Errorf("trace_order: at least two lines are required")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("trace_count: op is required")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count: count must not be negative")
		}
	case AssertEndTime:
	case AssertFinalValue:
		if a.Value == nil {
			return fmt.Errorf("final_value: value is required")
		}
		return validateAccess(a.Value)
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// checkAssertion evaluates a against a finished run. s is still open so
// that final values can be read.
func checkAssertion(s *gpi.Session, res *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(res.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(res.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(res.Trace, a)
	case AssertEndTime:
		if res.EndTime != a.Time {
			return &AssertionError{
				Type:     AssertEndTime,
				Expected: fmt.Sprintf("simulation ends at t=%d", a.Time),
				Actual:   fmt.Sprintf("ended at t=%d", res.EndTime),
			}
		}
		return nil
	case AssertFinalValue:
		return assertFinalValue(s, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if strings.Contains(ev.String(), a.Line) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("a line containing %q", a.Line),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder matches each line at or after the position following
// the previous match.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for i, want := range a.Lines {
		found := -1
		for j := pos; j < len(trace); j++ {
			if strings.Contains(trace[j].String(), want) {
				found = j
				break
			}
		}
		if found < 0 {
			actual := fmt.Sprintf("missing line: %q", want)
			if i > 0 {
				actual = fmt.Sprintf("%q not found after %q (pos %d)", want, a.Lines[i-1], pos)
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("lines in order: %q", a.Lines),
				Actual:   actual,
				Trace:    trace,
			}
		}
		pos = found + 1
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalValue(s *gpi.Session, a Assertion) error {
	h, err := s.Lookup(a.Value.Path)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", a.Value.Path, a.Value.Value),
			Actual:   err.Error(),
		}
	}
	got, want, err := readAs(h, a.Value)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", h.FullName(), want),
			Actual:   err.Error(),
		}
	}
	if got != want {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", h.FullName(), want),
			Actual:   fmt.Sprintf("%s = %s", h.FullName(), got),
		}
	}
	return nil
}
