package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 1, SimTime: 0, Op: "set", Detail: "top.count=0011"},
		{Step: 2, SimTime: 5, Op: "wait", Detail: "rising top.clk"},
		{Step: 3, SimTime: 5, Op: "expect", Detail: "top.count=0011"},
		{Step: 4, SimTime: 8, Op: "wait", Detail: "timer 3"},
		{Step: 5, SimTime: 8, Op: "end"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Type: AssertTraceContains, Line: "t=5 wait rising"}))

	err := assertTraceContains(trace, Assertion{Type: AssertTraceContains, Line: "falling"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "trace_contains", ae.Type)
	assert.Contains(t, ae.Expected, "falling")
	assert.Equal(t, "not found in trace", ae.Actual)
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	t.Run("in order with gaps", func(t *testing.T) {
		a := Assertion{Type: AssertTraceOrder, Lines: []string{"set top.count", "timer 3", "end"}}
		assert.NoError(t, assertTraceOrder(trace, a))
	})

	t.Run("reversed", func(t *testing.T) {
		a := Assertion{Type: AssertTraceOrder, Lines: []string{"timer 3", "set top.count"}}
		err := assertTraceOrder(trace, a)
		require.Error(t, err)
		var ae *AssertionError
		require.ErrorAs(t, err, &ae)
		assert.Contains(t, ae.Actual, `"set top.count" not found after "timer 3"`)
	})

	t.Run("same line cannot match twice", func(t *testing.T) {
		a := Assertion{Type: AssertTraceOrder, Lines: []string{"top.count=0011", "top.count=0011", "top.count=0011"}}
		assert.Error(t, assertTraceOrder(trace, a))
	})

	t.Run("missing first line", func(t *testing.T) {
		a := Assertion{Type: AssertTraceOrder, Lines: []string{"lookup", "end"}}
		err := assertTraceOrder(trace, a)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing line: "lookup"`)
	})
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Op: "wait", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Op: "lookup", Count: 0}))

	err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Op: "wait", Count: 3})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "3 wait events", ae.Expected)
	assert.Equal(t, "2 events", ae.Actual)
}

func TestCheckAssertion_EndTime(t *testing.T) {
	res := NewResult()
	res.EndTime = 10

	assert.NoError(t, checkAssertion(nil, res, Assertion{Type: AssertEndTime, Time: 10}))
	err := checkAssertion(nil, res, Assertion{Type: AssertEndTime, Time: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ended at t=10")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 end events",
		Actual:   "0 events",
		Trace:    sampleTrace()[:2],
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "  [1] t=0 set top.count=0011\n")
	assert.Contains(t, msg, "  [2] t=5 wait rising top.clk\n")
}

func TestValidateAssertion(t *testing.T) {
	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"contains ok", Assertion{Type: AssertTraceContains, Line: "x"}, ""},
		{"contains no line", Assertion{Type: AssertTraceContains}, "line is required"},
		{"order one line", Assertion{Type: AssertTraceOrder, Lines: []string{"x"}}, "at least two lines"},
		{"count no op", Assertion{Type: AssertTraceCount}, "op is required"},
		{"count negative", Assertion{Type: AssertTraceCount, Op: "wait", Count: -1}, "must not be negative"},
		{"end time zero ok", Assertion{Type: AssertEndTime}, ""},
		{"final value missing", Assertion{Type: AssertFinalValue}, "value is required"},
		{"final value bad int", Assertion{Type: AssertFinalValue, Value: &Access{Path: "top.count", Value: "x", As: FormatInt}}, "not an integer"},
		{"no type", Assertion{}, "type is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
