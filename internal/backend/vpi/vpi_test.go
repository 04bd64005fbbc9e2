package vpi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
	"github.com/roach88/gpi/internal/testutil"
)

func newSession(t *testing.T, opts ...sim.KernelOption) (*gpi.Session, *sim.Kernel) {
	t.Helper()
	k := testutil.Kernel(t, testutil.SoCDesign, opts...)
	s, err := gpi.NewSession([]gpi.Native{New(k)}, gpi.WithIDGenerator(testutil.NewFixedSessionGenerator("")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, k
}

func mustLookup(t *testing.T, s *gpi.Session, path string) *gpi.Handle {
	t.Helper()
	h, err := s.Lookup(path)
	require.NoError(t, err, path)
	return h
}

func TestLookup_NamesAndKinds(t *testing.T) {
	s, _ := newSession(t)

	tests := []struct {
		path string
		full string
		kind gpi.Kind
	}{
		{"top", "top", gpi.KindModule},
		{"top.clk", "top.clk", gpi.KindRegister},
		{"top.count", "top.count", gpi.KindRegister},
		{"top.count[3]", "top.count[3]", gpi.KindRegister},
		{"top.state", "top.state", gpi.KindEnum},
		{"top.pair", "top.pair", gpi.KindStructure},
		{"top.pair.data", "top.pair.data", gpi.KindRegister},
		{"top.pair.data[7]", "top.pair.data[7]", gpi.KindRegister},
		{"top.grid", "top.grid", gpi.KindArray},
		{"top.grid[1][2]", "top.grid[1][2]", gpi.KindInteger},
		{"top.ratio", "top.ratio", gpi.KindReal},
		{"top.label", "top.label", gpi.KindString},
		{"top.WIDTH", "top.WIDTH", gpi.KindParameter},
		{"top.gen", "top.gen", gpi.KindGenArray},
		{"top.gen[1]", "top.gen[1]", gpi.KindModule},
		{"top.gen[1].q", "top.gen[1].q", gpi.KindRegister},
		{"top.sub.busy", "top.sub.busy", gpi.KindInteger},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := mustLookup(t, s, tt.path)
			assert.Equal(t, tt.full, h.FullName())
			assert.Equal(t, tt.kind, h.Kind())
		})
	}
}

func TestLookup_Misses(t *testing.T) {
	s, _ := newSession(t)

	for _, path := range []string{
		"top.nope",
		"TOP.clk",
		"top.count[4]",
		"top.gen[2]",
		"top.sub.proc",
	} {
		_, err := s.Lookup(path)
		assert.True(t, gpi.IsNotFound(err), path)
	}
}

func TestValues(t *testing.T) {
	s, k := newSession(t)

	v, err := mustLookup(t, s, "top.count").BinStr()
	require.NoError(t, err)
	assert.Equal(t, "0101", v)

	v, err = mustLookup(t, s, "top.count[2]").BinStr()
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = mustLookup(t, s, "top.pair.data").BinStr()
	require.NoError(t, err)
	assert.Equal(t, "uuuuuuuu", v, "unknown bits are reported in lower case")

	str, err := mustLookup(t, s, "top.label").Str()
	require.NoError(t, err)
	assert.Equal(t, "hello", str)

	str, err = mustLookup(t, s, "top.state").Str()
	require.NoError(t, err)
	assert.Equal(t, "RUN", str)

	r, err := mustLookup(t, s, "top.ratio").Real()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r, 1e-12)

	width := mustLookup(t, s, "top.WIDTH")
	assert.True(t, width.IsConst())
	n, err := width.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.True(t, gpi.IsReadOnly(width.SetInt(4)))

	cell := mustLookup(t, s, "top.grid[1][2]")
	require.NoError(t, cell.SetInt(42))
	node, ok := k.Design().Lookup("top.grid")
	require.True(t, ok)
	got, err := node.Elements[2].Int()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got, "grid(1,2) is the third element in row-major order")
}

func TestIterate_TopScope(t *testing.T) {
	s, _ := newSession(t)

	var names []string
	for r := range s.Iterate(mustLookup(t, s, "top"), gpi.IterObjects).Seq() {
		require.Equal(t, gpi.IterFound, r.Status, r.Name)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"gen", "sub",
		"clk", "count", "q_in",
		"grid",
		"state", "pair", "ratio", "label",
		"WIDTH",
	}, names)
}

func TestIterate_ProcessIsNotNative(t *testing.T) {
	s, _ := newSession(t)

	it := s.Iterate(mustLookup(t, s, "top.sub"), gpi.IterObjects)

	r := it.Next()
	require.Equal(t, gpi.IterFound, r.Status)
	assert.Equal(t, "busy", r.Name)

	r = it.Next()
	require.Equal(t, gpi.IterNotNative, r.Status)
	assert.Equal(t, "proc", r.Name)
	assert.NotNil(t, r.Raw)

	assert.Equal(t, gpi.IterEnd, it.Next().Status)
}

func TestIterate_GenerateInstances(t *testing.T) {
	s, _ := newSession(t)

	hs := s.Iterate(mustLookup(t, s, "top.gen"), gpi.IterObjects).Handles()
	require.Len(t, hs, 2)
	assert.Equal(t, "top.gen[0]", hs[0].FullName())
	assert.Equal(t, "top.gen[1]", hs[1].FullName())
	assert.Same(t, mustLookup(t, s, "top.gen[1]"), hs[1])
}

func TestIterate_DriversAndLoads(t *testing.T) {
	s, _ := newSession(t)

	drivers := s.Iterate(mustLookup(t, s, "top.q_in"), gpi.IterDrivers).Handles()
	require.Len(t, drivers, 1)
	assert.Equal(t, "top.gen[0].q", drivers[0].FullName())

	loads := s.Iterate(mustLookup(t, s, "top.gen[1].q"), gpi.IterLoads).Handles()
	require.Len(t, loads, 1)
	assert.Equal(t, "top.q_in", loads[0].FullName())
}

func TestIterate_DriversKeepHierarchy(t *testing.T) {
	s, _ := newSession(t)

	drivers := s.Iterate(mustLookup(t, s, "top.q_in"), gpi.IterDrivers).Handles()
	require.Len(t, drivers, 1)

	q := mustLookup(t, s, "top.gen[0].q")
	assert.Same(t, drivers[0], q)
	assert.Equal(t, "q", q.ShortName())

	gen0 := mustLookup(t, s, "top.gen[0]")
	require.NotNil(t, q.Parent())
	assert.Same(t, gen0, q.Parent())
	assert.Same(t, q, s.ResolveName(gen0, q.ShortName()))
}

func TestCallbacks_ClockEdges(t *testing.T) {
	s, k := newSession(t, sim.WithStopTime(testutil.SoCStop))

	clk := mustLookup(t, s, "top.clk")
	var rises []uint64
	require.NotNil(t, s.RegisterValueChange(clk, gpi.EdgeRising, func(cb *gpi.Callback) {
		rises = append(rises, s.SimTime())
		require.NoError(t, cb.Arm())
	}))

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []uint64{5, 15, 25, 35}, rises)
}

func TestCallbacks_DepositWakesWatcher(t *testing.T) {
	s, k := newSession(t, sim.WithStopTime(testutil.SoCStop))

	count := mustLookup(t, s, "top.count")
	var seen []string
	require.NotNil(t, s.RegisterValueChange(count, gpi.EdgeAny, func(cb *gpi.Callback) {
		v, err := count.BinStr()
		require.NoError(t, err)
		seen = append(seen, v)
	}))
	require.NotNil(t, s.RegisterTimer(3, func(*gpi.Callback) {
		require.NoError(t, count.SetInt(9))
	}))

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{"1001"}, seen)
}

func TestCallbacks_TimerCannotBeCancelled(t *testing.T) {
	s, k := newSession(t, sim.WithStopTime(testutil.SoCStop))

	called := false
	cb := s.RegisterTimer(20, func(*gpi.Callback) { called = true })
	require.NotNil(t, cb)
	s.Deregister(cb)
	assert.Equal(t, gpi.StatePendingDelete, cb.State())

	require.NoError(t, k.Run(context.Background()))
	assert.False(t, called)
	assert.Equal(t, gpi.StateFree, cb.State())
	assert.Equal(t, 1, s.PooledTimers())
}

func TestCallbacks_PhasesAndEnd(t *testing.T) {
	s, k := newSession(t, sim.WithStopTime(testutil.SoCStop))

	var order []string
	require.NotNil(t, s.RegisterStartOfSim(func(*gpi.Callback) { order = append(order, "start") }))
	require.NotNil(t, s.RegisterReadOnly(func(*gpi.Callback) { order = append(order, "read_only") }))
	require.NotNil(t, s.RegisterEndOfSim(func(*gpi.Callback) { order = append(order, "end") }))
	require.NotNil(t, s.RegisterTimer(12, func(*gpi.Callback) {
		order = append(order, "timer")
		s.End()
	}))

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{"start", "read_only", "timer"}, order, "End discards the pending end-of-simulation callback")
	assert.Equal(t, uint64(12), s.SimTime())
	assert.True(t, k.Finished())
}

func TestReasonNames(t *testing.T) {
	b := New(testutil.Kernel(t, testutil.SoCDesign))

	assert.Equal(t, "cbValueChange", b.ReasonName(gpi.ReasonValueChange))
	assert.Equal(t, "cbReadOnlySynch", b.ReasonName(gpi.ReasonReadOnly))
	assert.Equal(t, "cbAfterDelay", b.ReasonName(gpi.ReasonAfterDelay))
	assert.True(t, b.Quirks().UncancellableTimers)
	assert.Equal(t, -12, b.Precision())
}
