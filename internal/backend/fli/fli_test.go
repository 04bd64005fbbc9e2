package fli

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
		{"top", "/top", gpi.KindModule},
		{"top.count", "/top/count", gpi.KindRegister},
		{"top.count[0]", "/top/count(0)", gpi.KindRegister},
		{"top.grid[1][2]", "/top/grid(1)(2)", gpi.KindInteger},
		{"top.pair.valid", "/top/pair.valid", gpi.KindRegister},
		{"top.gen", "/top/gen", gpi.KindGenArray},
		{"top.gen[1]", "/top/gen(1)", gpi.KindModule},
		{"top.gen[1].q", "/top/gen(1)/q", gpi.KindRegister},
		{"top.WIDTH", "/top/WIDTH", gpi.KindInteger},
		{"top.ratio", "/top/ratio", gpi.KindReal},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := mustLookup(t, s, tt.path)
			assert.Equal(t, tt.full, h.FullName())
			assert.Equal(t, tt.kind, h.Kind())
		})
	}
}

func TestLookup_ProcessesAreHidden(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Lookup("top.sub.proc")
	assert.True(t, gpi.IsNotFound(err))

	hs := s.Iterate(mustLookup(t, s, "top.sub"), gpi.IterObjects).Handles()
	require.Len(t, hs, 1)
	assert.Equal(t, "/top/sub/busy", hs[0].FullName())
}

func TestLookup_GenericsAreVariables(t *testing.T) {
	s, _ := newSession(t)

	w := mustLookup(t, s, "top.WIDTH")
	assert.True(t, w.IsConst())
	n, err := w.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.True(t, gpi.IsReadOnly(w.SetInt(1)))
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
		"clk", "count", "state", "pair", "label", "q_in",
		"grid", "ratio", "WIDTH",
	}, names)
}

func TestIterate_ArrayElements(t *testing.T) {
	s, _ := newSession(t)

	hs := s.Iterate(mustLookup(t, s, "top.count"), gpi.IterObjects).Handles()
	require.Len(t, hs, 4)
	var got []string
	for _, h := range hs {
		v, err := h.BinStr()
		require.NoError(t, err)
		got = append(got, h.ShortName()+"="+v)
	}
	assert.Equal(t, []string{"count(3)=0", "count(2)=1", "count(1)=0", "count(0)=1"}, got)
}

func TestCallbacks_ReadWriteAfterDeposit(t *testing.T) {
	s, k := newSession(t, sim.WithStopTime(testutil.SoCStop))

	state := mustLookup(t, s, "top.state")
	var seen string
	require.NotNil(t, s.RegisterTimer(8, func(*gpi.Callback) {
		require.NoError(t, state.SetStr("done"))
		require.NotNil(t, s.RegisterReadWrite(func(*gpi.Callback) {
			v, err := state.Str()
			require.NoError(t, err)
			seen = v
		}))
	}))

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, "DONE", seen)
}

func TestNew_AliasesGenerateLoops(t *testing.T) {
	b := New(testutil.Kernel(t, testutil.SoCDesign))

	o, ok := b.Lookup("/TOP/GEN")
	require.True(t, ok)
	assert.Equal(t, "/top/gen(0)", o.FullName())
	assert.Equal(t, "mti_ScheduleWakeup64", b.ReasonName(gpi.ReasonAfterDelay))
}
