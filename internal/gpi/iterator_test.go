package gpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(it *Iterator) []IterResult {
	var out []IterResult
	for r := range it.Seq() {
		out = append(out, r)
	}
	return out
}

func names(rs []IterResult) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestIterate_CollapsesGenerateInstances(t *testing.T) {
	f := newFake("fake", fliStyle)
	top := f.root("top")
	f.genLoop(top, "loop", false, 0, 1)
	f.module(top, "sub")

	s, err := NewSession([]Native{f})
	require.NoError(t, err)
	root := s.RootHandle("top")

	rs := collect(s.Iterate(root, IterObjects))
	require.Len(t, rs, 2)
	assert.Equal(t, []string{"loop", "sub"}, names(rs))

	pseudo := rs[0].Handle
	assert.Equal(t, KindGenArray, pseudo.Kind())
	assert.True(t, pseudo.Pseudo())
	assert.Equal(t, "/top/loop", pseudo.FullName())
	assert.Same(t, pseudo, s.ResolveName(root, "loop"))
}

func TestIterate_GenArrayYieldsOwnInstances(t *testing.T) {
	f := newFake("fake", vpiStyle)
	top := f.root("top")
	f.genLoop(top, "a", false, 0, 1, 2)
	f.genLoop(top, "ab", false, 0)
	f.module(top, "a_mod")

	s, err := NewSession([]Native{f})
	require.NoError(t, err)
	root := s.RootHandle("top")
	pseudo := s.ResolveName(root, "a")
	require.NotNil(t, pseudo)

	hs := s.Iterate(pseudo, IterObjects).Handles()
	require.Len(t, hs, 3)
	for i, h := range hs {
		idx, ok := h.Index()
		assert.True(t, ok)
		assert.Equal(t, i, idx)
		assert.Same(t, pseudo, h.Parent())
		assert.Same(t, h, s.ResolveIndex(pseudo, i))
	}
}

func TestIterate_RelationOrderAndEmptySkip(t *testing.T) {
	f := newFake("fake", vpiStyle)
	top := f.root("top")
	f.add(top, "v1", RelVariables, Object{Category: CategoryVariable, Type: intType})
	f.signal(top, "s1", bitType)
	f.module(top, "m1")
	f.signal(top, "s2", bitType)
	f.relations[top] = []Relation{RelPorts, RelRegions, RelNets, RelSignals, RelVariables}

	s, err := NewSession([]Native{f})
	require.NoError(t, err)

	rs := collect(s.Iterate(s.RootHandle("top"), IterObjects))
	assert.Equal(t, []string{"m1", "s1", "s2", "v1"}, names(rs))
	for _, r := range rs {
		assert.Equal(t, IterFound, r.Status)
	}
}

func TestIterate_Statuses(t *testing.T) {
	f := newFake("fake", vpiStyle)
	top := f.root("top")
	f.signal(top, "", bitType)
	f.add(top, "weird", RelSignals, Object{Category: CategorySignal, Type: TypeDesc{Class: ClassUnknown}, Tag: "vpiUdp"})
	f.add(top, "", RelSignals, Object{Category: CategorySignal, Type: TypeDesc{Class: ClassUnknown}})

	s, err := NewSession([]Native{f})
	require.NoError(t, err)

	it := s.Iterate(s.RootHandle("top"), IterObjects)
	r := it.Next()
	assert.Equal(t, IterFoundNoName, r.Status)
	assert.NotNil(t, r.Raw)

	r = it.Next()
	assert.Equal(t, IterNotNative, r.Status)
	assert.Equal(t, "weird", r.Name)
	assert.NotNil(t, r.Raw)

	r = it.Next()
	assert.Equal(t, IterNotNativeNoName, r.Status)

	assert.Equal(t, IterEnd, it.Next().Status)
	assert.Equal(t, IterEnd, it.Next().Status, "iterator must stay exhausted")
}

func TestIterate_ArrayElements(t *testing.T) {
	f := newFake("fake", vhpiStyle)
	top := f.root("top")
	v := f.signal(top, "v", vecType, Range{Left: 3, Right: 0})
	f.elements(v, 4, bitType)

	s, err := NewSession([]Native{f})
	require.NoError(t, err)
	h := s.ResolveName(s.RootHandle("top"), "v")
	require.NotNil(t, h)

	rs := collect(s.Iterate(h, IterObjects))
	assert.Equal(t, []string{"v(3)", "v(2)", "v(1)", "v(0)"}, names(rs))
}

func TestIterate_DriversUnsupported(t *testing.T) {
	f := newFake("fake", vpiStyle)
	top := f.root("top")
	f.signal(top, "s", bitType)

	s, err := NewSession([]Native{f})
	require.NoError(t, err)
	h := s.ResolveName(s.RootHandle("top"), "s")
	require.NotNil(t, h)

	assert.Equal(t, IterEnd, s.Iterate(h, IterDrivers).Next().Status)
}

func TestIterate_NilScope(t *testing.T) {
	f := newFake("fake", vpiStyle)
	f.root("top")
	s, err := NewSession([]Native{f})
	require.NoError(t, err)
	assert.Equal(t, IterEnd, s.Iterate(nil, IterObjects).Next().Status)
}
