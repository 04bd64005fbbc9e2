package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/ir"
	"github.com/roach88/gpi/internal/queryir"
)

func testSession(id string) SessionRecord {
	return SessionRecord{
		ID:        id,
		Backends:  []string{"vpi", "vhpi"},
		Design:    "soc.yaml",
		Toplevel:  "top",
		Digest:    "abc",
		EndTime:   40,
		Precision: -12,
	}
}

func TestWriteSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	handles := []HandleRecord{
		{Seq: 1, Backend: "vpi", FullName: "top", Kind: "module"},
		{Seq: 2, Backend: "vpi", FullName: "top.WIDTH", Kind: "parameter", Const: true},
		{Seq: 3, Backend: "vpi", FullName: "top.gen", Kind: "genarray", Pseudo: true},
	}
	events := []CallbackEvent{
		{Seq: 1, SimTime: 0, Reason: "value_change", Native: "cbValueChange", Target: "top.clk", From: "free", To: "primed"},
		{Seq: 2, SimTime: 5, Reason: "value_change", Native: "cbValueChange", Target: "top.clk", From: "primed", To: "called"},
		{Seq: 3, SimTime: 7, Reason: "after_delay", Native: "cbAfterDelay", From: "free", To: "primed"},
	}
	require.NoError(t, s.WriteSession(ctx, testSession("s1"), handles, events))

	rec, err := s.Session(ctx, "s1")
	require.NoError(t, err)
	want := testSession("s1")
	want.Seq = 1
	assert.Equal(t, want, rec)

	gotHandles, err := s.Handles(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, handles, gotHandles)

	gotEvents, err := s.CallbackEvents(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, events, gotEvents)

	clk, err := s.EventsForTarget(ctx, "s1", "top.clk")
	require.NoError(t, err)
	assert.Len(t, clk, 2)

	fired, err := s.EventsMatching(ctx, "s1", queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: queryir.FieldTo, Value: ir.String("called")},
		queryir.Compare{Field: queryir.FieldSimTime, Op: queryir.OpGreaterEq, Value: ir.Int(5)},
	}})
	require.NoError(t, err)
	assert.Equal(t, events[1:2], fired)

	_, err = s.EventsMatching(ctx, "s1", queryir.Equals{Field: "seq", Value: ir.Int(1)})
	assert.Error(t, err)
}

func TestWriteSession_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteSession(ctx, testSession("s1"), nil, nil))
	err := s.WriteSession(ctx, testSession("s1"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already recorded")
}

func TestWriteSession_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	dup := []HandleRecord{
		{Seq: 1, Backend: "vpi", FullName: "top", Kind: "module"},
		{Seq: 1, Backend: "vpi", FullName: "top.clk", Kind: "register"},
	}
	require.Error(t, s.WriteSession(ctx, testSession("s1"), dup, nil))

	_, err := s.Session(ctx, "s1")
	assert.True(t, errors.Is(err, ErrSessionNotFound), "a failed write leaves nothing behind")
}

func TestSessions_Order(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	all, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = s.Session(ctx, "")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.WriteSession(ctx, testSession(id), nil, nil))
	}

	all, err = s.Sessions(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	latest, err := s.Session(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.ID)
	assert.Equal(t, int64(3), latest.Seq)
}

func TestDeleteSession_Cascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteSession(ctx, testSession("s1"),
		[]HandleRecord{{Seq: 1, Backend: "vpi", FullName: "top", Kind: "module"}},
		[]CallbackEvent{{Seq: 1, Reason: "read_only", Native: "cbReadOnlySynch", From: "free", To: "primed"}},
	))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	hs, err := s.Handles(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, hs)
	evs, err := s.CallbackEvents(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, evs)

	assert.True(t, errors.Is(s.DeleteSession(ctx, "s1"), ErrSessionNotFound))
}

func TestBackendsEncoding(t *testing.T) {
	data, err := marshalBackends([]string{"vpi", "fli"})
	require.NoError(t, err)
	assert.Equal(t, `["vpi","fli"]`, data)

	names, err := unmarshalBackends(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"vpi", "fli"}, names)

	_, err = unmarshalBackends(`{"a":"b"}`)
	assert.Error(t, err)
	_, err = unmarshalBackends(`[1]`)
	assert.Error(t, err)
}
