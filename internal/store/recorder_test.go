package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/backend/vpi"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
	"github.com/roach88/gpi/internal/testutil"
)

func TestRecorder_TracesSession(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder()

	k := testutil.Kernel(t, testutil.SoCDesign, sim.WithStopTime(testutil.SoCStop))
	s, err := gpi.NewSession([]gpi.Native{vpi.New(k)},
		gpi.WithTracer(rec),
		gpi.WithIDGenerator(testutil.NewFixedSessionGenerator("")))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Lookup("top.count")
	require.NoError(t, err)
	require.NotNil(t, s.RegisterTimer(3, func(*gpi.Callback) {}))
	require.NoError(t, k.Run(ctx))

	require.Len(t, rec.Handles(), 2)
	assert.Equal(t, HandleRecord{Seq: 2, Backend: "vpi", FullName: "top.count", Kind: "register"}, rec.Handles()[1])

	var lines []string
	for _, e := range rec.Events() {
		lines = append(lines, e.String())
	}
	assert.Equal(t, []string{
		"t=0 after_delay(cbAfterDelay) free->primed",
		"t=3 after_delay(cbAfterDelay) primed->called",
		"t=3 after_delay(cbAfterDelay) called->free",
	}, lines)

	st := createTestStore(t)
	info := SessionRecord{ID: s.ID(), Backends: []string{"vpi"}, Design: "soc", Toplevel: "top", EndTime: s.SimTime(), Precision: s.Precision()}
	require.NoError(t, rec.Flush(ctx, st, info))
	assert.Empty(t, rec.Events(), "flush empties the buffer")

	stored, err := st.CallbackEvents(ctx, "test-session")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, uint64(3), stored[2].SimTime)

	got, err := st.Session(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, info.EndTime, got.EndTime)
	assert.Equal(t, -12, got.Precision)
}

func TestCallbackEvent_String(t *testing.T) {
	e := CallbackEvent{SimTime: 15, Reason: "value_change", Native: "vhpiCbValueChange", Target: ":top:clk", From: "primed", To: "called"}
	assert.Equal(t, "t=15 value_change(vhpiCbValueChange) :top:clk primed->called", e.String())
}
