package sim

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	k      *Kernel
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf("%d:", l.k.Now())+fmt.Sprintf(format, args...))
}

func newKernelLog(t *testing.T, opts ...KernelOption) (*Design, *Kernel, *eventLog) {
	t.Helper()
	d := parseCounter(t)
	k := NewKernel(d, opts...)
	return d, k, &eventLog{k: k}
}

func TestKernel_PhaseOrder(t *testing.T) {
	d, k, log := newKernelLog(t)
	clk := mustLookup(t, d, "top.clk")

	_, err := k.Register(PhaseStart, nil, 0, func() {
		log.add("start")
		_, err := k.Register(PhaseDelay, nil, 10, func() {
			log.add("timer")
			require.NoError(t, clk.SetBinStr("1"))
			_, err := k.Register(PhaseReadWrite, nil, 0, func() { log.add("rw") })
			require.NoError(t, err)
		})
		require.NoError(t, err)
		_, err = k.Register(PhaseNextTime, nil, 0, func() { log.add("next") })
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = k.Register(PhaseValueChange, clk, 0, func() {
		v, _ := clk.BinStr()
		log.add("clk=%s", v)
		_, err := k.Register(PhaseReadOnly, nil, 0, func() { log.add("ro") })
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = k.Register(PhaseEnd, nil, 0, func() { log.add("end") })
	require.NoError(t, err)

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{
		"0:start",
		"10:next",
		"10:timer",
		"10:clk=1",
		"10:rw",
		"10:ro",
		"10:end",
	}, log.events)
}

func TestKernel_TimersFireInOrder(t *testing.T) {
	_, k, log := newKernelLog(t)

	for _, delay := range []uint64{30, 10, 20, 10} {
		_, err := k.Register(PhaseDelay, nil, delay, func() { log.add("t%d", delay) })
		require.NoError(t, err)
	}
	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{"10:t10", "10:t10", "20:t20", "30:t30"}, log.events)
}

func TestKernel_RemoveIsIdempotent(t *testing.T) {
	d, k, log := newKernelLog(t)
	clk := mustLookup(t, d, "top.clk")

	gone, err := k.Register(PhaseDelay, nil, 5, func() { log.add("removed timer") })
	require.NoError(t, err)
	watch, err := k.Register(PhaseValueChange, clk, 0, func() { log.add("removed watch") })
	require.NoError(t, err)
	k.Remove(gone)
	k.Remove(gone)
	k.Remove(watch)
	k.Remove(nil)
	assert.False(t, gone.Active())

	fired, err := k.Register(PhaseDelay, nil, 7, func() {
		log.add("kept")
		require.NoError(t, clk.SetBinStr("1"))
	})
	require.NoError(t, err)
	require.NoError(t, k.Run(context.Background()))

	assert.Equal(t, []string{"7:kept"}, log.events)
	assert.False(t, fired.Active())
	k.Remove(fired)
}

func TestKernel_FinishStopsAndRunsEnd(t *testing.T) {
	_, k, log := newKernelLog(t)

	_, err := k.Register(PhaseDelay, nil, 5, func() {
		log.add("finish")
		k.Finish()
	})
	require.NoError(t, err)
	_, err = k.Register(PhaseDelay, nil, 50, func() { log.add("late") })
	require.NoError(t, err)
	_, err = k.Register(PhaseEnd, nil, 0, func() { log.add("end") })
	require.NoError(t, err)

	require.NoError(t, k.Run(context.Background()))
	assert.Equal(t, []string{"5:finish", "5:end"}, log.events)
	assert.True(t, k.Finished())

	_, err = k.Register(PhaseDelay, nil, 1, func() {})
	assert.Error(t, err)
	assert.Error(t, k.Run(context.Background()))
}

func TestKernel_ClockWithStopTime(t *testing.T) {
	d, k, log := newKernelLog(t, WithStopTime(40))
	clk := mustLookup(t, d, "top.clk")
	clk.Period = 10

	rising := 0
	_, err := k.Register(PhaseValueChange, clk, 0, func() {
		if v, _ := clk.BinStr(); v == "1" {
			rising++
			log.add("rise")
		}
	})
	require.NoError(t, err)
	require.NoError(t, k.Run(context.Background()))

	assert.Equal(t, 4, rising)
	assert.Equal(t, []string{"5:rise", "15:rise", "25:rise", "35:rise"}, log.events)
	assert.Equal(t, uint64(40), k.Now())
}

func TestKernel_DeltaOverflow(t *testing.T) {
	d, k, _ := newKernelLog(t, WithMaxDeltas(10))
	clk := mustLookup(t, d, "top.clk")

	_, err := k.Register(PhaseValueChange, clk, 0, func() {
		v, _ := clk.BinStr()
		next := "1"
		if v == "1" {
			next = "0"
		}
		require.NoError(t, clk.SetBinStr(next))
	})
	require.NoError(t, err)
	_, err = k.Register(PhaseStart, nil, 0, func() { require.NoError(t, clk.SetBinStr("1")) })
	require.NoError(t, err)

	err = k.Run(context.Background())
	assert.ErrorIs(t, err, ErrDeltaOverflow)
}

func TestKernel_ContextCancelled(t *testing.T) {
	_, k, _ := newKernelLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := k.Register(PhaseDelay, nil, 5, func() { t.Fatal("timer fired after cancel") })
	require.NoError(t, err)
	assert.ErrorIs(t, k.Run(ctx), context.Canceled)
}

func TestKernel_RegisterValidation(t *testing.T) {
	d, k, _ := newKernelLog(t)

	_, err := k.Register(PhaseValueChange, nil, 0, func() {})
	assert.Error(t, err)
	_, err = k.Register(PhaseValueChange, mustLookup(t, d, "top.sub"), 0, func() {})
	assert.Error(t, err)
	_, err = k.Register(Phase(99), nil, 0, func() {})
	assert.Error(t, err)
	assert.Equal(t, "read_only", PhaseReadOnly.String())
}
