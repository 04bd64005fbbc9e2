package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/sim"
)

// SoCDesign exercises every object shape the backends report: logic
// vectors, enums, records, a two-dimensional array, strings, parameters,
// a generate loop, a process, driver and load links, and a free-running
// clock with a period of 10.
const SoCDesign = `
name: soc
precision: -12
language: mixed
types:
  state_t:
    class: enum
    literals: [IDLE, RUN, DONE]
  byte_t:
    class: array
    element: std_logic
    ranges: [[7, 0]]
  pair_t:
    class: record
    fields:
      - {name: valid, type: bit}
      - {name: data, type: byte_t}
  grid_t:
    class: array
    element: integer
    ranges: [[1, 0], [0, 2]]
top:
  - name: top
    kind: module
    children:
      - {name: clk, kind: signal, type: std_logic, init: "0", period: 10}
      - {name: count, kind: signal, type: std_logic, ranges: [[3, 0]], init: "0101"}
      - {name: state, kind: signal, type: state_t, init: RUN}
      - {name: pair, kind: signal, type: pair_t}
      - {name: grid, kind: variable, type: grid_t}
      - {name: ratio, kind: variable, type: real, init: "0.5"}
      - {name: label, kind: signal, type: character, ranges: [[1, 5]], init: hello}
      - {name: WIDTH, kind: parameter, type: integer, init: "8"}
      - {name: q_in, kind: signal, type: bit, drivers: ["top.gen[0].q"]}
      - name: gen
        kind: generate
        range: [0, 1]
        children:
          - {name: q, kind: signal, type: bit, loads: [top.q_in]}
      - name: sub
        kind: module
        children:
          - {name: busy, kind: signal, type: boolean}
          - {name: proc, kind: process}
`

// SoCStop is a stop time that lets the SoCDesign clock rise four times.
const SoCStop = 40

// Design elaborates src or fails the test.
func Design(t testing.TB, src string) *sim.Design {
	t.Helper()
	d, err := sim.Parse([]byte(src))
	require.NoError(t, err)
	return d
}

// Kernel elaborates src and attaches a kernel to it.
func Kernel(t testing.TB, src string, opts ...sim.KernelOption) *sim.Kernel {
	t.Helper()
	return sim.NewKernel(Design(t, src), opts...)
}
