// Package harness runs scenario programs against a simulated design
// through the object model and compares their traces with golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: counter
//	design: ../designs/soc.yaml
//	backends: [vpi]
//	toplevel: top
//	stop_time: 100
//	steps:
//	  - lookup: {path: top.gen[1].q, kind: register}
//	  - set: {path: top.count, value: "0011"}
//	  - wait: {edge: rising, signal: top.clk}
//	  - expect: {path: top.count, value: "0011"}
//	  - wait: {timer: 3}
//	  - wait: {phase: read_only}
//	  - end: true
//	assertions:
//	  - type: trace_order
//	    lines: [set top.count, wait rising]
//
// A wait step suspends the program until its callback fires: a timer
// relative to the current time, a value change on a signal (rising,
// falling or any edge), or the next read-only, read-write or next-time
// phase. The program resumes at the following step.
//
// # Assertion Types
//
//   - trace_contains: some trace line contains line
//   - trace_order: lines match trace lines in order
//   - trace_count: exactly count events have op
//   - end_time: the simulation ended at time
//   - final_value: an object holds value after the run
//
// # Deterministic Runs
//
// Every run uses a fixed session id (scenario session_id, default
// "test-session") and a fresh kernel, so identical scenarios produce
// identical traces. Snapshot renders the result as canonical JSON for
// golden comparison.
package harness
