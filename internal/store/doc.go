// Package store keeps a SQLite record of simulation sessions: the handles
// each session created and every callback state transition, in the order
// they happened.
//
// A Recorder is installed on a gpi.Session as its Tracer. It only buffers
// in memory, since tracer calls come from the kernel's dispatch path and
// must not block on disk. Flush writes one session in a single transaction
// once the run is over.
//
// # Ordering
//
// Rows carry a per-session seq assigned by the Recorder. All reads use
// ORDER BY seq ASC so that two runs of the same scenario read back
// identically.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
