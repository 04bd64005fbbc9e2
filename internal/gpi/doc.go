// Package gpi implements a portable object model over HDL simulator
// introspection interfaces.
//
// A Session binds one or more Native backends and owns every Handle and
// Callback created while a simulation runs. Handles are created lazily, when
// the host asks for a root, a named child or an indexed child, and are
// interned by full name so that repeated lookups return the same object.
//
// # Resolution
//
// ResolveName searches regions, then signals, then variables under a scope.
// Generate loops are normalised to pseudo handles of kind GenArray whatever
// the backend reports for the bare loop name; instances are then reached
// with ResolveIndex. Array indices are normalised against the declared
// range, and multi-dimensional arrays produce pseudo handles until the last
// dimension is fixed and a flattened offset can be handed to the backend.
//
// # Callbacks
//
// The kernel re-enters through Session.Dispatch. Each Callback follows the
// Free, Primed, Called cycle; handlers re-arm by calling Arm. Retired timers
// go to a LIFO pool and are reused by RegisterTimer. The read-only,
// read-write and next-time callbacks are session singletons.
//
// # Concurrency
//
// Nothing in this package locks. Every call must come from the goroutine
// that drives the simulation kernel, including calls made from handlers.
package gpi
