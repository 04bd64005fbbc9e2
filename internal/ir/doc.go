// Package ir holds the backend-neutral hierarchy dump and its canonical
// JSON encoding.
//
// A dump is built by walking a gpi.Session with its iterator, so it shows
// exactly what a host would see through the object model. Dumps are
// encoded as RFC 8785 canonical JSON: golden files and digests compare
// byte for byte across runs.
//
// The value types carry no floats. Real signal values are rendered to
// strings by the simulator before they reach a dump.
package ir
