// Package backend selects a vendor backend by name.
package backend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/gpi/internal/backend/fli"
	"github.com/roach88/gpi/internal/backend/simapi"
	"github.com/roach88/gpi/internal/backend/vhpi"
	"github.com/roach88/gpi/internal/backend/vpi"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// Constructor attaches a backend to a kernel.
type Constructor func(k *sim.Kernel, opts ...simapi.Option) gpi.Native

var constructors = map[string]Constructor{
	vpi.Name:  func(k *sim.Kernel, opts ...simapi.Option) gpi.Native { return vpi.New(k, opts...) },
	vhpi.Name: func(k *sim.Kernel, opts ...simapi.Option) gpi.Native { return vhpi.New(k, opts...) },
	fli.Name:  func(k *sim.Kernel, opts ...simapi.Option) gpi.Native { return fli.New(k, opts...) },
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New attaches the backend called name to k.
func New(name string, k *sim.Kernel, opts ...simapi.Option) (gpi.Native, error) {
	c, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return c(k, opts...), nil
}

// NewAll attaches every named backend to k, in order. The first one is the
// session's primary backend.
func NewAll(names []string, k *sim.Kernel, opts ...simapi.Option) ([]gpi.Native, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no backends selected")
	}
	out := make([]gpi.Native, 0, len(names))
	for _, n := range names {
		b, err := New(n, k, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
