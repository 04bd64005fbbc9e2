package simapi

import (
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

var typeClasses = map[sim.TypeClass]gpi.TypeClass{
	sim.TypeEnum:     gpi.ClassEnum,
	sim.TypeInteger:  gpi.ClassInteger,
	sim.TypePhysical: gpi.ClassPhysical,
	sim.TypeReal:     gpi.ClassReal,
	sim.TypeArray:    gpi.ClassArray,
	sim.TypeRecord:   gpi.ClassRecord,
}

// TypeDesc describes t the way literal-typed APIs do: enums by their
// literals, arrays by dimension count and element type.
func TypeDesc(t *sim.Type) gpi.TypeDesc {
	if t == nil {
		return gpi.TypeDesc{}
	}
	d := gpi.TypeDesc{
		Class:       typeClasses[t.Class],
		Name:        t.Name,
		Literals:    t.Literals,
		NumLiterals: t.NumLiterals,
	}
	if t.Class == sim.TypeArray {
		d.Dims = len(t.Ranges)
		elem := TypeDesc(t.Elem)
		d.Elem = &elem
	}
	return d
}

// Ranges converts the index ranges of an array type.
func Ranges(t *sim.Type) []gpi.Range {
	if t == nil || t.Class != sim.TypeArray {
		return nil
	}
	out := make([]gpi.Range, len(t.Ranges))
	for i, r := range t.Ranges {
		out[i] = gpi.Range{Left: r.Left, Right: r.Right}
	}
	return out
}

// Category returns the lookup category of an object node.
func Category(n *sim.Node) gpi.Category {
	switch n.Object().Kind {
	case sim.NodeVariable:
		return gpi.CategoryVariable
	case sim.NodeModule, sim.NodeGenerate, sim.NodeInstance, sim.NodeProcess:
		return gpi.CategoryRegion
	}
	return gpi.CategorySignal
}
