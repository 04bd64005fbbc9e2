// Package vpi is a Verilog-style backend: objects are typed by their
// vendor object type, names use dots and square brackets, generate loops
// are objects of their own and timers cannot be cancelled.
package vpi

import (
	"strings"

	"github.com/roach88/gpi/internal/backend/simapi"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// Name is the backend's registry name.
const Name = "vpi"

var style = gpi.NameStyle{
	Separator:       ".",
	StructSeparator: ".",
	IndexOpen:       "[",
	IndexClose:      "]",
	GenIndexOpen:    "[",
	GenIndexClose:   "]",
}

var reasonNames = map[gpi.Reason]string{
	gpi.ReasonValueChange: "cbValueChange",
	gpi.ReasonReadOnly:    "cbReadOnlySynch",
	gpi.ReasonReadWrite:   "cbReadWriteSynch",
	gpi.ReasonNextTime:    "cbNextSimTime",
	gpi.ReasonAfterDelay:  "cbAfterDelay",
	gpi.ReasonStartOfSim:  "cbStartOfSimulation",
	gpi.ReasonEndOfSim:    "cbEndOfSimulation",
}

// Backend implements gpi.Native.
type Backend struct {
	*simapi.Base
}

// New attaches a VPI backend to k.
func New(k *sim.Kernel, opts ...simapi.Option) *Backend {
	b := &Backend{}
	b.Base = simapi.New(k, b, opts...)
	return b
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Style() gpi.NameStyle { return style }

func (b *Backend) Quirks() gpi.Quirks {
	return gpi.Quirks{UncancellableTimers: true}
}

func (b *Backend) ReasonName(r gpi.Reason) string {
	if n, ok := reasonNames[r]; ok {
		return n
	}
	return r.String()
}

// FormatBinStr reports unknown and high-impedance bits in lower case.
func (b *Backend) FormatBinStr(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'X', 'Z', 'U', 'W', 'L', 'H':
			return r + ('a' - 'A')
		}
		return r
	}, v)
}

// Indexed makes every object, including generate loops and array
// elements, reachable by name.
func (b *Backend) Indexed(*simapi.Object) bool { return true }

func tagged(k gpi.Kind, name string) gpi.TypeDesc {
	return gpi.TypeDesc{Class: gpi.ClassTagged, Tagged: k, Name: name}
}

// DescribeObject maps vendor object types onto kinds.
func (b *Backend) DescribeObject(o *simapi.Object) (gpi.Object, bool) {
	n := o.Node()
	switch {
	case o.IsLoop():
		return gpi.Object{Category: gpi.CategoryRegion, Type: tagged(gpi.KindModule, n.Name), Generate: gpi.GenLoop, Tag: "vpiGenScopeArray"}, true
	case n.Kind == sim.NodeModule:
		return gpi.Object{Category: gpi.CategoryRegion, Type: tagged(gpi.KindModule, n.Name), Tag: "vpiModule"}, true
	case n.Kind == sim.NodeInstance:
		return gpi.Object{Category: gpi.CategoryRegion, Type: tagged(gpi.KindModule, n.Name), Generate: gpi.GenInstance, Tag: "vpiGenScope"}, true
	case n.Kind == sim.NodeProcess:
		return gpi.Object{Category: gpi.CategoryRegion, Tag: "vpiAlways"}, true
	}

	kind, tag := classify(n)
	obj := gpi.Object{
		Category: simapi.Category(n),
		Type:     tagged(kind, n.Type.Name),
		Const:    n.Object().Const(),
		Tag:      tag,
	}
	switch kind {
	case gpi.KindRegister, gpi.KindArray, gpi.KindString:
		obj.Ranges = simapi.Ranges(n.Type)
	}
	return obj, true
}

// classify returns the kind and vendor object type of a value object.
func classify(n *sim.Node) (gpi.Kind, string) {
	variable := n.Object().Kind == sim.NodeVariable
	pick := func(net, reg string) string {
		if variable {
			return reg
		}
		return net
	}

	if n.Object().Const() && !n.IsElement() && !n.IsField() {
		return gpi.KindParameter, "vpiParameter"
	}
	t := n.Type
	switch t.Class {
	case sim.TypeArray:
		switch {
		case t.IsLogicVector():
			return gpi.KindRegister, pick("vpiNet", "vpiReg")
		case t.IsString():
			return gpi.KindString, "vpiStringVar"
		}
		return gpi.KindArray, pick("vpiNetArray", "vpiRegArray")
	case sim.TypeRecord:
		return gpi.KindStructure, pick("vpiStructNet", "vpiStructVar")
	case sim.TypeEnum:
		switch {
		case t.IsLogic():
			if n.IsElement() {
				return gpi.KindRegister, pick("vpiNetBit", "vpiRegBit")
			}
			return gpi.KindRegister, pick("vpiNet", "vpiReg")
		case t.IsChar():
			return gpi.KindInteger, "vpiByteVar"
		case t.LiteralCount() == 2 && strings.EqualFold(t.Literals[0], "false"):
			return gpi.KindInteger, "vpiBitVar"
		}
		return gpi.KindEnum, pick("vpiEnumNet", "vpiEnumVar")
	case sim.TypeReal:
		return gpi.KindReal, "vpiRealVar"
	}
	return gpi.KindInteger, pick("vpiIntegerNet", "vpiIntegerVar")
}

// MemberRelation follows the VPI one-to-many relations of a scope.
func (b *Backend) MemberRelation(o *simapi.Object) gpi.Relation {
	n := o.Node()
	switch {
	case o.IsLoop():
		return 0
	case n.IsScope():
		return gpi.RelRegions
	case n.Kind == sim.NodeProcess:
		return gpi.RelProcesses
	case o.IsField():
		return gpi.RelMembers
	}
	kind, _ := classify(n)
	variable := n.Kind == sim.NodeVariable
	switch kind {
	case gpi.KindParameter:
		return gpi.RelParameters
	case gpi.KindRegister:
		if variable {
			return gpi.RelRegs
		}
		return gpi.RelNets
	case gpi.KindArray:
		if variable {
			return gpi.RelRegArrays
		}
		return gpi.RelNetArrays
	}
	return gpi.RelVariables
}

var scopeRelations = []gpi.Relation{
	gpi.RelRegions,
	gpi.RelNets,
	gpi.RelNetArrays,
	gpi.RelRegs,
	gpi.RelRegArrays,
	gpi.RelVariables,
	gpi.RelParameters,
	gpi.RelProcesses,
}

func (b *Backend) ScopeRelations(o *simapi.Object) []gpi.Relation {
	n := o.Node()
	switch {
	case n.IsScope():
		return scopeRelations
	case n.Type != nil && n.Type.Class == sim.TypeRecord:
		return []gpi.Relation{gpi.RelMembers}
	}
	return nil
}
