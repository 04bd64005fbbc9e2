// Package fli is a backend modelled on a proprietary procedural interface:
// slash separated names, no process visibility and generate loop names
// that resolve straight to their first instance.
package fli

import (
	"github.com/roach88/gpi/internal/backend/simapi"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// Name is the backend's registry name.
const Name = "fli"

var style = gpi.NameStyle{
	Separator:       "/",
	StructSeparator: ".",
	Leading:         true,
	IndexOpen:       "(",
	IndexClose:      ")",
	GenIndexOpen:    "(",
	GenIndexClose:   ")",
	FoldCase:        true,
}

var reasonNames = map[gpi.Reason]string{
	gpi.ReasonValueChange: "mti_Sensitize",
	gpi.ReasonReadOnly:    "mti_ReadOnlyProc",
	gpi.ReasonReadWrite:   "mti_ReadWriteProc",
	gpi.ReasonNextTime:    "mti_NextTimeProc",
	gpi.ReasonAfterDelay:  "mti_ScheduleWakeup64",
	gpi.ReasonStartOfSim:  "mti_AddLoadDoneCB",
	gpi.ReasonEndOfSim:    "mti_AddQuitCB",
}

// Backend implements gpi.Native.
type Backend struct {
	*simapi.Base
}

// New attaches an FLI backend to k. The bare name of every generate loop
// is registered as an alias of its first instance.
func New(k *sim.Kernel, opts ...simapi.Option) *Backend {
	b := &Backend{}
	b.Base = simapi.New(k, b, opts...)
	for _, loop := range b.Loops() {
		if kids := loop.Kids(); len(kids) > 0 {
			b.Alias(loop.FullName(), kids[0])
		}
	}
	return b
}

func (b *Backend) Name() string         { return Name }
func (b *Backend) Style() gpi.NameStyle { return style }
func (b *Backend) Quirks() gpi.Quirks   { return gpi.Quirks{} }

func (b *Backend) ReasonName(r gpi.Reason) string {
	if n, ok := reasonNames[r]; ok {
		return n
	}
	return r.String()
}

func (b *Backend) Indexed(o *simapi.Object) bool {
	return !o.IsLoop() && o.Node().Kind != sim.NodeProcess
}

// DescribeObject hides processes. Constants and generics are read as
// variables.
func (b *Backend) DescribeObject(o *simapi.Object) (gpi.Object, bool) {
	n := o.Node()
	switch {
	case o.IsLoop(), n.Kind == sim.NodeProcess:
		return gpi.Object{}, false
	case n.Kind == sim.NodeModule:
		return gpi.Object{Category: gpi.CategoryRegion, Type: gpi.TypeDesc{Class: gpi.ClassConstruct, Name: n.Name}, Tag: "accArchitecture"}, true
	case n.Kind == sim.NodeInstance:
		return gpi.Object{Category: gpi.CategoryRegion, Type: gpi.TypeDesc{Class: gpi.ClassConstruct, Name: n.Name}, Generate: gpi.GenInstance, Tag: "accForGenerate"}, true
	}

	obj := gpi.Object{
		Category: gpi.CategorySignal,
		Type:     simapi.TypeDesc(n.Type),
		Const:    n.Const(),
		Ranges:   simapi.Ranges(n.Type),
		Tag:      "accSignal",
	}
	switch n.Kind {
	case sim.NodeVariable:
		obj.Category, obj.Tag = gpi.CategoryVariable, "accVariable"
	case sim.NodeConstant, sim.NodeParameter:
		obj.Category, obj.Tag = gpi.CategoryVariable, "accGeneric"
	}
	return obj, true
}

func (b *Backend) MemberRelation(o *simapi.Object) gpi.Relation {
	n := o.Node()
	switch {
	case o.IsLoop(), n.Kind == sim.NodeProcess:
		return 0
	case n.IsScope():
		return gpi.RelRegions
	case o.IsField():
		return gpi.RelSubElements
	case n.Kind == sim.NodeSignal:
		return gpi.RelSignals
	}
	return gpi.RelVariables
}

func (b *Backend) ScopeRelations(o *simapi.Object) []gpi.Relation {
	n := o.Node()
	switch {
	case n.IsScope():
		return []gpi.Relation{gpi.RelRegions, gpi.RelSignals, gpi.RelVariables}
	case n.Type != nil && n.Type.Class == sim.TypeRecord:
		return []gpi.Relation{gpi.RelSubElements}
	}
	return nil
}

// Enumerate does not support driver and load relations.
func (b *Backend) Enumerate(h gpi.NativeHandle, rel gpi.Relation) gpi.Enumeration {
	if rel == gpi.RelDrivers || rel == gpi.RelLoads {
		b.Logger().Warn("relation not supported", "relation", rel)
		return nil
	}
	return b.Base.Enumerate(h, rel)
}
