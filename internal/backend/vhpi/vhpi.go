// Package vhpi is a VHDL-style backend. Names are case-insensitive and
// colon separated, multi-dimensional indices share one bracket group and
// generate loops exist only through their instances.
//
// Record fields and elements of multi-dimensional arrays are not indexed
// by the native name table. They are found by scanning the parent, the
// same way simulators that only partially implement by-name and by-index
// access are driven.
package vhpi

import (
	"strings"

	"github.com/roach88/gpi/internal/backend/simapi"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// Name is the backend's registry name.
const Name = "vhpi"

var style = gpi.NameStyle{
	Separator:       ":",
	StructSeparator: ".",
	Leading:         true,
	IndexOpen:       "(",
	IndexClose:      ")",
	GenIndexOpen:    "(",
	GenIndexClose:   ")",
	GroupPseudo:     true,
	FoldCase:        true,
}

var reasonNames = map[gpi.Reason]string{
	gpi.ReasonValueChange: "vhpiCbValueChange",
	gpi.ReasonReadOnly:    "vhpiCbLastKnownDeltaCycle",
	gpi.ReasonReadWrite:   "vhpiCbEndOfProcesses",
	gpi.ReasonNextTime:    "vhpiCbNextTimeStep",
	gpi.ReasonAfterDelay:  "vhpiCbAfterDelay",
	gpi.ReasonStartOfSim:  "vhpiCbStartOfSimulation",
	gpi.ReasonEndOfSim:    "vhpiCbEndOfSimulation",
}

var declTags = map[sim.NodeKind]string{
	sim.NodeSignal:    "vhpiSigDeclK",
	sim.NodeVariable:  "vhpiVarDeclK",
	sim.NodeConstant:  "vhpiConstDeclK",
	sim.NodeParameter: "vhpiGenericDeclK",
}

// Backend implements gpi.Native.
type Backend struct {
	*simapi.Base
}

// New attaches a VHPI backend to k.
func New(k *sim.Kernel, opts ...simapi.Option) *Backend {
	b := &Backend{}
	b.Base = simapi.New(k, b, opts...)
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

// Indexed leaves out generate loops, record fields and elements nested
// below fields or other elements.
func (b *Backend) Indexed(o *simapi.Object) bool {
	switch {
	case o.IsLoop(), o.IsField():
		return false
	case o.IsElement():
		p := o.Parent()
		return !p.IsField() && !p.IsElement()
	}
	return true
}

func construct(name string) gpi.TypeDesc {
	return gpi.TypeDesc{Class: gpi.ClassConstruct, Name: name}
}

// DescribeObject reports declarations by their type literals. Process
// statements are regions of their own.
func (b *Backend) DescribeObject(o *simapi.Object) (gpi.Object, bool) {
	n := o.Node()
	switch {
	case o.IsLoop():
		return gpi.Object{}, false
	case n.Kind == sim.NodeModule:
		tag := "vhpiCompInstStmtK"
		if o.Parent() == nil {
			tag = "vhpiRootInstK"
		}
		return gpi.Object{Category: gpi.CategoryRegion, Type: construct(n.Name), Tag: tag}, true
	case n.Kind == sim.NodeInstance:
		return gpi.Object{Category: gpi.CategoryRegion, Type: construct(n.Name), Generate: gpi.GenInstance, Tag: "vhpiForGenerateK"}, true
	case n.Kind == sim.NodeProcess:
		return gpi.Object{Category: gpi.CategoryRegion, Type: construct(n.Name), Tag: "vhpiProcessStmtK"}, true
	}

	tag := declTags[n.Kind]
	switch {
	case o.IsElement():
		tag = "vhpiIndexedNameK"
	case o.IsField():
		tag = "vhpiSelectedNameK"
	}
	return gpi.Object{
		Category: simapi.Category(n),
		Type:     simapi.TypeDesc(n.Type),
		Const:    n.Const(),
		Ranges:   simapi.Ranges(n.Type),
		Tag:      tag,
	}, true
}

func (b *Backend) MemberRelation(o *simapi.Object) gpi.Relation {
	n := o.Node()
	switch {
	case o.IsLoop():
		return 0
	case n.IsScope(), n.Kind == sim.NodeProcess:
		return gpi.RelRegions
	case o.IsField():
		return gpi.RelSubElements
	}
	switch n.Kind {
	case sim.NodeSignal:
		return gpi.RelSignals
	case sim.NodeVariable:
		return gpi.RelVariables
	case sim.NodeConstant, sim.NodeParameter:
		return gpi.RelConstants
	}
	return 0
}

var scopeRelations = []gpi.Relation{
	gpi.RelRegions,
	gpi.RelSignals,
	gpi.RelVariables,
	gpi.RelConstants,
}

func (b *Backend) ScopeRelations(o *simapi.Object) []gpi.Relation {
	n := o.Node()
	switch {
	case n.IsScope(), n.Kind == sim.NodeProcess:
		return scopeRelations
	case n.Type != nil && n.Type.Class == sim.TypeRecord:
		return []gpi.Relation{gpi.RelSubElements}
	}
	return nil
}

// FindByName falls back to scanning the fields of the enclosing record
// when fq names a selected element.
func (b *Backend) FindByName(fq string, cat gpi.Category) (gpi.NativeHandle, bool) {
	if h, ok := b.Base.FindByName(fq, cat); ok {
		return h, true
	}
	i := strings.LastIndex(fq, style.StructSeparator)
	if i <= 0 {
		return nil, false
	}
	parent, ok := b.Lookup(fq[:i])
	if !ok {
		return nil, false
	}
	field := fq[i+len(style.StructSeparator):]
	for _, k := range parent.Kids() {
		if k.IsField() && b.EqualNames(k.Node().Name, field) {
			b.Logger().Debug("field found by scan", "parent", parent.FullName(), "field", field)
			return b.InCategory(k, cat)
		}
	}
	return nil, false
}

// SubElement only supports direct access into one-dimensional arrays.
// Elements of multi-dimensional arrays are found by a linear scan.
func (b *Backend) SubElement(h gpi.NativeHandle, offset int) (gpi.NativeHandle, bool) {
	o, ok := h.(*simapi.Object)
	if !ok || o == nil {
		return nil, false
	}
	if t := o.Node().Type; t != nil && len(t.Ranges) == 1 {
		return b.Base.SubElement(h, offset)
	}
	b.Logger().Debug("indexed name scan", "name", o.FullName(), "offset", offset)
	for _, e := range o.Elements() {
		if e.Node().Offset == offset {
			return e, true
		}
	}
	return nil, false
}

// Enumerate does not support driver and load relations.
func (b *Backend) Enumerate(h gpi.NativeHandle, rel gpi.Relation) gpi.Enumeration {
	if rel == gpi.RelDrivers || rel == gpi.RelLoads {
		b.Logger().Warn("relation not supported", "relation", rel)
		return nil
	}
	return b.Base.Enumerate(h, rel)
}
