// Package simapi implements gpi.Native over the reference kernel. Vendor
// backends embed Base and supply a Dialect for naming, typing and the
// relations their API exposes.
package simapi

import (
	"strconv"
	"strings"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// Object is the native handle of every backend built on Base.
type Object struct {
	node     *sim.Node
	name     string
	fullName string
	parent   *Object
	loop     bool
	kids     []*Object
	elems    []*Object
}

// Node returns the elaborated node behind o.
func (o *Object) Node() *sim.Node { return o.node }

// Name returns the name the vendor API reports, e.g. "gen[1]" or "mem(3,2)".
func (o *Object) Name() string { return o.name }

// FullName returns the vendor's fully qualified name.
func (o *Object) FullName() string { return o.fullName }

func (o *Object) Parent() *Object { return o.parent }

// IsLoop reports whether o is a generate loop rather than one of its
// instances.
func (o *Object) IsLoop() bool { return o.loop }

// Kids returns declarations of a scope or fields of a record.
func (o *Object) Kids() []*Object { return o.kids }

// Elements returns array elements in row-major order.
func (o *Object) Elements() []*Object { return o.elems }

// IsField reports whether o is a record field.
func (o *Object) IsField() bool { return o.node.IsField() }

// IsElement reports whether o is an array element.
func (o *Object) IsElement() bool { return o.node.IsElement() }

// Dialect supplies the behaviour that differs between vendor APIs.
type Dialect interface {
	Name() string
	Style() gpi.NameStyle
	// DescribeObject reports the portable description of o.
	DescribeObject(o *Object) (gpi.Object, bool)
	// MemberRelation returns the relation o is enumerated under, or zero
	// when its parent does not list it.
	MemberRelation(o *Object) gpi.Relation
	// ScopeRelations lists the relations of o in priority order.
	ScopeRelations(o *Object) []gpi.Relation
	// Indexed reports whether o can be found by name.
	Indexed(o *Object) bool
	// ReasonName is the vendor's name for a callback reason.
	ReasonName(r gpi.Reason) string
}

// builder creates the object tree of one design.
type builder struct {
	b     *Base
	style gpi.NameStyle
}

func (bl *builder) root(n *sim.Node) *Object {
	o := &Object{node: n, name: n.Name, fullName: n.Name}
	if bl.style.Leading {
		o.fullName = bl.style.Separator + n.Name
	}
	bl.add(o)
	bl.scope(o)
	return o
}

func (bl *builder) scope(o *Object) {
	for _, c := range o.node.Children {
		if c.Kind == sim.NodeGenerate {
			bl.generate(o, c)
			continue
		}
		k := bl.child(o, c, c.Name, bl.style.Separator)
		bl.scope(k)
		bl.composite(k)
	}
}

func (bl *builder) generate(scope *Object, loop *sim.Node) {
	lo := &Object{node: loop, name: loop.Name, parent: scope, loop: true}
	lo.fullName = scope.fullName + bl.style.Separator + loop.Name
	bl.add(lo)
	bl.b.loops = append(bl.b.loops, lo)
	for _, inst := range loop.Children {
		label := loop.Name + bl.style.GenIndexOpen + strconv.Itoa(inst.Index) + bl.style.GenIndexClose
		io := bl.child(scope, inst, label, bl.style.Separator)
		lo.kids = append(lo.kids, io)
		bl.scope(io)
	}
}

func (bl *builder) child(parent *Object, n *sim.Node, name, sep string) *Object {
	o := &Object{node: n, name: name, parent: parent, fullName: parent.fullName + sep + name}
	parent.kids = append(parent.kids, o)
	bl.add(o)
	return o
}

// composite adds the fields and elements of an object.
func (bl *builder) composite(o *Object) {
	for _, f := range o.node.Fields {
		k := bl.child(o, f, f.Name, bl.style.StructSeparator)
		bl.composite(k)
	}
	for _, e := range o.node.Elements {
		suffix := bl.indexSuffix(e.Indices)
		eo := &Object{node: e, name: o.name + suffix, parent: o, fullName: o.fullName + suffix}
		o.elems = append(o.elems, eo)
		bl.add(eo)
		bl.composite(eo)
	}
}

func (bl *builder) indexSuffix(idx []int) string {
	s := bl.style
	var b strings.Builder
	for i, v := range idx {
		if i == 0 || !s.GroupPseudo {
			b.WriteString(s.IndexOpen)
		} else {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
		if i == len(idx)-1 || !s.GroupPseudo {
			b.WriteString(s.IndexClose)
		}
	}
	return b.String()
}

func (bl *builder) add(o *Object) {
	if !o.loop {
		bl.b.byNode[o.node] = o
	}
	if bl.b.dialect.Indexed(o) {
		bl.b.byName[bl.b.key(o.fullName)] = o
	}
}
