package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKind classifies an elaborated object.
type NodeKind int

const (
	NodeModule NodeKind = iota + 1
	// NodeGenerate is a generate loop. Its children are its instances.
	NodeGenerate
	NodeInstance
	NodeProcess
	NodeSignal
	NodeVariable
	NodeConstant
	NodeParameter
)

var nodeKindNames = map[NodeKind]string{
	NodeModule:    "module",
	NodeGenerate:  "generate",
	NodeInstance:  "instance",
	NodeProcess:   "process",
	NodeSignal:    "signal",
	NodeVariable:  "variable",
	NodeConstant:  "constant",
	NodeParameter: "parameter",
}

func (k NodeKind) String() string {
	if n, ok := nodeKindNames[k]; ok {
		return n
	}
	return "unknown"
}

var declKinds = map[string]NodeKind{
	DeclModule:    NodeModule,
	DeclGenerate:  NodeGenerate,
	DeclProcess:   NodeProcess,
	DeclSignal:    NodeSignal,
	DeclVariable:  NodeVariable,
	DeclConstant:  NodeConstant,
	DeclParameter: NodeParameter,
}

// Node is one elaborated object. Array elements and record fields are
// nodes too; they share the Kind of the object that contains them.
type Node struct {
	Name string
	Kind NodeKind
	Type *Type

	Parent *Node
	// Children are scope members in declaration order. The children of a
	// generate loop are its instances.
	Children []*Node

	// Index is the label of a generate instance.
	Index int
	Loop  *Node

	// Elements holds array elements flattened row-major; Indices holds the
	// declared index of an element in every dimension.
	Elements []*Node
	Indices  []int
	Offset   int
	Fields   []*Node

	Drivers []*Node
	Loads   []*Node

	// Period makes a one-bit signal toggle every Period/2 time units.
	Period uint64

	path   string
	design *Design
	val    cell
}

// IsScope reports whether n holds declarations.
func (n *Node) IsScope() bool {
	return n.Kind == NodeModule || n.Kind == NodeGenerate || n.Kind == NodeInstance
}

// IsElement reports whether n is an element of an array object.
func (n *Node) IsElement() bool { return n.Indices != nil }

// IsField reports whether n is a field of a record object.
func (n *Node) IsField() bool {
	return n.Parent != nil && !n.IsElement() && !n.Parent.IsScope() && n.Parent.Kind != NodeProcess
}

// IsLeaf reports whether n stores a scalar value.
func (n *Node) IsLeaf() bool {
	return !n.IsScope() && n.Kind != NodeProcess && len(n.Elements) == 0 && len(n.Fields) == 0
}

// Const reports whether n may not be written.
func (n *Node) Const() bool {
	return n.Kind == NodeConstant || n.Kind == NodeParameter
}

// Path returns the canonical dotted path, e.g. "top.gen[1].q[3]".
func (n *Node) Path() string { return n.path }

// Design returns the design n belongs to.
func (n *Node) Design() *Design { return n.design }

// Object returns the declared object that contains n.
func (n *Node) Object() *Node {
	o := n
	for o.IsElement() || o.IsField() {
		o = o.Parent
	}
	return o
}

// Leaves returns the scalar nodes under n in storage order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		switch {
		case len(x.Elements) > 0:
			for _, e := range x.Elements {
				walk(e)
			}
		case len(x.Fields) > 0:
			for _, f := range x.Fields {
				walk(f)
			}
		case x.IsLeaf():
			out = append(out, x)
		}
	}
	walk(n)
	return out
}

// Field returns the field of a record node called name.
func (n *Node) Field(name string) *Node {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Design is an elaborated hierarchy.
type Design struct {
	Name      string
	Precision int
	Language  string
	Roots     []*Node

	types  map[string]*Type
	byPath map[string]*Node

	onChange func(*Node)
}

// DefaultPrecision is used when a design does not set one (1 ps).
const DefaultPrecision = -12

// Lookup returns the declared object or scope at a canonical path.
func (d *Design) Lookup(path string) (*Node, bool) {
	n, ok := d.byPath[path]
	return n, ok
}

// Type returns the named type.
func (d *Design) Type(name string) (*Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

// Walk visits every scope, object, element and field in depth-first
// declaration order. Returning false from fn skips the subtree.
func (d *Design) Walk(fn func(*Node) bool) {
	var walk func(*Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
		for _, f := range n.Fields {
			walk(f)
		}
		for _, e := range n.Elements {
			walk(e)
		}
	}
	for _, r := range d.Roots {
		walk(r)
	}
}

// Elaborate resolves types, expands generate loops and arrays, and links
// drivers and loads.
func Elaborate(f *File) (*Design, error) {
	d := &Design{
		Name:      f.Name,
		Precision: DefaultPrecision,
		Language:  f.Language,
		types:     builtinTypes(),
		byPath:    make(map[string]*Node),
	}
	if f.Precision != nil {
		d.Precision = *f.Precision
	}

	r := &typeResolver{specs: f.Types, types: d.types, active: make(map[string]bool)}
	for name := range f.Types {
		if _, err := r.resolve(name); err != nil {
			return nil, err
		}
	}

	e := &elaborator{d: d, types: r}
	for _, decl := range f.Top {
		n, err := e.decl(nil, decl)
		if err != nil {
			return nil, err
		}
		d.Roots = append(d.Roots, n)
	}
	for _, l := range e.links {
		if err := l.resolve(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

type typeResolver struct {
	specs  map[string]*TypeSpec
	types  map[string]*Type
	active map[string]bool
}

func (r *typeResolver) resolve(name string) (*Type, error) {
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	if r.active[name] {
		return nil, fmt.Errorf("type %q refers to itself", name)
	}
	r.active[name] = true
	defer delete(r.active, name)

	class, ok := typeClassNames[spec.Class]
	if !ok {
		return nil, fmt.Errorf("type %q: unknown class %q", name, spec.Class)
	}
	t := &Type{Name: name, Class: class, Literals: spec.Literals, NumLiterals: spec.NumLiterals}
	switch class {
	case TypeArray:
		elem, err := r.resolve(spec.Element)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		if len(spec.Ranges) == 0 {
			return nil, fmt.Errorf("type %q: array without ranges", name)
		}
		t.Elem = elem
		t.Ranges = toRanges(spec.Ranges)
	case TypeRecord:
		for _, fs := range spec.Fields {
			ft, err := r.resolve(fs.Type)
			if err != nil {
				return nil, fmt.Errorf("type %q field %q: %w", name, fs.Name, err)
			}
			t.Fields = append(t.Fields, Field{Name: fs.Name, Type: ft})
		}
	case TypeEnum:
		if t.LiteralCount() == 0 {
			return nil, fmt.Errorf("type %q: enum without literals", name)
		}
	}
	r.types[name] = t
	return t, nil
}

func toRanges(in [][2]int) []Range {
	out := make([]Range, len(in))
	for i, r := range in {
		out[i] = Range{Left: r[0], Right: r[1]}
	}
	return out
}

type link struct {
	node    *Node
	drivers []string
	loads   []string
}

func (l link) resolve(d *Design) error {
	for _, p := range l.drivers {
		n, ok := d.byPath[p]
		if !ok {
			return fmt.Errorf("%s: unknown driver %q", l.node.path, p)
		}
		l.node.Drivers = append(l.node.Drivers, n)
	}
	for _, p := range l.loads {
		n, ok := d.byPath[p]
		if !ok {
			return fmt.Errorf("%s: unknown load %q", l.node.path, p)
		}
		l.node.Loads = append(l.node.Loads, n)
	}
	return nil
}

type elaborator struct {
	d     *Design
	types *typeResolver
	links []link
}

func (e *elaborator) decl(parent *Node, decl *Decl) (*Node, error) {
	kind, ok := declKinds[decl.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: unknown kind %q", decl.Name, decl.Kind)
	}
	if parent == nil && kind != NodeModule {
		return nil, fmt.Errorf("%s: top level declarations must be modules", decl.Name)
	}
	if parent != nil && !parent.IsScope() {
		return nil, fmt.Errorf("%s: %s cannot hold declarations", parent.path, parent.Kind)
	}

	n := &Node{Name: decl.Name, Kind: kind, Parent: parent, design: e.d}
	n.path = childPath(parent, decl.Name)
	if _, dup := e.d.byPath[n.path]; dup {
		return nil, fmt.Errorf("%s: declared twice", n.path)
	}
	e.d.byPath[n.path] = n

	switch kind {
	case NodeModule:
		if err := e.children(n, decl.Children); err != nil {
			return nil, err
		}
	case NodeGenerate:
		if decl.Range == nil {
			return nil, fmt.Errorf("%s: generate without range", n.path)
		}
		rg := Range{Left: decl.Range[0], Right: decl.Range[1]}
		for off := 0; off < rg.Len(); off++ {
			idx := rg.Left + off
			if rg.Left > rg.Right {
				idx = rg.Left - off
			}
			inst := &Node{Name: decl.Name, Kind: NodeInstance, Parent: parent, Index: idx, Loop: n, design: e.d}
			inst.path = n.path + "[" + strconv.Itoa(idx) + "]"
			e.d.byPath[inst.path] = inst
			if err := e.children(inst, decl.Children); err != nil {
				return nil, err
			}
			n.Children = append(n.Children, inst)
		}
	case NodeProcess:
	default:
		if err := e.object(n, decl); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (e *elaborator) children(scope *Node, decls []*Decl) error {
	for _, c := range decls {
		n, err := e.decl(scope, c)
		if err != nil {
			return err
		}
		scope.Children = append(scope.Children, n)
	}
	return nil
}

func (e *elaborator) object(n *Node, decl *Decl) error {
	t, err := e.types.resolve(decl.Type)
	if err != nil {
		return fmt.Errorf("%s: %w", n.path, err)
	}
	if len(decl.Ranges) > 0 {
		t = &Type{Class: TypeArray, Elem: t, Ranges: toRanges(decl.Ranges)}
	}
	n.Type = t
	expand(n)
	if decl.Init != "" {
		if _, err := n.setStr(decl.Init); err != nil {
			return fmt.Errorf("%s: init: %w", n.path, err)
		}
	}
	if decl.Period > 0 {
		if !n.IsLeaf() || !n.Type.IsLogic() {
			return fmt.Errorf("%s: only scalar logic signals can be clocks", n.path)
		}
		n.Period = decl.Period
	}
	if len(decl.Drivers) > 0 || len(decl.Loads) > 0 {
		e.links = append(e.links, link{node: n, drivers: decl.Drivers, loads: decl.Loads})
	}
	return nil
}

// expand creates element and field nodes for a composite type and sets
// every leaf to its default value.
func expand(n *Node) {
	switch n.Type.Class {
	case TypeArray:
		total := n.Type.NumElems()
		n.Elements = make([]*Node, total)
		for off := range total {
			idx := unflatten(n.Type.Ranges, off)
			el := &Node{Name: n.Name, Kind: n.Kind, Type: n.Type.Elem, Parent: n, Indices: idx, Offset: off, design: n.design}
			el.path = n.path + indexSuffix(idx)
			expand(el)
			n.Elements[off] = el
		}
	case TypeRecord:
		for _, f := range n.Type.Fields {
			fn := &Node{Name: f.Name, Kind: n.Kind, Type: f.Type, Parent: n, design: n.design}
			fn.path = n.path + "." + f.Name
			expand(fn)
			n.Fields = append(n.Fields, fn)
		}
	default:
		n.val = defaultCell(n.Type)
	}
}

// unflatten converts a row-major offset into declared indices.
func unflatten(ranges []Range, off int) []int {
	idx := make([]int, len(ranges))
	for d := len(ranges) - 1; d >= 0; d-- {
		r := ranges[d]
		o := off % r.Len()
		off /= r.Len()
		if r.Left > r.Right {
			idx[d] = r.Left - o
		} else {
			idx[d] = r.Left + o
		}
	}
	return idx
}

func indexSuffix(idx []int) string {
	var b strings.Builder
	for _, i := range idx {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(']')
	}
	return b.String()
}

func childPath(parent *Node, name string) string {
	if parent == nil {
		return name
	}
	return parent.path + "." + name
}
