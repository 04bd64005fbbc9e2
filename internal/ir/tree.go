package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/gpi/internal/gpi"
)

// Node is one object of a hierarchy dump.
type Node struct {
	Name     string
	FullName string
	Kind     string
	Const    bool
	Pseudo   bool
	// Range is [left, right] for objects with a declared range.
	Range []int
	Value string
	// NotNative marks a child the backend reported but the object model
	// cannot represent. Only Name is set.
	NotNative bool
	Children  []*Node
}

// Options controls Build.
type Options struct {
	// Depth limits recursion below the root. Zero means unlimited.
	Depth int
	// Values reads the current value of every value-carrying object.
	Values bool
	// Bits expands logic vectors and strings into their elements.
	Bits bool
}

// Build walks the hierarchy under root through the session iterator.
func Build(s *gpi.Session, root *gpi.Handle, opts Options) *Node {
	return build(s, root, opts, 0)
}

func build(s *gpi.Session, h *gpi.Handle, opts Options, depth int) *Node {
	n := &Node{
		Name:     h.ShortName(),
		FullName: h.FullName(),
		Kind:     h.Kind().String(),
		Const:    h.IsConst(),
		Pseudo:   h.Pseudo(),
	}
	if h.Indexable() && h.NumElems() > 0 {
		l, r := h.Range()
		n.Range = []int{l, r}
	}
	if opts.Values {
		n.Value = readValue(h)
	}
	if opts.Depth > 0 && depth >= opts.Depth || !descend(h, opts) {
		return n
	}

	for r := range s.Iterate(h, gpi.IterObjects).Seq() {
		switch r.Status {
		case gpi.IterFound:
			n.Children = append(n.Children, build(s, r.Handle, opts, depth+1))
		case gpi.IterNotNative:
			n.Children = append(n.Children, &Node{Name: r.Name, Kind: gpi.KindUnknown.String(), NotNative: true})
		}
	}
	return n
}

func descend(h *gpi.Handle, opts Options) bool {
	switch k := h.Kind(); {
	case k.IsScope(), k == gpi.KindArray:
		return true
	case k == gpi.KindRegister, k == gpi.KindString:
		return opts.Bits && h.Indexable()
	}
	return false
}

func readValue(h *gpi.Handle) string {
	var (
		v   string
		err error
	)
	switch h.Kind() {
	case gpi.KindRegister:
		v, err = h.BinStr()
	case gpi.KindInteger, gpi.KindParameter, gpi.KindReal, gpi.KindEnum, gpi.KindString:
		v, err = h.Str()
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return v
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}

// Find returns the first node, in depth-first order, whose full name is
// fullName.
func (n *Node) Find(fullName string) (*Node, bool) {
	if n.FullName == fullName {
		return n, true
	}
	for _, ch := range n.Children {
		if f, ok := ch.Find(fullName); ok {
			return f, true
		}
	}
	return nil, false
}

// Object converts the tree to a canonical Value. Empty optional fields are
// omitted.
func (n *Node) Object() Object {
	obj := NewObject(
		P("name", String(n.Name)),
		P("kind", String(n.Kind)),
	)
	if n.NotNative {
		obj["not_native"] = Bool(true)
		return obj
	}
	obj["full_name"] = String(n.FullName)
	if n.Const {
		obj["const"] = Bool(true)
	}
	if n.Pseudo {
		obj["pseudo"] = Bool(true)
	}
	if n.Range != nil {
		obj["range"] = Array{Int(n.Range[0]), Int(n.Range[1])}
	}
	if n.Value != "" {
		obj["value"] = String(n.Value)
	}
	if len(n.Children) > 0 {
		kids := make(Array, len(n.Children))
		for i, ch := range n.Children {
			kids[i] = ch.Object()
		}
		obj["children"] = kids
	}
	return obj
}

// WriteText prints the tree with two spaces of indent per level.
func (n *Node) WriteText(w io.Writer) error {
	return n.writeText(w, 0)
}

func (n *Node) writeText(w io.Writer, level int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", level))
	b.WriteString(n.Name)
	if n.NotNative {
		b.WriteString(" (not native)")
	} else {
		fmt.Fprintf(&b, " (%s", n.Kind)
		if n.Const {
			b.WriteString(", const")
		}
		if n.Range != nil {
			fmt.Fprintf(&b, ", %d:%d", n.Range[0], n.Range[1])
		}
		b.WriteString(")")
	}
	if n.Value != "" {
		fmt.Fprintf(&b, " = %s", n.Value)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, ch := range n.Children {
		if err := ch.writeText(w, level+1); err != nil {
			return err
		}
	}
	return nil
}
