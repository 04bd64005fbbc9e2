package gpi

import (
	"strconv"
	"strings"
)

// RootHandle returns the root object called name, or the first root when
// name is empty. Backends are tried in priority order.
func (s *Session) RootHandle(name string) *Handle {
	for _, b := range s.backends {
		if h := s.rootIn(b, name); h != nil {
			return h
		}
	}
	s.log.Error("toplevel not found", "name", name, "available", s.rootNames())
	return nil
}

func (s *Session) rootIn(b Native, name string) *Handle {
	style := b.Style()
	for _, raw := range b.Roots() {
		rn, ok := b.HandleName(raw)
		if !ok {
			continue
		}
		if name != "" && !style.EqualNames(rn, name) {
			continue
		}
		obj, ok := b.Describe(raw)
		if !ok {
			continue
		}
		if h := s.build(b, raw, nil, rn, obj); h != nil {
			return s.intern(h)
		}
	}
	return nil
}

// locate returns the hierarchical handle whose full name is fullName in
// backend b, descending from b's roots one delimited prefix at a time.
func (s *Session) locate(b Native, fullName string) *Handle {
	style := b.Style()
	var scope *Handle
	for _, raw := range b.Roots() {
		rn, ok := b.HandleName(raw)
		if !ok {
			continue
		}
		if h := s.rootIn(b, rn); h != nil && style.HasDelimitedPrefix(fullName, h.FullName()) {
			scope = h
			break
		}
	}
	for scope != nil {
		if style.EqualNames(scope.FullName(), fullName) {
			return scope
		}
		var next *Handle
		for r := range s.Iterate(scope, IterObjects).Seq() {
			if r.Status == IterFound && style.HasDelimitedPrefix(fullName, r.Handle.FullName()) {
				next = r.Handle
				break
			}
		}
		scope = next
	}
	return nil
}

func (s *Session) rootNames() []string {
	var names []string
	for _, b := range s.backends {
		for _, raw := range b.Roots() {
			if n, ok := b.HandleName(raw); ok {
				names = append(names, n)
			}
		}
	}
	return names
}

// ResolveName returns the child of parent called name, or nil.
//
// The parent's own backend is asked first, then every other backend.
func (s *Session) ResolveName(parent *Handle, name string) *Handle {
	if parent == nil || name == "" {
		return nil
	}
	if h := s.resolveNameIn(parent.backend, parent, name); h != nil {
		return h
	}
	for _, b := range s.backends {
		if b == parent.backend {
			continue
		}
		if h := s.resolveNameIn(b, parent, name); h != nil {
			return h
		}
	}
	s.log.Debug("object not found", "parent", parent.FullName(), "name", name)
	return nil
}

// categoriesFor lists the search categories legal under parent.
func categoriesFor(parent *Handle) []Category {
	switch parent.kind {
	case KindModule:
		return []Category{CategoryRegion, CategorySignal, CategoryVariable}
	case KindGenArray:
		return []Category{CategoryRegion}
	case KindStructure:
		if parent.variable {
			return []Category{CategoryVariable}
		}
		return []Category{CategorySignal}
	}
	return nil
}

func (s *Session) resolveNameIn(b Native, parent *Handle, name string) *Handle {
	cats := categoriesFor(parent)
	if len(cats) == 0 {
		s.log.Debug("kind has no named children", "parent", parent.FullName(), "kind", parent.kind)
		return nil
	}

	style := b.Style()
	var fq string
	if parent.kind == KindGenArray {
		fq = style.ChildName(parent.parent, name)
	} else {
		fq = style.ChildName(parent, name)
	}

	for _, cat := range cats {
		raw, ok := b.FindByName(fq, cat)
		if !ok {
			continue
		}
		obj, ok := b.Describe(raw)
		if !ok {
			continue
		}
		return s.fromLookup(b, parent, name, raw, obj)
	}

	if parent.kind == KindModule {
		return s.scanGenerate(b, parent, name)
	}
	return nil
}

// fromLookup turns a by-name hit into a handle. Hits on generate loops are
// normalised: the bare loop name always yields a pseudo region, whether the
// backend returned the loop object or mapped the name to an instance.
func (s *Session) fromLookup(b Native, parent *Handle, name string, raw NativeHandle, obj Object) *Handle {
	style := b.Style()
	switch obj.Generate {
	case GenLoop:
		if parent.kind == KindGenArray {
			return nil
		}
		return s.pseudoRegion(b, parent, name)
	case GenInstance:
		base, label, ok := style.SplitGenIndex(name)
		if !ok {
			if parent.kind == KindGenArray {
				return nil
			}
			return s.pseudoRegion(b, parent, name)
		}
		pseudo := parent
		if parent.kind != KindGenArray || !style.EqualNames(parent.name, base) {
			if parent.kind == KindGenArray {
				return nil
			}
			pseudo = s.pseudoRegion(b, parent, base)
		}
		return s.genInstance(b, pseudo, raw, label, obj)
	}
	if parent.kind == KindGenArray {
		return nil
	}
	if rn, ok := b.HandleName(raw); ok && style.EqualNames(rn, name) {
		name = rn
	}
	h := s.build(b, raw, parent, name, obj)
	if h == nil {
		return nil
	}
	return s.intern(h)
}

// scanGenerate looks for a generate instance under parent whose name has
// name as a delimited prefix. The first match wins.
func (s *Session) scanGenerate(b Native, parent *Handle, name string) *Handle {
	style := b.Style()
	en := b.Enumerate(parent.native, RelRegions)
	if en == nil {
		return nil
	}
	for raw, ok := en.Next(); ok; raw, ok = en.Next() {
		obj, ok := b.Describe(raw)
		if !ok || obj.Generate == GenNone {
			continue
		}
		rn, ok := b.HandleName(raw)
		if !ok || !style.HasDelimitedPrefix(rn, name) {
			continue
		}
		s.log.Debug("generate loop matched by prefix", "parent", parent.FullName(), "name", name, "instance", rn)
		return s.pseudoRegion(b, parent, name)
	}
	return nil
}

// ResolveIndex returns element index of parent, or nil.
func (s *Session) ResolveIndex(parent *Handle, index int) *Handle {
	if parent == nil {
		return nil
	}
	switch {
	case parent.kind == KindGenArray:
		if h := s.genIndexIn(parent.backend, parent, index); h != nil {
			return h
		}
		for _, b := range s.backends {
			if b == parent.backend {
				continue
			}
			if h := s.genIndexIn(b, parent, index); h != nil {
				return h
			}
		}
		s.log.Debug("generate instance not found", "parent", parent.FullName(), "index", index)
		return nil
	case parent.indexable && parent.kind.indexable():
		return s.resolveElement(parent, index)
	}
	s.log.Error("object is not indexable", "name", parent.FullName(), "kind", parent.kind, "index", index)
	return nil
}

func (s *Session) genIndexIn(b Native, parent *Handle, index int) *Handle {
	fq := b.Style().GenIndexName(parent, index)
	raw, ok := b.FindByName(fq, CategoryRegion)
	if !ok {
		return nil
	}
	obj, ok := b.Describe(raw)
	if !ok {
		return nil
	}
	return s.genInstance(b, parent, raw, strconv.Itoa(index), obj)
}

// resolveElement normalises index against parent's range and either
// creates a pseudo handle for the next dimension or fetches the element at
// the flattened offset.
func (s *Session) resolveElement(parent *Handle, index int) *Handle {
	off, ok := parent.normalize(index)
	if !ok {
		s.log.Debug("index out of range", "name", parent.FullName(), "index", index,
			"left", parent.left, "right", parent.right)
		return nil
	}

	if parent.Dims() > 1 {
		p := &Handle{
			session:   s,
			backend:   parent.backend,
			native:    parent.native,
			name:      parent.name,
			index:     index,
			hasIndex:  true,
			kind:      parent.kind,
			parent:    parent,
			constant:  parent.constant,
			pseudo:    true,
			indexable: true,
			variable:  parent.variable,
			offset:    off,
		}
		p.setRange(parent.ranges, parent.dim+1)
		return s.intern(p)
	}

	flat := off
	scale := parent.numElems
	for p := parent; p.pseudo && p.kind != KindGenArray && p.parent != nil; p = p.parent {
		flat += scale * p.offset
		scale *= p.parent.numElems
	}

	b := parent.backend
	raw, ok := b.SubElement(parent.native, flat)
	if !ok {
		s.log.Debug("sub-element not found", "name", parent.FullName(), "index", index, "offset", flat)
		return nil
	}
	obj, ok := b.Describe(raw)
	if !ok {
		return nil
	}
	h := s.build(b, raw, parent, parent.name, obj)
	if h == nil {
		return nil
	}
	h.index, h.hasIndex = index, true
	return s.intern(h)
}

// ResolveRaw wraps a native handle obtained outside the object model as a
// child of parent.
func (s *Session) ResolveRaw(parent *Handle, raw NativeHandle) *Handle {
	if parent == nil || raw == nil {
		return nil
	}
	b := parent.backend
	name, ok := b.HandleName(raw)
	if !ok {
		s.log.Debug("raw handle has no name", "parent", parent.FullName())
		return nil
	}
	obj, ok := b.Describe(raw)
	if !ok {
		return nil
	}
	return s.fromLookup(b, parent, name, raw, obj)
}

// Lookup resolves a host path such as "top.sub.data[3]" or
// "top.loop[1].q" starting from a root.
func (s *Session) Lookup(path string) (*Handle, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var h *Handle
	for i, seg := range segs {
		if i == 0 {
			h = s.RootHandle(seg.name)
		} else {
			h = s.ResolveName(h, seg.name)
		}
		for _, idx := range seg.indices {
			if h == nil {
				break
			}
			h = s.ResolveIndex(h, idx)
		}
		if h == nil {
			return nil, NewNotFoundError(path)
		}
	}
	return h, nil
}

type pathSegment struct {
	name    string
	indices []int
}

func splitPath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, &Error{Code: ErrCodeNotFound, Message: "empty path"}
	}
	var segs []pathSegment
	for part := range strings.SplitSeq(path, ".") {
		name, rest, _ := strings.Cut(part, "[")
		seg := pathSegment{name: name}
		if name == "" {
			return nil, &Error{Code: ErrCodeNotFound, Message: "malformed path", Name: path}
		}
		if rest != "" {
			rest = "[" + rest
		}
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, &Error{Code: ErrCodeNotFound, Message: "malformed index", Name: path}
			}
			n, err := parseIndex(rest[1:end])
			if err != nil {
				return nil, &Error{Code: ErrCodeNotFound, Message: "malformed index", Name: path, Err: err}
			}
			seg.indices = append(seg.indices, n)
			rest = rest[end+1:]
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseIndex(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
