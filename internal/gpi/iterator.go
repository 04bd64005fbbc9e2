package gpi

import (
	"iter"
)

// IterStatus classifies one iteration result.
type IterStatus int

const (
	IterEnd IterStatus = iota
	// IterFound carries a handle.
	IterFound
	// IterFoundNoName means a native object exists but has no name.
	IterFoundNoName
	// IterNotNative carries the name and raw handle of an object outside
	// the portable kinds.
	IterNotNative
	// IterNotNativeNoName carries only the raw handle.
	IterNotNativeNoName
)

func (s IterStatus) String() string {
	switch s {
	case IterEnd:
		return "end"
	case IterFound:
		return "found"
	case IterFoundNoName:
		return "found_no_name"
	case IterNotNative:
		return "not_native"
	case IterNotNativeNoName:
		return "not_native_no_name"
	}
	return "unknown"
}

// IterResult is one step of an Iterator.
type IterResult struct {
	Status IterStatus
	Handle *Handle
	Name   string
	Raw    NativeHandle
}

// Selector chooses which relations an Iterator walks.
type Selector int

const (
	IterObjects Selector = iota
	IterDrivers
	IterLoads
)

// Iterator lazily enumerates the children of one scope. It is single-pass.
type Iterator struct {
	s     *Session
	b     Native
	scope *Handle

	rels   []Relation
	relIdx int
	cur    Enumeration
	curRel Relation

	// seen holds the collapsed names of pseudo regions already yielded.
	seen map[string]struct{}

	elements bool
	elemNext int

	done bool
}

// Iterate returns an iterator over the children of scope.
func (s *Session) Iterate(scope *Handle, sel Selector) *Iterator {
	it := &Iterator{s: s, scope: scope, seen: make(map[string]struct{})}
	if scope == nil {
		it.done = true
		return it
	}
	it.b = scope.backend

	switch {
	case sel == IterDrivers || sel == IterLoads:
		rel := RelDrivers
		if sel == IterLoads {
			rel = RelLoads
		}
		it.rels = []Relation{rel}
	case scope.kind == KindGenArray:
		it.rels = []Relation{RelRegions}
	case scope.indexable && scope.kind.indexable():
		it.elements = true
	default:
		it.rels = it.b.Relations(scope.native)
		if len(it.rels) == 0 {
			s.log.Warn("no relations for object type", "name", scope.FullName(), "kind", scope.kind)
			it.done = true
		}
	}
	return it
}

// Next returns the next child. After IterEnd every call returns IterEnd.
func (it *Iterator) Next() IterResult {
	for !it.done {
		if it.elements {
			if r, ok := it.nextElement(); ok {
				return r
			}
			continue
		}
		if it.cur == nil {
			if it.relIdx >= len(it.rels) {
				it.done = true
				break
			}
			rel := it.rels[it.relIdx]
			it.relIdx++
			en := it.b.Enumerate(it.scope.native, rel)
			if en == nil {
				continue
			}
			it.cur, it.curRel = en, rel
		}
		raw, ok := it.cur.Next()
		if !ok {
			it.cur = nil
			continue
		}
		if r, ok := it.wrap(raw); ok {
			return r
		}
	}
	return IterResult{Status: IterEnd}
}

// Seq adapts the iterator to a range-over-func sequence. The sequence
// shares the iterator's position.
func (it *Iterator) Seq() iter.Seq[IterResult] {
	return func(yield func(IterResult) bool) {
		for {
			r := it.Next()
			if r.Status == IterEnd || !yield(r) {
				return
			}
		}
	}
}

// Handles collects the remaining found handles.
func (it *Iterator) Handles() []*Handle {
	var out []*Handle
	for r := range it.Seq() {
		if r.Status == IterFound {
			out = append(out, r.Handle)
		}
	}
	return out
}

func (it *Iterator) nextElement() (IterResult, bool) {
	sc := it.scope
	if it.elemNext >= sc.numElems {
		it.done = true
		return IterResult{}, false
	}
	off := it.elemNext
	it.elemNext++
	index := sc.left + off
	if !sc.ascending {
		index = sc.left - off
	}
	h := it.s.resolveElement(sc, index)
	if h == nil {
		return IterResult{}, false
	}
	return IterResult{Status: IterFound, Handle: h, Name: h.ShortName()}, true
}

// wrap classifies one raw child. ok is false for skipped children.
func (it *Iterator) wrap(raw NativeHandle) (IterResult, bool) {
	b := it.b
	name, named := b.HandleName(raw)
	obj, described := b.Describe(raw)
	if !described || Classify(&obj.Type) == KindUnknown {
		it.s.log.Debug("object type not representable", "scope", it.scope.FullName(), "name", name, "tag", obj.Tag)
		if named {
			return IterResult{Status: IterNotNative, Name: name, Raw: raw}, true
		}
		return IterResult{Status: IterNotNativeNoName, Raw: raw}, true
	}
	if !named {
		return IterResult{Status: IterFoundNoName, Raw: raw}, true
	}

	style := b.Style()
	if it.scope.kind == KindGenArray {
		if obj.Generate != GenInstance || !style.HasDelimitedPrefix(name, it.scope.name) {
			return IterResult{}, false
		}
		base, label, ok := style.SplitGenIndex(name)
		if !ok || !style.EqualNames(base, it.scope.name) {
			return IterResult{}, false
		}
		h := it.s.genInstance(b, it.scope, raw, label, obj)
		if h == nil {
			return IterResult{}, false
		}
		return IterResult{Status: IterFound, Handle: h, Name: name}, true
	}

	if obj.Generate != GenNone && it.curRel == RelRegions {
		collapsed := name
		if base, _, ok := style.SplitGenIndex(name); ok {
			collapsed = base
		}
		key := collapsed
		if style.FoldCase {
			key = fold.String(key)
		}
		if _, ok := it.seen[key]; ok {
			return IterResult{}, false
		}
		it.seen[key] = struct{}{}
		h := it.s.pseudoRegion(b, it.scope, collapsed)
		return IterResult{Status: IterFound, Handle: h, Name: collapsed}, true
	}

	if it.curRel == RelDrivers || it.curRel == RelLoads {
		// Drivers and loads live elsewhere in the hierarchy.
		h := it.s.locate(b, b.FullName(raw))
		if h == nil {
			it.s.log.Debug("connected object not reachable from a root", "scope", it.scope.FullName(), "name", b.FullName(raw))
			return IterResult{}, false
		}
		return IterResult{Status: IterFound, Handle: h, Name: h.FullName()}, true
	}
	h := it.s.build(b, raw, it.scope, name, obj)
	if h == nil {
		return IterResult{}, false
	}
	h = it.s.intern(h)
	return IterResult{Status: IterFound, Handle: h, Name: name}, true
}
