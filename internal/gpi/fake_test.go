package gpi

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	vpiStyle = NameStyle{
		Separator: ".", StructSeparator: ".",
		IndexOpen: "[", IndexClose: "]", GenIndexOpen: "[", GenIndexClose: "]",
	}
	fliStyle = NameStyle{
		Separator: "/", StructSeparator: ".", Leading: true,
		IndexOpen: "(", IndexClose: ")", GenIndexOpen: "(", GenIndexClose: ")",
		FoldCase: true,
	}
	vhpiStyle = NameStyle{
		Separator: ":", StructSeparator: ".", Leading: true,
		IndexOpen: "(", IndexClose: ")", GenIndexOpen: "(", GenIndexClose: ")",
		GroupPseudo: true, FoldCase: true,
	}
)

type fakeObj struct {
	name     string
	fq       string
	obj      Object
	parent   *fakeObj
	rel      Relation
	children []*fakeObj
	elems    []*fakeObj
	value    string
}

type fakeReg struct {
	req     CallbackRequest
	removed bool
	fired   bool
}

// fakeNative is an in-memory Native used by the package tests.
type fakeNative struct {
	name   string
	style  NameStyle
	quirks Quirks

	roots  []*fakeObj
	byName map[string]*fakeObj
	// aliases maps a fully qualified name to a different object, modelling
	// backends that resolve a bare generate name to an instance.
	aliases map[string]*fakeObj

	disp         Dispatcher
	regs         map[int]*fakeReg
	nextTok      int
	failRegister bool
	removeErr    error
	finished     bool

	time      uint64
	subCalls  []int
	relations map[*fakeObj][]Relation
}

func newFake(name string, style NameStyle) *fakeNative {
	return &fakeNative{
		name:      name,
		style:     style,
		byName:    make(map[string]*fakeObj),
		aliases:   make(map[string]*fakeObj),
		regs:      make(map[int]*fakeReg),
		relations: make(map[*fakeObj][]Relation),
	}
}

var (
	moduleType = TypeDesc{Class: ClassConstruct}
	bitType    = TypeDesc{Class: ClassEnum, Literals: []string{"'0'", "'1'"}}
	intType    = TypeDesc{Class: ClassInteger}
	vecType    = TypeDesc{Class: ClassArray, Dims: 1, Elem: &bitType}
	recType    = TypeDesc{Class: ClassRecord}
)

func (f *fakeNative) root(name string) *fakeObj {
	o := &fakeObj{name: name, obj: Object{Category: CategoryRegion, Type: moduleType}}
	o.fq = name
	if f.style.Leading {
		o.fq = f.style.Separator + name
	}
	f.roots = append(f.roots, o)
	f.byName[o.fq] = o
	return o
}

func (f *fakeNative) add(parent *fakeObj, name string, rel Relation, obj Object) *fakeObj {
	o := &fakeObj{name: name, obj: obj, parent: parent, rel: rel}
	sep := f.style.Separator
	if parent.obj.Type.Class == ClassRecord {
		sep = f.style.StructSeparator
	}
	o.fq = parent.fq + sep + name
	parent.children = append(parent.children, o)
	f.byName[o.fq] = o
	return o
}

func (f *fakeNative) module(parent *fakeObj, name string) *fakeObj {
	return f.add(parent, name, RelRegions, Object{Category: CategoryRegion, Type: moduleType})
}

func (f *fakeNative) signal(parent *fakeObj, name string, t TypeDesc, ranges ...Range) *fakeObj {
	return f.add(parent, name, RelSignals, Object{Category: CategorySignal, Type: t, Ranges: ranges})
}

// genLoop adds instances name(i) for each index plus, when withLoop is set,
// a loop object reachable by the bare name.
func (f *fakeNative) genLoop(parent *fakeObj, name string, withLoop bool, indices ...int) []*fakeObj {
	if withLoop {
		loop := &fakeObj{name: name, obj: Object{Category: CategoryRegion, Type: moduleType, Generate: GenLoop}, parent: parent}
		loop.fq = parent.fq + f.style.Separator + name
		f.byName[loop.fq] = loop
	}
	var out []*fakeObj
	for _, i := range indices {
		label := name + f.style.GenIndexOpen + strconv.Itoa(i) + f.style.GenIndexClose
		out = append(out, f.add(parent, label, RelRegions, Object{Category: CategoryRegion, Type: moduleType, Generate: GenInstance}))
	}
	return out
}

// elements fills o with n flattened elements of type t.
func (f *fakeNative) elements(o *fakeObj, n int, t TypeDesc) {
	for i := 0; i < n; i++ {
		e := &fakeObj{name: fmt.Sprintf("%s#%d", o.name, i), obj: Object{Category: o.obj.Category, Type: t}, parent: o}
		e.fq = o.fq + "#" + strconv.Itoa(i)
		o.elems = append(o.elems, e)
	}
}

func (f *fakeNative) Name() string      { return f.name }
func (f *fakeNative) Style() NameStyle  { return f.style }
func (f *fakeNative) Quirks() Quirks    { return f.quirks }
func (f *fakeNative) Bind(d Dispatcher) { f.disp = d }

func (f *fakeNative) Roots() []NativeHandle {
	out := make([]NativeHandle, len(f.roots))
	for i, r := range f.roots {
		out[i] = r
	}
	return out
}

func (f *fakeNative) HandleName(h NativeHandle) (string, bool) {
	o, ok := h.(*fakeObj)
	if !ok || o.name == "" {
		return "", false
	}
	return o.name, true
}

func (f *fakeNative) FullName(h NativeHandle) string {
	if o, ok := h.(*fakeObj); ok {
		return o.fq
	}
	return ""
}

func (f *fakeNative) Describe(h NativeHandle) (Object, bool) {
	o, ok := h.(*fakeObj)
	if !ok {
		return Object{}, false
	}
	return o.obj, true
}

func (f *fakeNative) FindByName(fq string, cat Category) (NativeHandle, bool) {
	o, ok := f.aliases[fq]
	if !ok {
		o, ok = f.byName[fq]
	}
	if !ok || o.obj.Category != cat {
		return nil, false
	}
	return o, true
}

func (f *fakeNative) SubElement(h NativeHandle, offset int) (NativeHandle, bool) {
	o, ok := h.(*fakeObj)
	if !ok {
		return nil, false
	}
	f.subCalls = append(f.subCalls, offset)
	if offset < 0 || offset >= len(o.elems) {
		return nil, false
	}
	return o.elems[offset], true
}

func (f *fakeNative) Relations(h NativeHandle) []Relation {
	o, ok := h.(*fakeObj)
	if !ok {
		return nil
	}
	if rels, ok := f.relations[o]; ok {
		return rels
	}
	return []Relation{RelRegions, RelSignals, RelVariables}
}

type sliceEnum struct {
	objs []*fakeObj
	i    int
}

func (e *sliceEnum) Next() (NativeHandle, bool) {
	if e.i >= len(e.objs) {
		return nil, false
	}
	o := e.objs[e.i]
	e.i++
	return o, true
}

func (f *fakeNative) Enumerate(h NativeHandle, rel Relation) Enumeration {
	o, ok := h.(*fakeObj)
	if !ok {
		return nil
	}
	var objs []*fakeObj
	for _, c := range o.children {
		if c.rel == rel {
			objs = append(objs, c)
		}
	}
	if len(objs) == 0 {
		return nil
	}
	return &sliceEnum{objs: objs}
}

func (f *fakeNative) Register(req CallbackRequest) (Token, error) {
	if f.failRegister {
		return nil, errors.New("registration refused")
	}
	f.nextTok++
	f.regs[f.nextTok] = &fakeReg{req: req}
	return f.nextTok, nil
}

func (f *fakeNative) Remove(tok Token) error {
	r, ok := f.regs[tok.(int)]
	if !ok {
		return errors.New("unknown token")
	}
	r.removed = true
	return f.removeErr
}

func (f *fakeNative) Finish() { f.finished = true }

func (f *fakeNative) SimTime() (uint32, uint32) { return uint32(f.time >> 32), uint32(f.time) }
func (f *fakeNative) Precision() int            { return -12 }

// fire delivers registration tok as the kernel would.
func (f *fakeNative) fire(tok Token) {
	r := f.regs[tok.(int)]
	r.fired = true
	f.disp.Dispatch(r.req.Data)
}

// live counts registrations that are neither removed nor fired.
func (f *fakeNative) live() int {
	n := 0
	for _, r := range f.regs {
		if !r.removed && !r.fired {
			n++
		}
	}
	return n
}

func (f *fakeNative) value(h NativeHandle) (*fakeObj, error) {
	o, ok := h.(*fakeObj)
	if !ok {
		return nil, errors.New("bad handle")
	}
	return o, nil
}

func (f *fakeNative) BinStr(h NativeHandle) (string, error) {
	o, err := f.value(h)
	if err != nil {
		return "", err
	}
	return o.value, nil
}

func (f *fakeNative) Int(h NativeHandle) (int64, error) {
	o, err := f.value(h)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(o.value, 2, 64)
}

func (f *fakeNative) Real(h NativeHandle) (float64, error) {
	return 0, errors.New("not real")
}

func (f *fakeNative) Str(h NativeHandle) (string, error) { return f.BinStr(h) }

func (f *fakeNative) SetBinStr(h NativeHandle, v string) error {
	o, err := f.value(h)
	if err != nil {
		return err
	}
	o.value = v
	return nil
}

func (f *fakeNative) SetInt(h NativeHandle, v int64) error {
	return f.SetBinStr(h, strconv.FormatInt(v, 2))
}

func (f *fakeNative) SetReal(h NativeHandle, v float64) error { return errors.New("not real") }
func (f *fakeNative) SetStr(h NativeHandle, v string) error   { return f.SetBinStr(h, v) }
