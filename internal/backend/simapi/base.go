package simapi

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

var fold = cases.Fold()

// Base implements the navigation, scheduling and value access parts of
// gpi.Native. The embedding backend provides Name, Style and Quirks.
type Base struct {
	dialect Dialect
	kernel  *sim.Kernel
	log     *slog.Logger

	roots  []*Object
	loops  []*Object
	byName map[string]*Object
	byNode map[*sim.Node]*Object
	alias  map[string]*Object

	disp gpi.Dispatcher
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) {
		b.log = l
	}
}

// New builds the object tree of the kernel's design as seen through d.
func New(k *sim.Kernel, d Dialect, opts ...Option) *Base {
	b := &Base{
		dialect: d,
		kernel:  k,
		log:     slog.Default(),
		byName:  make(map[string]*Object),
		byNode:  make(map[*sim.Node]*Object),
		alias:   make(map[string]*Object),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("backend", d.Name())

	bl := &builder{b: b, style: d.Style()}
	for _, r := range k.Design().Roots {
		b.roots = append(b.roots, bl.root(r))
	}
	return b
}

// Kernel returns the kernel the backend drives.
func (b *Base) Kernel() *sim.Kernel { return b.kernel }

// Logger returns the backend logger.
func (b *Base) Logger() *slog.Logger { return b.log }

// Loops returns every generate loop object.
func (b *Base) Loops() []*Object { return b.loops }

// Alias makes fq resolve to o.
func (b *Base) Alias(fq string, o *Object) { b.alias[b.key(fq)] = o }

// Lookup returns the object indexed under fq, ignoring category.
func (b *Base) Lookup(fq string) (*Object, bool) {
	k := b.key(fq)
	if o, ok := b.alias[k]; ok {
		return o, true
	}
	o, ok := b.byName[k]
	return o, ok
}

// ObjectFor returns the object of an elaborated node.
func (b *Base) ObjectFor(n *sim.Node) (*Object, bool) {
	o, ok := b.byNode[n]
	return o, ok
}

// EqualNames compares identifiers with the dialect's case rules.
func (b *Base) EqualNames(x, y string) bool {
	return b.key(x) == b.key(y)
}

func (b *Base) key(name string) string {
	if b.dialect.Style().FoldCase {
		return fold.String(name)
	}
	return name
}

func object(h gpi.NativeHandle) (*Object, bool) {
	o, ok := h.(*Object)
	return o, ok && o != nil
}

func (b *Base) Roots() []gpi.NativeHandle {
	out := make([]gpi.NativeHandle, len(b.roots))
	for i, r := range b.roots {
		out[i] = r
	}
	return out
}

func (b *Base) HandleName(h gpi.NativeHandle) (string, bool) {
	o, ok := object(h)
	if !ok || o.name == "" {
		return "", false
	}
	return o.name, true
}

func (b *Base) FullName(h gpi.NativeHandle) string {
	if o, ok := object(h); ok {
		return o.fullName
	}
	return ""
}

func (b *Base) Describe(h gpi.NativeHandle) (gpi.Object, bool) {
	o, ok := object(h)
	if !ok {
		return gpi.Object{}, false
	}
	return b.dialect.DescribeObject(o)
}

// FindByName returns the object called fq if it belongs to cat.
func (b *Base) FindByName(fq string, cat gpi.Category) (gpi.NativeHandle, bool) {
	o, ok := b.Lookup(fq)
	if !ok {
		return nil, false
	}
	return b.InCategory(o, cat)
}

// InCategory returns o when it belongs to cat.
func (b *Base) InCategory(o *Object, cat gpi.Category) (gpi.NativeHandle, bool) {
	obj, ok := b.dialect.DescribeObject(o)
	if !ok || obj.Category != cat {
		return nil, false
	}
	return o, true
}

func (b *Base) SubElement(h gpi.NativeHandle, offset int) (gpi.NativeHandle, bool) {
	o, ok := object(h)
	if !ok || offset < 0 || offset >= len(o.elems) {
		return nil, false
	}
	return o.elems[offset], true
}

func (b *Base) Relations(h gpi.NativeHandle) []gpi.Relation {
	o, ok := object(h)
	if !ok {
		return nil
	}
	return b.dialect.ScopeRelations(o)
}

type sliceEnum struct {
	objs []*Object
	i    int
}

func (e *sliceEnum) Next() (gpi.NativeHandle, bool) {
	if e.i >= len(e.objs) {
		return nil, false
	}
	o := e.objs[e.i]
	e.i++
	return o, true
}

func (b *Base) Enumerate(h gpi.NativeHandle, rel gpi.Relation) gpi.Enumeration {
	o, ok := object(h)
	if !ok {
		return nil
	}
	var objs []*Object
	switch rel {
	case gpi.RelDrivers, gpi.RelLoads:
		nodes := o.node.Drivers
		if rel == gpi.RelLoads {
			nodes = o.node.Loads
		}
		for _, n := range nodes {
			if x, ok := b.byNode[n]; ok {
				objs = append(objs, x)
			}
		}
	default:
		for _, k := range o.kids {
			if b.dialect.MemberRelation(k) == rel {
				objs = append(objs, k)
			}
		}
	}
	if len(objs) == 0 {
		return nil
	}
	return &sliceEnum{objs: objs}
}

// Bind sets the receiver of kernel re-entries.
func (b *Base) Bind(d gpi.Dispatcher) { b.disp = d }

var phases = map[gpi.Reason]sim.Phase{
	gpi.ReasonValueChange: sim.PhaseValueChange,
	gpi.ReasonReadOnly:    sim.PhaseReadOnly,
	gpi.ReasonReadWrite:   sim.PhaseReadWrite,
	gpi.ReasonNextTime:    sim.PhaseNextTime,
	gpi.ReasonAfterDelay:  sim.PhaseDelay,
	gpi.ReasonStartOfSim:  sim.PhaseStart,
	gpi.ReasonEndOfSim:    sim.PhaseEnd,
}

// Register maps req onto a kernel registration. The token is the
// *sim.Registration.
func (b *Base) Register(req gpi.CallbackRequest) (gpi.Token, error) {
	if b.disp == nil {
		return nil, errors.New("backend is not bound to a dispatcher")
	}
	phase, ok := phases[req.Reason]
	if !ok {
		return nil, fmt.Errorf("unsupported callback reason %s", req.Reason)
	}
	var node *sim.Node
	if req.Target != nil {
		o, ok := object(req.Target)
		if !ok {
			return nil, errors.New("callback target is not a native object")
		}
		node = o.node
	}
	data := req.Data
	r, err := b.kernel.Register(phase, node, req.Delay, func() { b.disp.Dispatch(data) })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.dialect.ReasonName(req.Reason), err)
	}
	b.log.Debug("callback registered", "reason", b.dialect.ReasonName(req.Reason), "delay", req.Delay)
	return r, nil
}

// Remove cancels a registration. Removing a fired one is a no-op.
func (b *Base) Remove(tok gpi.Token) error {
	r, ok := tok.(*sim.Registration)
	if !ok || r == nil {
		return fmt.Errorf("unknown callback token %T", tok)
	}
	b.kernel.Remove(r)
	return nil
}

func (b *Base) Finish() { b.kernel.Finish() }

func (b *Base) SimTime() (high, low uint32) {
	now := b.kernel.Now()
	return uint32(now >> 32), uint32(now)
}

func (b *Base) Precision() int { return b.kernel.Design().Precision }
