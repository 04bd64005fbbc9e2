package gpi

import (
	"errors"
	"fmt"
	"log/slog"
)

// Tracer observes handle creation and callback state changes. A Tracer is
// called on the kernel's dispatch goroutine and must not block.
type Tracer interface {
	HandleCreated(h *Handle)
	CallbackTransition(cb *Callback, from, to State)
}

// Session owns every handle and callback created for one simulation run.
//
// All methods must be called from the kernel's dispatch goroutine. Handles
// and callbacks become invalid after Close.
type Session struct {
	id       string
	backends []Native
	log      *slog.Logger
	tracer   Tracer
	idGen    IDGenerator

	handles map[handleKey]*Handle
	live    map[*Callback]struct{}
	timers  TimerPool

	readOnly  *Callback
	readWrite *Callback
	nextTime  *Callback
	lifecycle []*Callback

	ending bool
	closed bool
}

type handleKey struct {
	backend string
	name    string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithTracer installs a Tracer.
func WithTracer(t Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithIDGenerator sets the session id source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) {
		s.idGen = g
	}
}

// NewSession binds the backends to a new session. The first backend is the
// primary one: it owns phase and timer callbacks and is tried first when a
// root is looked up.
func NewSession(backends []Native, opts ...Option) (*Session, error) {
	if len(backends) == 0 {
		return nil, errors.New("gpi: no backends")
	}

	s := &Session{
		backends: backends,
		log:      slog.Default(),
		idGen:    UUIDv7Generator{},
		handles:  make(map[handleKey]*Handle),
		live:     make(map[*Callback]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.id = s.idGen.Generate()
	s.log = s.log.With("session", s.id)

	names := make([]string, 0, len(backends))
	for _, b := range backends {
		b.Bind(s)
		names = append(names, b.Name())
	}
	s.log.Debug("session started", "backends", names)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Backends returns the bound backends in priority order.
func (s *Session) Backends() []Native { return s.backends }

func (s *Session) primary() Native { return s.backends[0] }

// SimTime returns the current simulation time in precision units.
func (s *Session) SimTime() uint64 {
	high, low := s.primary().SimTime()
	return uint64(high)<<32 | uint64(low)
}

// SimTimeParts returns the current simulation time as native high and low
// words.
func (s *Session) SimTimeParts() (high, low uint32) {
	return s.primary().SimTime()
}

// Precision returns the simulator time precision as a power of ten.
func (s *Session) Precision() int {
	return s.primary().Precision()
}

// Dispatch is the kernel's single re-entry point. data must be a callback
// created by this session; anything else means the kernel handed back
// corrupt registration data and the process cannot continue safely.
func (s *Session) Dispatch(data any) {
	cb, ok := data.(*Callback)
	if !ok || cb == nil || cb.session != s {
		s.log.Error("corrupt callback dispatch", "critical", true, "data", fmt.Sprintf("%T", data))
		panic(fmt.Sprintf("gpi: corrupt callback dispatch data (%T)", data))
	}
	cb.fire()
}

// End asks every backend to finish the simulation. A pending end-of-
// simulation callback is discarded instead of being delivered.
func (s *Session) End() {
	if s.ending {
		return
	}
	s.ending = true
	for _, cb := range s.lifecycle {
		if cb.reason == ReasonEndOfSim && cb.state == StatePrimed {
			cb.setState(StatePendingDelete)
		}
	}
	s.log.Info("simulation end requested", "sim_time", s.SimTime())
	for _, b := range s.backends {
		b.Finish()
	}
}

// Close releases every native registration and drops all handles.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var errs []error
	for cb := range s.live {
		if cb.registered {
			if err := cb.backend.Remove(cb.token); err != nil {
				errs = append(errs, fmt.Errorf("remove %s callback: %w", cb.reason, err))
			}
		}
		cb.token = nil
		cb.registered = false
		cb.state = StateFree
	}
	clear(s.live)
	clear(s.handles)
	s.timers.free = nil
	s.closed = true
	s.log.Debug("session closed")
	return errors.Join(errs...)
}

// NumHandles returns the number of handles owned by the session.
func (s *Session) NumHandles() int { return len(s.handles) }

// build creates an unregistered handle for raw. It returns nil when the
// object's type cannot be classified.
func (s *Session) build(b Native, raw NativeHandle, parent *Handle, name string, obj Object) *Handle {
	kind := Classify(&obj.Type)
	if kind == KindUnknown {
		s.log.Debug("unclassifiable object skipped", "backend", b.Name(), "name", name, "tag", obj.Tag)
		return nil
	}
	h := &Handle{
		session:  s,
		backend:  b,
		native:   raw,
		name:     name,
		kind:     kind,
		parent:   parent,
		constant: obj.Const,
		variable: obj.Category == CategoryVariable,
	}
	switch kind {
	case KindRegister, KindArray, KindString:
		if len(obj.Ranges) > 0 {
			h.setRange(obj.Ranges, 0)
			h.indexable = true
		}
	}
	return h
}

// intern returns the existing handle with h's full name, or registers h.
// Names are folded on case-insensitive backends.
func (s *Session) intern(h *Handle) *Handle {
	key := handleKey{backend: h.backend.Name(), name: h.FullName()}
	if h.backend.Style().FoldCase {
		key.name = fold.String(key.name)
	}
	if old, ok := s.handles[key]; ok {
		return old
	}
	s.handles[key] = h
	if s.tracer != nil {
		s.tracer.HandleCreated(h)
	}
	return h
}

// pseudoRegion returns the pseudo handle standing for generate loop name
// under parent. It shares parent's native handle.
func (s *Session) pseudoRegion(b Native, parent *Handle, name string) *Handle {
	return s.intern(&Handle{
		session:   s,
		backend:   b,
		native:    parent.native,
		name:      name,
		kind:      KindGenArray,
		parent:    parent,
		pseudo:    true,
		indexable: true,
	})
}

// genInstance builds the handle for one generate instance below pseudo.
func (s *Session) genInstance(b Native, pseudo *Handle, raw NativeHandle, label string, obj Object) *Handle {
	h := s.build(b, raw, pseudo, pseudo.name, obj)
	if h == nil {
		return nil
	}
	if n, err := parseIndex(label); err == nil {
		h.index, h.hasIndex = n, true
	} else {
		h.indexStr = label
	}
	return s.intern(h)
}
