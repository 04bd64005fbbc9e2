package gpi

// State is the lifecycle state of a Callback.
type State int

const (
	StateFree State = iota
	StatePrimed
	StateCalled
	// StatePendingDelete marks a deregistered timer the backend could not
	// cancel. Its next fire is discarded.
	StatePendingDelete
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StatePrimed:
		return "primed"
	case StateCalled:
		return "called"
	case StatePendingDelete:
		return "pending_delete"
	}
	return "unknown"
}

// Edge filters value-change callbacks.
type Edge int

const (
	EdgeAny Edge = iota
	EdgeRising
	EdgeFalling
	edgeCount
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	}
	return "any"
}

// HandlerFunc is invoked when a callback fires. A handler re-arms its
// callback by calling cb.Arm.
type HandlerFunc func(cb *Callback)

// Callback is one event subscription.
//
//	Free --Arm--> Primed --fire--> Called --no re-arm--> Free
//	                                  \--Arm--> Primed
type Callback struct {
	session *Session
	backend Native

	reason    Reason
	state     State
	delay     uint64
	target    *Handle
	edge      Edge
	recurring bool
	handler   HandlerFunc

	token      Token
	registered bool

	pooled   bool
	calls    int
	releases int
}

func newCallback(s *Session, b Native, reason Reason) *Callback {
	return &Callback{session: s, backend: b, reason: reason}
}

func (cb *Callback) Reason() Reason    { return cb.reason }
func (cb *Callback) State() State      { return cb.state }
func (cb *Callback) Delay() uint64     { return cb.delay }
func (cb *Callback) Target() *Handle   { return cb.target }
func (cb *Callback) Edge() Edge        { return cb.edge }
func (cb *Callback) Recurring() bool   { return cb.recurring }
func (cb *Callback) Session() *Session { return cb.session }
func (cb *Callback) Backend() Native   { return cb.backend }

// Calls returns how many times the handler has run.
func (cb *Callback) Calls() int { return cb.calls }

// Arm requests a fresh native registration and moves the callback to
// Primed. Arming a Primed callback is rejected.
func (cb *Callback) Arm() error {
	s := cb.session
	if s.closed {
		return &Error{Code: ErrCodeClosed, Message: "session is closed"}
	}
	if cb.state == StatePrimed {
		s.log.Error("callback already primed", "reason", cb.reason)
		return &Error{Code: ErrCodeAlreadyPrimed, Message: "callback already primed", Backend: cb.backend.Name()}
	}
	if cb.registered && cb.state != StateFree && cb.state != StatePendingDelete {
		cb.cleanup()
	}

	req := CallbackRequest{Reason: cb.reason, Delay: cb.delay, Data: cb}
	if cb.target != nil {
		req.Target = cb.target.native
	}
	tok, err := cb.backend.Register(req)
	if err != nil {
		s.log.Error("callback registration failed", "reason", cb.reason, "backend", cb.backend.Name(), "error", err)
		return NewNativeError(cb.backend.Name(), "register "+cb.reason.String(), err)
	}
	cb.token = tok
	cb.registered = true
	cb.pooled = false
	cb.setState(StatePrimed)
	return nil
}

// cleanup releases the native registration. It is idempotent.
func (cb *Callback) cleanup() {
	if cb.state == StateFree {
		return
	}
	if cb.registered {
		if err := cb.backend.Remove(cb.token); err != nil {
			cb.session.log.Error("callback removal failed", "reason", cb.reason, "backend", cb.backend.Name(), "error", err)
		}
	}
	cb.token = nil
	cb.registered = false
	cb.setState(StateFree)
}

// fire runs on the kernel's dispatch goroutine.
func (cb *Callback) fire() {
	s := cb.session
	switch cb.state {
	case StatePendingDelete:
		cb.token = nil
		cb.registered = false
		cb.setState(StateFree)
		s.release(cb)
		return
	case StatePrimed:
	default:
		s.log.Debug("ignoring fire of callback that is not primed", "reason", cb.reason, "state", cb.state)
		return
	}

	if cb.reason == ReasonValueChange && !cb.edgeMatches() {
		return
	}

	cb.setState(StateCalled)
	cb.calls++
	s.log.Debug("callback fired", "reason", cb.reason, "sim_time", s.SimTime())
	if cb.handler != nil {
		cb.handler(cb)
	}

	if cb.state != StatePrimed {
		cb.cleanup()
		s.release(cb)
	}
}

// edgeMatches reports whether the target's current value satisfies the
// edge filter. A mismatch leaves the callback primed.
func (cb *Callback) edgeMatches() bool {
	if cb.edge == EdgeAny || cb.target == nil {
		return true
	}
	v, err := cb.target.BinStr()
	if err != nil {
		return false
	}
	switch cb.edge {
	case EdgeRising:
		return v == "1"
	case EdgeFalling:
		return v == "0"
	}
	return true
}

func (cb *Callback) setState(to State) {
	from := cb.state
	cb.state = to
	if to == StateFree {
		delete(cb.session.live, cb)
	} else {
		cb.session.live[cb] = struct{}{}
	}
	if t := cb.session.tracer; t != nil && from != to {
		t.CallbackTransition(cb, from, to)
	}
}
