package gpi

// RegisterTimer arms an after-delay callback, reusing a retired timer when
// one is available. It returns nil if the backend rejects the registration.
func (s *Session) RegisterTimer(delay uint64, fn HandlerFunc) *Callback {
	cb := s.timers.Get()
	if cb == nil {
		cb = newCallback(s, s.primary(), ReasonAfterDelay)
	}
	cb.delay = delay
	cb.handler = fn
	if err := cb.Arm(); err != nil {
		return nil
	}
	return cb
}

// RegisterReadOnly arms the read-only phase singleton.
func (s *Session) RegisterReadOnly(fn HandlerFunc) *Callback {
	if s.readOnly == nil {
		s.readOnly = s.singleton(ReasonReadOnly)
	}
	return s.armSingleton(s.readOnly, fn)
}

// RegisterReadWrite arms the read-write synchronisation singleton.
func (s *Session) RegisterReadWrite(fn HandlerFunc) *Callback {
	if s.readWrite == nil {
		s.readWrite = s.singleton(ReasonReadWrite)
	}
	return s.armSingleton(s.readWrite, fn)
}

// RegisterNextTime arms the next-time-step singleton.
func (s *Session) RegisterNextTime(fn HandlerFunc) *Callback {
	if s.nextTime == nil {
		s.nextTime = s.singleton(ReasonNextTime)
	}
	return s.armSingleton(s.nextTime, fn)
}

func (s *Session) singleton(r Reason) *Callback {
	cb := newCallback(s, s.primary(), r)
	cb.recurring = true
	return cb
}

func (s *Session) armSingleton(cb *Callback, fn HandlerFunc) *Callback {
	prev := cb.handler
	cb.handler = fn
	if err := cb.Arm(); err != nil {
		cb.handler = prev
		return nil
	}
	return cb
}

// RegisterValueChange arms the value-change callback of h for edge. Each
// signal owns one callback per edge.
func (s *Session) RegisterValueChange(h *Handle, edge Edge, fn HandlerFunc) *Callback {
	if h == nil || h.pseudo || !h.kind.IsSignal() {
		s.log.Error("value change needs a signal", "handle", h)
		return nil
	}
	if edge < 0 || edge >= edgeCount {
		edge = EdgeAny
	}
	cb := h.edges[edge]
	if cb == nil {
		cb = newCallback(s, h.backend, ReasonValueChange)
		cb.target = h
		cb.edge = edge
		cb.recurring = true
		h.edges[edge] = cb
	}
	prev := cb.handler
	cb.handler = fn
	if err := cb.Arm(); err != nil {
		cb.handler = prev
		return nil
	}
	return cb
}

// RegisterStartOfSim arms a one-shot start-of-simulation callback.
func (s *Session) RegisterStartOfSim(fn HandlerFunc) *Callback {
	return s.registerLifecycle(ReasonStartOfSim, fn)
}

// RegisterEndOfSim arms a one-shot end-of-simulation callback.
func (s *Session) RegisterEndOfSim(fn HandlerFunc) *Callback {
	return s.registerLifecycle(ReasonEndOfSim, fn)
}

func (s *Session) registerLifecycle(r Reason, fn HandlerFunc) *Callback {
	cb := newCallback(s, s.primary(), r)
	cb.handler = fn
	if err := cb.Arm(); err != nil {
		return nil
	}
	s.lifecycle = append(s.lifecycle, cb)
	return cb
}

// Deregister cancels cb. A primed timer on a backend that cannot cancel
// timers is marked PendingDelete and discarded when it fires.
func (s *Session) Deregister(cb *Callback) {
	if cb == nil {
		return
	}
	if cb.state == StatePrimed && cb.reason == ReasonAfterDelay && cb.backend.Quirks().UncancellableTimers {
		cb.setState(StatePendingDelete)
		return
	}
	cb.cleanup()
}

// release retires cb after its final fire.
func (s *Session) release(cb *Callback) {
	cb.releases++
	switch cb.reason {
	case ReasonAfterDelay:
		s.timers.Put(cb)
	case ReasonStartOfSim, ReasonEndOfSim:
		for i, c := range s.lifecycle {
			if c == cb {
				s.lifecycle = append(s.lifecycle[:i], s.lifecycle[i+1:]...)
				break
			}
		}
	}
}

// PooledTimers returns the number of retired timers ready for reuse.
func (s *Session) PooledTimers() int { return s.timers.Len() }
