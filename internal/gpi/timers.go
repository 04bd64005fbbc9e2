package gpi

// TimerPool is a LIFO free list of retired after-delay callbacks.
//
// Only the dispatcher returns timers to the pool; user deregistration
// drops them.
type TimerPool struct {
	free []*Callback
}

// Get pops the most recently retired timer, or returns nil.
func (p *TimerPool) Get() *Callback {
	n := len(p.free)
	if n == 0 {
		return nil
	}
	cb := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	cb.pooled = false
	return cb
}

// Put retires cb. A timer already in the pool is ignored.
func (p *TimerPool) Put(cb *Callback) {
	if cb.pooled {
		return
	}
	cb.pooled = true
	cb.handler = nil
	p.free = append(p.free, cb)
}

// Len returns the number of pooled timers.
func (p *TimerPool) Len() int { return len(p.free) }
