package sim

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Phase is the point in a time step at which a registration fires.
type Phase int

const (
	// PhaseValueChange fires after every change of the watched node. It
	// stays registered until removed.
	PhaseValueChange Phase = iota + 1
	// PhaseReadWrite fires once at the end of the current delta.
	PhaseReadWrite
	// PhaseReadOnly fires once when the current time step has settled.
	PhaseReadOnly
	// PhaseNextTime fires once when simulation time next advances.
	PhaseNextTime
	// PhaseDelay fires once after Delay time units.
	PhaseDelay
	PhaseStart
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseValueChange: "value_change",
	PhaseReadWrite:   "read_write",
	PhaseReadOnly:    "read_only",
	PhaseNextTime:    "next_time",
	PhaseDelay:       "delay",
	PhaseStart:       "start",
	PhaseEnd:         "end",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// DefaultMaxDeltas bounds the delta cycles of one time step.
const DefaultMaxDeltas = 1000

// ErrDeltaOverflow is returned when a time step does not settle.
var ErrDeltaOverflow = errors.New("time step did not settle")

// Registration is one pending kernel callback.
type Registration struct {
	phase  Phase
	node   *Node
	at     uint64
	seq    uint64
	fn     func()
	active bool
	index  int
}

// Phase returns the phase r waits for.
func (r *Registration) Phase() Phase { return r.phase }

// Active reports whether r can still fire.
func (r *Registration) Active() bool { return r.active }

// Kernel is a minimal event scheduler over a Design. It has no
// propagation semantics: values change only through deposits and clocks.
//
// All methods must be called from the goroutine running Run, including
// from inside callbacks.
type Kernel struct {
	design *Design
	log    *slog.Logger

	now       uint64
	seq       uint64
	maxDeltas int
	stopAt    uint64
	started   bool
	finished  bool

	timers    timerHeap
	readWrite []*Registration
	readOnly  []*Registration
	nextTime  []*Registration
	start     []*Registration
	end       []*Registration
	watch     map[*Node][]*Registration

	pending    []*Node
	pendingSet map[*Node]struct{}
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithLogger sets the kernel logger.
func WithLogger(l *slog.Logger) KernelOption {
	return func(k *Kernel) {
		k.log = l
	}
}

// WithMaxDeltas bounds the delta cycles of one time step.
func WithMaxDeltas(n int) KernelOption {
	return func(k *Kernel) {
		k.maxDeltas = n
	}
}

// WithStopTime ends the simulation before any event later than t.
func WithStopTime(t uint64) KernelOption {
	return func(k *Kernel) {
		k.stopAt = t
	}
}

// NewKernel attaches a kernel to d. A design can be driven by one kernel.
func NewKernel(d *Design, opts ...KernelOption) *Kernel {
	k := &Kernel{
		design:     d,
		log:        slog.Default(),
		maxDeltas:  DefaultMaxDeltas,
		watch:      make(map[*Node][]*Registration),
		pendingSet: make(map[*Node]struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	d.onChange = k.changed
	return k
}

// Design returns the design the kernel drives.
func (k *Kernel) Design() *Design { return k.design }

// Now returns the current simulation time.
func (k *Kernel) Now() uint64 { return k.now }

// Finished reports whether the simulation has ended or been asked to end.
func (k *Kernel) Finished() bool { return k.finished }

// Register schedules fn. node is required for PhaseValueChange; delay is
// used by PhaseDelay only.
func (k *Kernel) Register(phase Phase, node *Node, delay uint64, fn func()) (*Registration, error) {
	if k.finished && phase != PhaseEnd {
		return nil, errors.New("simulation has finished")
	}
	k.seq++
	r := &Registration{phase: phase, node: node, seq: k.seq, fn: fn, active: true, index: -1}
	switch phase {
	case PhaseValueChange:
		if node == nil || node.IsScope() || node.Kind == NodeProcess {
			return nil, fmt.Errorf("value change needs an object, got %v", node)
		}
		k.watch[node] = append(k.watch[node], r)
	case PhaseReadWrite:
		k.readWrite = append(k.readWrite, r)
	case PhaseReadOnly:
		k.readOnly = append(k.readOnly, r)
	case PhaseNextTime:
		k.nextTime = append(k.nextTime, r)
	case PhaseDelay:
		r.at = k.now + delay
		heap.Push(&k.timers, r)
	case PhaseStart:
		if k.started {
			return nil, errors.New("simulation has already started")
		}
		k.start = append(k.start, r)
	case PhaseEnd:
		k.end = append(k.end, r)
	default:
		return nil, fmt.Errorf("unknown phase %d", phase)
	}
	return r, nil
}

// Remove cancels r. Removing a fired or removed registration is a no-op.
func (k *Kernel) Remove(r *Registration) {
	if r == nil || !r.active {
		return
	}
	r.active = false
	switch r.phase {
	case PhaseDelay:
		if r.index >= 0 {
			heap.Remove(&k.timers, r.index)
		}
	case PhaseValueChange:
		regs := k.watch[r.node]
		for i, x := range regs {
			if x == r {
				k.watch[r.node] = append(regs[:i:i], regs[i+1:]...)
				break
			}
		}
		if len(k.watch[r.node]) == 0 {
			delete(k.watch, r.node)
		}
	}
}

// Finish ends the simulation after the current phase.
func (k *Kernel) Finish() {
	if !k.finished {
		k.log.Debug("simulation finish requested", "time", k.now)
	}
	k.finished = true
}

func (k *Kernel) changed(n *Node) {
	if _, ok := k.pendingSet[n]; ok {
		return
	}
	k.pendingSet[n] = struct{}{}
	k.pending = append(k.pending, n)
}

// Run drives the simulation until no events remain, the stop time is
// reached, Finish is called or ctx is cancelled.
func (k *Kernel) Run(ctx context.Context) error {
	if k.started {
		return errors.New("kernel already ran")
	}
	k.started = true
	k.log.Info("simulation starting", "design", k.design.Name, "precision", k.design.Precision)
	k.scheduleClocks()

	fireAll(k.take(&k.start))

	var err error
	resettles := 0
	for err == nil && !k.finished {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = k.settle(); err != nil || k.finished {
			break
		}
		fireAll(k.take(&k.readOnly))
		if len(k.pending) > 0 || len(k.readWrite) > 0 {
			// read-only callbacks wrote values; settle again at this time
			resettles++
			if resettles >= k.maxDeltas {
				err = fmt.Errorf("%w: read-only phase keeps writing at time %d", ErrDeltaOverflow, k.now)
			}
			continue
		}
		resettles = 0
		if k.finished || !k.advance() {
			break
		}
	}

	k.finished = true
	fireAll(k.take(&k.end))
	k.log.Info("simulation finished", "time", k.now, "error", err)
	return err
}

// settle runs delta cycles until no value change or read-write callback
// is pending.
func (k *Kernel) settle() error {
	for delta := 0; len(k.pending) > 0 || len(k.readWrite) > 0; delta++ {
		if delta >= k.maxDeltas {
			return fmt.Errorf("%w: %d deltas at time %d", ErrDeltaOverflow, delta, k.now)
		}
		changed := k.pending
		k.pending = nil
		clear(k.pendingSet)
		for _, n := range changed {
			for _, r := range append([]*Registration(nil), k.watch[n]...) {
				if r.active {
					r.fn()
				}
			}
			if k.finished {
				return nil
			}
		}
		fireAll(k.take(&k.readWrite))
		if k.finished {
			return nil
		}
	}
	return nil
}

// advance moves time to the next timer and fires every timer due. It
// returns false when no timer is left before the stop time.
func (k *Kernel) advance() bool {
	if k.timers.Len() == 0 {
		return false
	}
	next := k.timers[0].at
	if k.stopAt > 0 && next > k.stopAt {
		k.log.Debug("stop time reached", "time", k.now, "stop", k.stopAt)
		return false
	}
	if next > k.now {
		k.now = next
		fireAll(k.take(&k.nextTime))
	}
	for k.timers.Len() > 0 && k.timers[0].at <= k.now && !k.finished {
		r := heap.Pop(&k.timers).(*Registration)
		r.active = false
		r.fn()
	}
	return true
}

// take empties one of the one-shot lists and deactivates its entries.
func (k *Kernel) take(list *[]*Registration) []*Registration {
	regs := *list
	*list = nil
	live := regs[:0]
	for _, r := range regs {
		if r.active {
			r.active = false
			live = append(live, r)
		}
	}
	return live
}

func fireAll(regs []*Registration) {
	for _, r := range regs {
		r.fn()
	}
}

// scheduleClocks starts a toggling timer for every signal with a period.
func (k *Kernel) scheduleClocks() {
	k.design.Walk(func(n *Node) bool {
		if n.Period == 0 {
			return true
		}
		k.toggle(n, n.Period/2)
		return true
	})
}

func (k *Kernel) toggle(n *Node, half uint64) {
	_, _ = k.Register(PhaseDelay, nil, half, func() {
		next := "1"
		if v, err := n.BinStr(); err == nil && v == "1" {
			next = "0"
		}
		changed, err := n.setBinStr(next)
		if err != nil {
			k.log.Error("clock toggle failed", "signal", n.Path(), "error", err)
			return
		}
		n.notify(changed)
		if !k.finished {
			k.toggle(n, half)
		}
	})
}

// timerHeap orders delay registrations by time, then registration order.
type timerHeap []*Registration

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	r := x.(*Registration)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}
