package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/gpi/internal/backend"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/ir"
	"github.com/roach88/gpi/internal/sim"
	"github.com/roach88/gpi/internal/store"
)

// DefaultBackend is used when neither the scenario nor the caller names
// a backend.
const DefaultBackend = "vpi"

type config struct {
	logger   *slog.Logger
	design   *sim.Design
	backends []string
	ids      gpi.IDGenerator
	store    *store.Store
}

// Option configures Run.
type Option func(*config)

// WithLogger sets the logger for the session and kernel.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDesign supplies an elaborated design instead of the scenario's
// design file.
func WithDesign(d *sim.Design) Option {
	return func(c *config) { c.design = d }
}

// WithBackends overrides the scenario's backend list.
func WithBackends(names ...string) Option {
	return func(c *config) { c.backends = names }
}

// WithIDGenerator overrides the scenario's fixed session id.
func WithIDGenerator(g gpi.IDGenerator) Option {
	return func(c *config) { c.ids = g }
}

// WithStore records the session's handles and callback transitions.
func WithStore(st *store.Store) Option {
	return func(c *config) { c.store = st }
}

// Run executes a scenario on a fresh kernel and session.
//
// The program starts in a start-of-simulation callback. A wait step
// registers the matching callback and returns to the kernel; the callback
// resumes the program at the next step. The simulation ends when the
// program finishes, at an end step, or at the stop time.
//
// Failed expect steps and assertions are reported in the Result. An error
// is returned only when the run itself could not happen.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := cfg.design
	if d == nil {
		if sc.Design == "" {
			return nil, fmt.Errorf("scenario %s: no design", sc.Name)
		}
		var err error
		if d, err = sim.Load(sc.Design); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	names := cfg.backends
	if len(names) == 0 {
		names = sc.Backends
	}
	if len(names) == 0 {
		names = []string{DefaultBackend}
	}
	ids := cfg.ids
	if ids == nil {
		ids = newScenarioID(sc.SessionID)
	}
	stop := sc.StopTime
	if stop == 0 {
		stop = DefaultStopTime
	}

	k := sim.NewKernel(d, sim.WithStopTime(stop), sim.WithLogger(cfg.logger))
	natives, err := backend.NewAll(names, k)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	sessOpts := []gpi.Option{gpi.WithLogger(cfg.logger), gpi.WithIDGenerator(ids)}
	var rec *store.Recorder
	if cfg.store != nil {
		rec = store.NewRecorder()
		sessOpts = append(sessOpts, gpi.WithTracer(rec))
	}
	s, err := gpi.NewSession(natives, sessOpts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	defer s.Close()

	res := NewResult()
	res.SessionID = s.ID()
	res.Backends = names

	r := &runner{s: s, steps: sc.Steps, res: res, log: cfg.logger.With("scenario", sc.Name)}
	if s.RegisterStartOfSim(func(*gpi.Callback) { r.resume() }) == nil {
		return nil, fmt.Errorf("scenario %s: start-of-simulation registration failed", sc.Name)
	}
	if err := k.Run(ctx); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if !r.done {
		res.AddError(fmt.Sprintf("step %d: simulation ended at t=%d while waiting for %s", r.pc, s.SimTime(), r.waiting))
	}
	res.EndTime = s.SimTime()

	for _, a := range sc.Assertions {
		if err := checkAssertion(s, res, a); err != nil {
			res.AddError(err.Error())
		}
	}

	if root := s.RootHandle(sc.Toplevel); root != nil {
		if res.Digest, err = ir.Digest(ir.Build(s, root, ir.Options{})); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	if rec != nil {
		info := store.SessionRecord{
			ID:        s.ID(),
			Backends:  names,
			Design:    d.Name,
			Toplevel:  sc.Toplevel,
			Digest:    res.Digest,
			EndTime:   res.EndTime,
			Precision: s.Precision(),
		}
		if err := rec.Flush(ctx, cfg.store, info); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	return res, nil
}

// runner is the suspended scenario program.
type runner struct {
	s     *gpi.Session
	steps []Step
	res   *Result
	log   *slog.Logger

	pc      int
	step    int
	waiting string
	done    bool
}

func (r *runner) resume() {
	for r.pc < len(r.steps) {
		st := r.steps[r.pc]
		r.step = r.pc + 1
		r.pc++

		var err error
		switch {
		case st.Wait != nil:
			if err = r.wait(st.Wait); err == nil {
				return
			}
		case st.Set != nil:
			err = r.set(st.Set)
		case st.Expect != nil:
			r.expect(st.Expect)
		case st.Lookup != nil:
			r.lookup(st.Lookup)
		case st.End:
			r.record("end", "")
			r.finish()
			return
		}
		if err != nil {
			r.res.AddError(fmt.Sprintf("step %d: %v", r.step, err))
			r.finish()
			return
		}
	}
	r.finish()
}

func (r *runner) finish() {
	r.done = true
	r.waiting = ""
	r.s.End()
}

func (r *runner) record(op, detail string) {
	r.res.Trace = append(r.res.Trace, TraceEvent{Step: r.step, SimTime: r.s.SimTime(), Op: op, Detail: detail})
}

func (r *runner) wait(w *Wait) error {
	var (
		cb   *gpi.Callback
		desc string
	)
	step := r.step
	resume := func(*gpi.Callback) {
		r.step = step
		r.waiting = ""
		r.record("wait", desc)
		r.resume()
	}

	switch {
	case w.Timer > 0:
		desc = "timer " + strconv.FormatUint(w.Timer, 10)
		cb = r.s.RegisterTimer(w.Timer, resume)
	case w.Signal != "":
		h, err := r.s.Lookup(w.Signal)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		edge := parseEdge(w.Edge)
		desc = edge.String() + " " + h.FullName()
		cb = r.s.RegisterValueChange(h, edge, resume)
	default:
		desc = w.Phase
		switch w.Phase {
		case PhaseReadOnly:
			cb = r.s.RegisterReadOnly(resume)
		case PhaseReadWrite:
			cb = r.s.RegisterReadWrite(resume)
		case PhaseNextTime:
			cb = r.s.RegisterNextTime(resume)
		}
	}
	if cb == nil {
		return fmt.Errorf("wait %s: callback registration failed", desc)
	}
	r.waiting = desc
	r.log.Debug("waiting", "step", step, "for", desc, "sim_time", r.s.SimTime())
	return nil
}

func parseEdge(s string) gpi.Edge {
	switch s {
	case "rising":
		return gpi.EdgeRising
	case "falling":
		return gpi.EdgeFalling
	}
	return gpi.EdgeAny
}

func (r *runner) set(a *Access) error {
	h, err := r.s.Lookup(a.Path)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	switch a.As {
	case FormatInt:
		n, _ := strconv.ParseInt(a.Value, 0, 64)
		err = h.SetInt(n)
	case FormatReal:
		f, _ := strconv.ParseFloat(a.Value, 64)
		err = h.SetReal(f)
	case FormatStr:
		err = h.SetStr(a.Value)
	default:
		err = h.SetBinStr(a.Value)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", h.FullName(), err)
	}
	r.record("set", h.FullName()+"="+a.Value)
	return nil
}

// expect failures do not stop the program.
func (r *runner) expect(a *Access) {
	h, err := r.s.Lookup(a.Path)
	if err != nil {
		r.res.AddError(fmt.Sprintf("step %d: expect: %v", r.step, err))
		return
	}
	got, want, err := readAs(h, a)
	if err != nil {
		r.res.AddError(fmt.Sprintf("step %d: expect %s: %v", r.step, h.FullName(), err))
		return
	}
	r.record("expect", h.FullName()+"="+got)
	if got != want {
		r.res.AddError(fmt.Sprintf("step %d: expect %s: got %s, want %s", r.step, h.FullName(), got, want))
	}
}

// readAs reads h in a's format and normalises a's value to the same text.
func readAs(h *gpi.Handle, a *Access) (got, want string, err error) {
	switch a.As {
	case FormatInt:
		n, err := h.Int()
		if err != nil {
			return "", "", err
		}
		w, _ := strconv.ParseInt(a.Value, 0, 64)
		return strconv.FormatInt(n, 10), strconv.FormatInt(w, 10), nil
	case FormatReal:
		f, err := h.Real()
		if err != nil {
			return "", "", err
		}
		w, _ := strconv.ParseFloat(a.Value, 64)
		return strconv.FormatFloat(f, 'g', -1, 64), strconv.FormatFloat(w, 'g', -1, 64), nil
	case FormatStr:
		got, err = h.Str()
	default:
		got, err = h.BinStr()
	}
	return got, a.Value, err
}

func (r *runner) lookup(l *Lookup) {
	h, err := r.s.Lookup(l.Path)
	if err != nil {
		r.record("lookup", l.Path+" not found")
		if l.Kind != "" {
			r.res.AddError(fmt.Sprintf("step %d: lookup %s: %v", r.step, l.Path, err))
		}
		return
	}
	r.record("lookup", h.FullName()+" "+h.Kind().String())
	if l.Kind != "" && l.Kind != h.Kind().String() {
		r.res.AddError(fmt.Sprintf("step %d: lookup %s: kind %s, want %s", r.step, l.Path, h.Kind(), l.Kind))
	}
}

// scenarioID hands out the scenario's session id on every call so that
// golden traces stay stable.
type scenarioID string

func newScenarioID(id string) scenarioID {
	if id == "" {
		id = "test-session"
	}
	return scenarioID(id)
}

func (id scenarioID) Generate() string { return string(id) }
