package store

import (
	"context"
	"fmt"

	"github.com/roach88/gpi/internal/gpi"
)

// SessionRecord describes one recorded run.
type SessionRecord struct {
	ID        string   `json:"id"`
	Seq       int64    `json:"seq"`
	Backends  []string `json:"backends"`
	Design    string   `json:"design"`
	Toplevel  string   `json:"toplevel,omitempty"`
	Digest    string   `json:"digest,omitempty"`
	EndTime   uint64   `json:"end_time"`
	Precision int      `json:"precision"`
}

// HandleRecord is one handle, in creation order.
type HandleRecord struct {
	Seq      int64  `json:"seq"`
	Backend  string `json:"backend"`
	FullName string `json:"full_name"`
	Kind     string `json:"kind"`
	Const    bool   `json:"const"`
	Pseudo   bool   `json:"pseudo"`
}

// CallbackEvent is one callback state transition.
type CallbackEvent struct {
	Seq     int64  `json:"seq"`
	SimTime uint64 `json:"sim_time"`
	Reason  string `json:"reason"`
	// Native is the backend's own name for the reason.
	Native string `json:"native"`
	Target string `json:"target,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (e CallbackEvent) String() string {
	s := fmt.Sprintf("t=%d %s(%s)", e.SimTime, e.Reason, e.Native)
	if e.Target != "" {
		s += " " + e.Target
	}
	return s + " " + e.From + "->" + e.To
}

type reasonNamer interface {
	ReasonName(r gpi.Reason) string
}

// Recorder buffers a session's trace in memory. It implements gpi.Tracer.
type Recorder struct {
	handles []HandleRecord
	events  []CallbackEvent
}

var _ gpi.Tracer = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) HandleCreated(h *gpi.Handle) {
	r.handles = append(r.handles, HandleRecord{
		Seq:      int64(len(r.handles) + 1),
		Backend:  h.Backend().Name(),
		FullName: h.FullName(),
		Kind:     h.Kind().String(),
		Const:    h.IsConst(),
		Pseudo:   h.Pseudo(),
	})
}

func (r *Recorder) CallbackTransition(cb *gpi.Callback, from, to gpi.State) {
	ev := CallbackEvent{
		Seq:    int64(len(r.events) + 1),
		Reason: cb.Reason().String(),
		Native: cb.Reason().String(),
		From:   from.String(),
		To:     to.String(),
	}
	if s := cb.Session(); s != nil {
		ev.SimTime = s.SimTime()
	}
	if n, ok := cb.Backend().(reasonNamer); ok {
		ev.Native = n.ReasonName(cb.Reason())
	}
	if t := cb.Target(); t != nil {
		ev.Target = t.FullName()
	}
	r.events = append(r.events, ev)
}

// Handles returns the handles recorded so far.
func (r *Recorder) Handles() []HandleRecord { return r.handles }

// Events returns the transitions recorded so far.
func (r *Recorder) Events() []CallbackEvent { return r.events }

// Flush writes the buffered trace as session info and empties the buffer.
func (r *Recorder) Flush(ctx context.Context, st *Store, info SessionRecord) error {
	if err := st.WriteSession(ctx, info, r.handles, r.events); err != nil {
		return err
	}
	r.handles, r.events = nil, nil
	return nil
}
