package gpi

import (
	"strconv"
)

// Handle is the canonical node for one simulation object.
//
// Handles are created on demand and owned by their Session. The parent
// pointer is used for name construction and relation queries only.
type Handle struct {
	session *Session
	backend Native
	native  NativeHandle

	name     string
	index    int
	hasIndex bool
	indexStr string

	kind      Kind
	parent    *Handle
	constant  bool
	pseudo    bool
	indexable bool
	variable  bool

	// ranges is shared by an array and the pseudo handles created for its
	// dimensions; dim selects the dimension this handle indexes.
	ranges    []Range
	dim       int
	left      int
	right     int
	numElems  int
	ascending bool

	// offset is the normalized offset of an indexed pseudo within its
	// parent's dimension.
	offset int

	edges [edgeCount]*Callback
}

func (h *Handle) Name() string { return h.name }

// Index returns the integer index of an indexed child.
func (h *Handle) Index() (int, bool) { return h.index, h.hasIndex }

// IndexStr returns the generate label of a child with a non-integer index.
func (h *Handle) IndexStr() string { return h.indexStr }

func (h *Handle) Kind() Kind        { return h.kind }
func (h *Handle) Parent() *Handle   { return h.parent }
func (h *Handle) IsConst() bool     { return h.constant }
func (h *Handle) Pseudo() bool      { return h.pseudo }
func (h *Handle) Indexable() bool   { return h.indexable }
func (h *Handle) NumElems() int     { return h.numElems }
func (h *Handle) Ascending() bool   { return h.ascending }
func (h *Handle) Backend() Native   { return h.backend }
func (h *Handle) Session() *Session { return h.session }

// Native returns the backend handle. A pseudo handle returns its parent's.
func (h *Handle) Native() NativeHandle { return h.native }

// Range returns the declared left and right bounds of the indexed dimension.
func (h *Handle) Range() (left, right int) { return h.left, h.right }

// Dims returns the number of index dimensions left to resolve below h.
func (h *Handle) Dims() int {
	if len(h.ranges) == 0 {
		return 0
	}
	return len(h.ranges) - h.dim
}

// ShortName returns the last name segment with its index groups.
func (h *Handle) ShortName() string { return h.backend.Style().ShortName(h) }

// FullName returns the fully qualified name from the root.
func (h *Handle) FullName() string { return h.backend.Style().FullName(h) }

func (h *Handle) String() string {
	return h.kind.String() + "(" + h.FullName() + ")"
}

func (h *Handle) indexed() bool {
	return h.hasIndex || h.indexStr != ""
}

func (h *Handle) indexText() string {
	if h.indexStr != "" {
		return h.indexStr
	}
	return strconv.Itoa(h.index)
}

// setRange fixes the indexed dimension. It must only be called while the
// handle is being built.
func (h *Handle) setRange(ranges []Range, dim int) {
	h.ranges = ranges
	h.dim = dim
	if dim >= len(ranges) {
		return
	}
	r := ranges[dim]
	h.left, h.right = r.Left, r.Right
	h.numElems = r.Len()
	h.ascending = r.Ascending()
}

// normalize maps a user index to a zero-based offset in h's dimension.
// ok is false when the offset falls outside [0, NumElems).
func (h *Handle) normalize(index int) (offset int, ok bool) {
	if h.ascending {
		offset = index - h.left
	} else {
		offset = h.left - index
	}
	return offset, offset >= 0 && offset < h.numElems
}

// BinStr reads the value as a binary string.
func (h *Handle) BinStr() (string, error) {
	if err := h.readable(); err != nil {
		return "", err
	}
	v, err := h.backend.BinStr(h.native)
	return v, h.wrapValueErr("get binstr", err)
}

// Int reads the value as an integer.
func (h *Handle) Int() (int64, error) {
	if err := h.readable(); err != nil {
		return 0, err
	}
	v, err := h.backend.Int(h.native)
	return v, h.wrapValueErr("get int", err)
}

// Real reads the value as a real.
func (h *Handle) Real() (float64, error) {
	if err := h.readable(); err != nil {
		return 0, err
	}
	v, err := h.backend.Real(h.native)
	return v, h.wrapValueErr("get real", err)
}

// Str reads the value as a raw string.
func (h *Handle) Str() (string, error) {
	if err := h.readable(); err != nil {
		return "", err
	}
	v, err := h.backend.Str(h.native)
	return v, h.wrapValueErr("get str", err)
}

func (h *Handle) SetBinStr(v string) error {
	if err := h.writable(); err != nil {
		return err
	}
	return h.wrapValueErr("set binstr", h.backend.SetBinStr(h.native, v))
}

func (h *Handle) SetInt(v int64) error {
	if err := h.writable(); err != nil {
		return err
	}
	return h.wrapValueErr("set int", h.backend.SetInt(h.native, v))
}

func (h *Handle) SetReal(v float64) error {
	if err := h.writable(); err != nil {
		return err
	}
	return h.wrapValueErr("set real", h.backend.SetReal(h.native, v))
}

func (h *Handle) SetStr(v string) error {
	if err := h.writable(); err != nil {
		return err
	}
	return h.wrapValueErr("set str", h.backend.SetStr(h.native, v))
}

func (h *Handle) readable() error {
	if h.pseudo || !h.kind.IsSignal() {
		return &Error{Code: ErrCodeNoValue, Message: "object has no value", Name: h.FullName(), Backend: h.backend.Name()}
	}
	return nil
}

func (h *Handle) writable() error {
	if err := h.readable(); err != nil {
		return err
	}
	if h.constant {
		return &Error{Code: ErrCodeReadOnly, Message: "object is constant", Name: h.FullName(), Backend: h.backend.Name()}
	}
	return nil
}

func (h *Handle) wrapValueErr(op string, err error) error {
	if err == nil {
		return nil
	}
	h.session.log.Error("value access failed", "op", op, "name", h.FullName(), "error", err)
	ge := NewNativeError(h.backend.Name(), op, err)
	ge.Name = h.FullName()
	return ge
}
