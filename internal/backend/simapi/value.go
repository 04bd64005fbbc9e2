package simapi

import (
	"fmt"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// BinFormatter is implemented by dialects that spell logic values
// differently from the kernel, which stores upper case characters.
type BinFormatter interface {
	FormatBinStr(v string) string
}

func (b *Base) node(h gpi.NativeHandle) (*sim.Node, error) {
	o, ok := object(h)
	if !ok {
		return nil, fmt.Errorf("%s: not a native object: %T", b.dialect.Name(), h)
	}
	if o.loop {
		return nil, fmt.Errorf("%s: %w", o.fullName, sim.ErrNoValue)
	}
	return o.node, nil
}

func (b *Base) BinStr(h gpi.NativeHandle) (string, error) {
	n, err := b.node(h)
	if err != nil {
		return "", err
	}
	v, err := n.BinStr()
	if err != nil {
		return "", err
	}
	if f, ok := b.dialect.(BinFormatter); ok {
		v = f.FormatBinStr(v)
	}
	return v, nil
}

func (b *Base) Int(h gpi.NativeHandle) (int64, error) {
	n, err := b.node(h)
	if err != nil {
		return 0, err
	}
	return n.Int()
}

func (b *Base) Real(h gpi.NativeHandle) (float64, error) {
	n, err := b.node(h)
	if err != nil {
		return 0, err
	}
	return n.Real()
}

func (b *Base) Str(h gpi.NativeHandle) (string, error) {
	n, err := b.node(h)
	if err != nil {
		return "", err
	}
	return n.Str()
}

func (b *Base) SetBinStr(h gpi.NativeHandle, v string) error {
	n, err := b.node(h)
	if err != nil {
		return err
	}
	return n.SetBinStr(v)
}

func (b *Base) SetInt(h gpi.NativeHandle, v int64) error {
	n, err := b.node(h)
	if err != nil {
		return err
	}
	return n.SetInt(v)
}

func (b *Base) SetReal(h gpi.NativeHandle, v float64) error {
	n, err := b.node(h)
	if err != nil {
		return err
	}
	return n.SetReal(v)
}

func (b *Base) SetStr(h gpi.NativeHandle, v string) error {
	n, err := b.node(h)
	if err != nil {
		return err
	}
	return n.SetStr(v)
}
