package sim

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

var (
	// ErrNoValue is returned when a scope or process is read or written.
	ErrNoValue = errors.New("object has no value")
	// ErrReadOnly is returned when a constant is written.
	ErrReadOnly = errors.New("object is read-only")
	// ErrConversion is returned when a value cannot be represented in the
	// requested format.
	ErrConversion = errors.New("value conversion not supported")
)

// cell is the storage of one scalar.
type cell struct {
	logic byte
	i     int64
	r     float64
}

type leafClass int

const (
	leafLogic leafClass = iota
	leafEnum
	leafChar
	leafInt
	leafReal
)

func classOf(t *Type) leafClass {
	switch {
	case t.IsLogic():
		return leafLogic
	case t.IsChar():
		return leafChar
	case t.Class == TypeEnum:
		return leafEnum
	case t.Class == TypeReal:
		return leafReal
	}
	return leafInt
}

func defaultCell(t *Type) cell {
	if classOf(t) == leafLogic {
		if len(t.Literals) == 9 {
			return cell{logic: 'U'}
		}
		return cell{logic: '0'}
	}
	return cell{}
}

func (n *Node) valued() error {
	if n.IsScope() || n.Kind == NodeProcess {
		return fmt.Errorf("%s: %w", n.path, ErrNoValue)
	}
	return nil
}

func (n *Node) writable() error {
	if err := n.valued(); err != nil {
		return err
	}
	if n.Object().Const() {
		return fmt.Errorf("%s: %w", n.path, ErrReadOnly)
	}
	return nil
}

// allLogic reports whether every leaf under n is a logic scalar.
func allLogic(leaves []*Node) bool {
	for _, l := range leaves {
		if classOf(l.Type) != leafLogic {
			return false
		}
	}
	return len(leaves) > 0
}

// BinStr returns the value as a string of logic characters, most
// significant first.
func (n *Node) BinStr() (string, error) {
	if err := n.valued(); err != nil {
		return "", err
	}
	if !n.IsLeaf() {
		var b strings.Builder
		for _, l := range n.Leaves() {
			s, err := l.BinStr()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	}
	switch classOf(n.Type) {
	case leafLogic:
		return string(n.val.logic), nil
	case leafInt:
		return padBits(uint64(uint32(n.val.i)), 32), nil
	case leafChar:
		return padBits(uint64(n.val.i), 8), nil
	case leafEnum:
		return padBits(uint64(n.val.i), enumWidth(n.Type)), nil
	}
	return "", fmt.Errorf("%s: binary string of real: %w", n.path, ErrConversion)
}

func enumWidth(t *Type) int {
	w := bits.Len(uint(t.LiteralCount() - 1))
	return max(w, 1)
}

func padBits(v uint64, width int) string {
	s := strconv.FormatUint(v, 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// Int returns the value as an integer. Logic vectors are read unsigned.
func (n *Node) Int() (int64, error) {
	if err := n.valued(); err != nil {
		return 0, err
	}
	if !n.IsLeaf() {
		leaves := n.Leaves()
		if !allLogic(leaves) || len(leaves) > 64 {
			return 0, fmt.Errorf("%s: integer of composite: %w", n.path, ErrConversion)
		}
		var v uint64
		for _, l := range leaves {
			b, ok := logicBit(l.val.logic)
			if !ok {
				return 0, fmt.Errorf("%s: bit %q is not 0 or 1: %w", l.path, l.val.logic, ErrConversion)
			}
			v = v<<1 | b
		}
		return int64(v), nil
	}
	switch classOf(n.Type) {
	case leafLogic:
		b, ok := logicBit(n.val.logic)
		if !ok {
			return 0, fmt.Errorf("%s: bit %q is not 0 or 1: %w", n.path, n.val.logic, ErrConversion)
		}
		return int64(b), nil
	case leafReal:
		return 0, fmt.Errorf("%s: integer of real: %w", n.path, ErrConversion)
	}
	return n.val.i, nil
}

func logicBit(c byte) (uint64, bool) {
	switch c {
	case '0', 'L':
		return 0, true
	case '1', 'H':
		return 1, true
	}
	return 0, false
}

// Real returns the value of a real or integer scalar.
func (n *Node) Real() (float64, error) {
	if err := n.valued(); err != nil {
		return 0, err
	}
	if n.IsLeaf() {
		switch classOf(n.Type) {
		case leafReal:
			return n.val.r, nil
		case leafInt:
			return float64(n.val.i), nil
		}
	}
	return 0, fmt.Errorf("%s: real of %s: %w", n.path, n.Type.Name, ErrConversion)
}

// Str returns the value as text: string arrays as their characters, enums
// as their literal and numbers in decimal.
func (n *Node) Str() (string, error) {
	if err := n.valued(); err != nil {
		return "", err
	}
	if !n.IsLeaf() {
		if n.Type.IsString() {
			b := make([]byte, len(n.Elements))
			for i, e := range n.Elements {
				b[i] = byte(e.val.i)
			}
			return string(b), nil
		}
		return n.BinStr()
	}
	switch classOf(n.Type) {
	case leafLogic:
		return string(n.val.logic), nil
	case leafChar:
		return string([]byte{byte(n.val.i)}), nil
	case leafEnum:
		if len(n.Type.Literals) > 0 {
			return n.Type.Literals[n.val.i], nil
		}
		return strconv.FormatInt(n.val.i, 10), nil
	case leafReal:
		return strconv.FormatFloat(n.val.r, 'g', -1, 64), nil
	}
	return strconv.FormatInt(n.val.i, 10), nil
}

// SetBinStr deposits a string of logic characters. A short value is
// zero-extended on the left.
func (n *Node) SetBinStr(v string) error {
	if err := n.writable(); err != nil {
		return err
	}
	changed, err := n.setBinStr(v)
	n.notify(changed)
	return err
}

func (n *Node) setBinStr(v string) ([]*Node, error) {
	if !n.IsLeaf() {
		leaves := n.Leaves()
		if !allLogic(leaves) {
			return nil, fmt.Errorf("%s: binary string of composite: %w", n.path, ErrConversion)
		}
		if len(v) > len(leaves) {
			return nil, fmt.Errorf("%s: %d bits do not fit in %d", n.path, len(v), len(leaves))
		}
		v = strings.Repeat("0", len(leaves)-len(v)) + v
		for i, l := range leaves {
			if _, err := l.parseLogic(v[i]); err != nil {
				return nil, err
			}
		}
		var changed []*Node
		for i, l := range leaves {
			c, _ := l.parseLogic(v[i])
			if l.store(cell{logic: c}) {
				changed = append(changed, l)
			}
		}
		return changed, nil
	}

	var next cell
	switch classOf(n.Type) {
	case leafLogic:
		if len(v) != 1 {
			return nil, fmt.Errorf("%s: want one bit, got %q", n.path, v)
		}
		c, err := n.parseLogic(v[0])
		if err != nil {
			return nil, err
		}
		next.logic = c
	case leafReal:
		return nil, fmt.Errorf("%s: binary string of real: %w", n.path, ErrConversion)
	default:
		u, err := strconv.ParseUint(v, 2, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.path, err)
		}
		i := int64(u)
		if classOf(n.Type) == leafInt && len(v) == 32 {
			i = int64(int32(uint32(u)))
		}
		if err := n.checkOrdinal(i); err != nil {
			return nil, err
		}
		next.i = i
	}
	return n.storeLeaf(next), nil
}

func (n *Node) parseLogic(c byte) (byte, error) {
	switch c {
	case 'x', 'z', 'u', 'w', 'l', 'h':
		c -= 'a' - 'A'
	}
	if len(n.Type.Literals) == 2 && c != '0' && c != '1' {
		return 0, fmt.Errorf("%s: %q is not a bit: %w", n.path, c, ErrConversion)
	}
	if logicChar(string(c)) == 0 {
		return 0, fmt.Errorf("%s: %q is not a logic value: %w", n.path, c, ErrConversion)
	}
	return c, nil
}

func (n *Node) checkOrdinal(i int64) error {
	switch classOf(n.Type) {
	case leafEnum:
		if i < 0 || i >= int64(n.Type.LiteralCount()) {
			return fmt.Errorf("%s: enum position %d out of range", n.path, i)
		}
	case leafChar:
		if i < 0 || i > 255 {
			return fmt.Errorf("%s: character code %d out of range", n.path, i)
		}
	}
	return nil
}

// SetInt deposits an integer. Logic vectors keep the low bits.
func (n *Node) SetInt(v int64) error {
	if err := n.writable(); err != nil {
		return err
	}
	changed, err := n.setInt(v)
	n.notify(changed)
	return err
}

func (n *Node) setInt(v int64) ([]*Node, error) {
	if !n.IsLeaf() {
		leaves := n.Leaves()
		if !allLogic(leaves) {
			return nil, fmt.Errorf("%s: integer of composite: %w", n.path, ErrConversion)
		}
		width := len(leaves)
		u := uint64(v)
		if width < 64 {
			u &= 1<<width - 1
		}
		return n.setBinStr(padBits(u, width))
	}
	var next cell
	switch classOf(n.Type) {
	case leafLogic:
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%s: %d is not a bit: %w", n.path, v, ErrConversion)
		}
		next.logic = '0' + byte(v)
	case leafReal:
		next.r = float64(v)
	default:
		if err := n.checkOrdinal(v); err != nil {
			return nil, err
		}
		next.i = v
	}
	return n.storeLeaf(next), nil
}

// SetReal deposits a real value.
func (n *Node) SetReal(v float64) error {
	if err := n.writable(); err != nil {
		return err
	}
	if !n.IsLeaf() || classOf(n.Type) != leafReal {
		return fmt.Errorf("%s: real into %s: %w", n.path, n.Type.Name, ErrConversion)
	}
	n.notify(n.storeLeaf(cell{r: v}))
	return nil
}

// SetStr deposits text. String arrays take exactly their length.
func (n *Node) SetStr(v string) error {
	if err := n.writable(); err != nil {
		return err
	}
	changed, err := n.setStr(v)
	n.notify(changed)
	return err
}

func (n *Node) setStr(v string) ([]*Node, error) {
	if !n.IsLeaf() {
		if n.Type.IsString() {
			if len(v) != len(n.Elements) {
				return nil, fmt.Errorf("%s: string of length %d into %d characters", n.path, len(v), len(n.Elements))
			}
			var changed []*Node
			for i, e := range n.Elements {
				if e.store(cell{i: int64(v[i])}) {
					changed = append(changed, e)
				}
			}
			return changed, nil
		}
		return n.setBinStr(v)
	}

	var next cell
	switch classOf(n.Type) {
	case leafLogic:
		return n.setBinStr(strings.Trim(v, "'"))
	case leafChar:
		v = strings.Trim(v, "'")
		if len(v) != 1 {
			return nil, fmt.Errorf("%s: want one character, got %q", n.path, v)
		}
		next.i = int64(v[0])
	case leafEnum:
		pos, ok := n.literalPos(v)
		if !ok {
			return nil, fmt.Errorf("%s: %q is not a literal of %s", n.path, v, n.Type.Name)
		}
		next.i = int64(pos)
	case leafReal:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.path, err)
		}
		next.r = f
	default:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.path, err)
		}
		next.i = i
	}
	return n.storeLeaf(next), nil
}

func (n *Node) literalPos(v string) (int, bool) {
	for i, l := range n.Type.Literals {
		if l == v {
			return i, true
		}
	}
	for i, l := range n.Type.Literals {
		if strings.EqualFold(l, v) || strings.EqualFold(strings.Trim(l, "'"), v) {
			return i, true
		}
	}
	if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < n.Type.LiteralCount() {
		return i, true
	}
	return 0, false
}

func (n *Node) store(c cell) bool {
	if n.val == c {
		return false
	}
	n.val = c
	return true
}

func (n *Node) storeLeaf(c cell) []*Node {
	if n.store(c) {
		return []*Node{n}
	}
	return nil
}

// notify reports every changed leaf and the composites containing it.
func (n *Node) notify(changed []*Node) {
	d := n.design
	if d == nil || d.onChange == nil || len(changed) == 0 {
		return
	}
	seen := make(map[*Node]struct{})
	for _, l := range changed {
		for x := l; x != nil && !x.IsScope(); x = x.Parent {
			if _, ok := seen[x]; ok {
				break
			}
			seen[x] = struct{}{}
			d.onChange(x)
		}
	}
}
