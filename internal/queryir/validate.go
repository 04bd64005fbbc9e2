package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/gpi/internal/ir"
)

// Validate lists the problems of a predicate tree. A nil result means
// every backend can evaluate it.
func Validate(p Predicate) []string {
	v := &validator{}
	v.predicate(p)
	return v.problems
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.add("nil predicate")
	case Equals:
		v.field(pred.Field, pred.Value)
	case *Equals:
		v.field(pred.Field, pred.Value)
	case Compare:
		v.compare(pred)
	case *Compare:
		v.compare(*pred)
	case And:
		v.and(pred)
	case *And:
		v.and(*pred)
	default:
		v.add("unsupported predicate type %T", p)
	}
}

func (v *validator) and(a And) {
	for _, p := range a.Predicates {
		v.predicate(p)
	}
}

func (v *validator) compare(c Compare) {
	v.field(c.Field, c.Value)
	switch c.Op {
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
	default:
		v.add("unknown operator %q", c.Op)
	}
	if c.Field != FieldSimTime {
		v.add("field %s supports = only", c.Field)
	}
}

func (v *validator) field(name string, val ir.Value) {
	if !slices.Contains(Fields, name) {
		v.add("unknown field %q (have %v)", name, Fields)
		return
	}
	switch val.(type) {
	case ir.Int:
		if name != FieldSimTime {
			v.add("field %s compares with text, got an integer", name)
		}
	case ir.String:
		if name == FieldSimTime {
			v.add("field sim_time compares with an integer, got text")
		}
	default:
		v.add("field %s: unsupported value type %T", name, val)
	}
}
