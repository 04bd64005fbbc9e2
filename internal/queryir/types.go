package queryir

import "github.com/roach88/gpi/internal/ir"

// Predicate is a filter condition over recorded events.
type Predicate interface {
	predicateNode()
}

// Event fields a predicate can reference.
const (
	FieldReason  = "reason"
	FieldNative  = "native"
	FieldTarget  = "target"
	FieldFrom    = "from"
	FieldTo      = "to"
	FieldSimTime = "sim_time"
)

// Fields lists the filterable fields in display order.
var Fields = []string{FieldReason, FieldNative, FieldTarget, FieldFrom, FieldTo, FieldSimTime}

// Equals matches events whose field equals Value.
type Equals struct {
	Field string
	Value ir.Value
}

func (Equals) predicateNode() {}

// Op is an ordering comparison.
type Op string

const (
	OpLess      Op = "<"
	OpLessEq    Op = "<="
	OpGreater   Op = ">"
	OpGreaterEq Op = ">="
)

// Compare matches events whose field is ordered against Value by Op.
type Compare struct {
	Field string
	Op    Op
	Value ir.Value
}

func (Compare) predicateNode() {}

// And matches events that satisfy every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
