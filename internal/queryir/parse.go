package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/gpi/internal/ir"
)

// Two-character operators come first so they win a tie on position.
var operators = []string{"<=", ">=", "=", "<", ">"}

// Parse reads one field-operator-value expression. The leftmost operator
// splits the expression, so values may contain operator characters.
func Parse(expr string) (Predicate, error) {
	at, op := -1, ""
	for _, o := range operators {
		if i := strings.Index(expr, o); i > 0 && (at < 0 || i < at) {
			at, op = i, o
		}
	}
	if at < 0 {
		return nil, fmt.Errorf("%q: want field=value or sim_time<op>N", expr)
	}
	field := strings.TrimSpace(expr[:at])
	raw := strings.TrimSpace(expr[at+len(op):])

	var v ir.Value = ir.String(raw)
	if field == FieldSimTime {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%q: sim_time needs a non-negative integer, got %q", expr, raw)
		}
		v = ir.Int(n)
	}

	var p Predicate
	if op == "=" {
		p = Equals{Field: field, Value: v}
	} else {
		p = Compare{Field: field, Op: Op(op), Value: v}
	}
	if problems := Validate(p); len(problems) > 0 {
		return nil, fmt.Errorf("%q: %s", expr, problems[0])
	}
	return p, nil
}

// ParseAll parses every expression and joins them with And.
func ParseAll(exprs []string) (And, error) {
	and := And{}
	for _, e := range exprs {
		p, err := Parse(e)
		if err != nil {
			return And{}, err
		}
		and.Predicates = append(and.Predicates, p)
	}
	return and, nil
}
