package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/gpi/internal/ir"
	"github.com/roach88/gpi/internal/queryir"
)

// columns maps event fields to callback_events columns.
var columns = map[string]string{
	queryir.FieldReason:  "reason",
	queryir.FieldNative:  "native",
	queryir.FieldTarget:  "target",
	queryir.FieldFrom:    "from_state",
	queryir.FieldTo:      "to_state",
	queryir.FieldSimTime: "sim_time",
}

// Compile converts a predicate to a parameterized SQLite WHERE fragment.
// Values are never interpolated into the SQL text. Ordering is left to
// the caller.
func Compile(p queryir.Predicate) (string, []any, error) {
	if problems := queryir.Validate(p); len(problems) > 0 {
		return "", nil, fmt.Errorf("invalid filter: %s", strings.Join(problems, "; "))
	}
	return compilePredicate(p)
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileCompare(pred.Field, "=", pred.Value)
	case *queryir.Equals:
		return compileCompare(pred.Field, "=", pred.Value)
	case queryir.Compare:
		return compileCompare(pred.Field, string(pred.Op), pred.Value)
	case *queryir.Compare:
		return compileCompare(pred.Field, string(pred.Op), pred.Value)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileCompare(field, op string, v ir.Value) (string, []any, error) {
	col, ok := columns[field]
	if !ok {
		return "", nil, fmt.Errorf("unknown field %q", field)
	}
	param, err := toParam(v)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", field, err)
	}
	return fmt.Sprintf("%s %s ?", col, op), []any{param}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func toParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
