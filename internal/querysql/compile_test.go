package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/ir"
	"github.com/roach88/gpi/internal/queryir"
)

func TestCompile_Equals(t *testing.T) {
	sql, params, err := Compile(queryir.Equals{Field: queryir.FieldTarget, Value: ir.String("top.clk'; DROP TABLE sessions; --")})
	require.NoError(t, err)

	assert.Equal(t, "target = ?", sql)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"top.clk'; DROP TABLE sessions; --"}, params)
}

func TestCompile_StateColumns(t *testing.T) {
	sql, params, err := Compile(&queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: queryir.FieldFrom, Value: ir.String("primed")},
		&queryir.Equals{Field: queryir.FieldTo, Value: ir.String("called")},
	}})
	require.NoError(t, err)

	assert.Equal(t, "from_state = ? AND to_state = ?", sql)
	assert.Equal(t, []any{"primed", "called"}, params)
}

func TestCompile_TimeWindow(t *testing.T) {
	sql, params, err := Compile(queryir.And{Predicates: []queryir.Predicate{
		queryir.Compare{Field: queryir.FieldSimTime, Op: queryir.OpGreaterEq, Value: ir.Int(5)},
		&queryir.Compare{Field: queryir.FieldSimTime, Op: queryir.OpLess, Value: ir.Int(20)},
		queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: queryir.FieldReason, Value: ir.String("value_change")},
		}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "sim_time >= ? AND sim_time < ? AND (reason = ?)", sql)
	assert.Equal(t, []any{int64(5), int64(20), "value_change"}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := Compile(queryir.And{})
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, params)
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pred queryir.Predicate
		want string
	}{
		{"nil", nil, "nil predicate"},
		{"unknown field", queryir.Equals{Field: "seq", Value: ir.Int(1)}, `unknown field "seq"`},
		{"ordered text", queryir.Compare{Field: queryir.FieldReason, Op: queryir.OpLess, Value: ir.String("x")}, "supports = only"},
		{"bool value", queryir.Equals{Field: queryir.FieldTarget, Value: ir.Bool(true)}, "unsupported value type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.pred)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
