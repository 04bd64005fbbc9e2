package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/ir"
)

func execWalk(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewWalkCommand(testRoot(format))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestWalk_Text(t *testing.T) {
	out, err := execWalk(t, "text", "--design", "testdata/soc.yaml")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "top (module)\n"))
	assert.Contains(t, out, "\n  count (register, 3:0)\n")
	assert.Contains(t, out, "\n  sub (module)\n    busy (integer)\n    proc (not native)\n")
	assert.Contains(t, out, "\n    gen[1] (module)\n      q (register)\n")
}

func TestWalk_SubtreeWithValues(t *testing.T) {
	out, err := execWalk(t, "text", "--design", "testdata/soc.yaml", "--values", "top.pair")
	require.NoError(t, err)
	assert.Equal(t, "pair (structure)\n  valid (register) = 0\n  data (register, 7:0) = uuuuuuuu\n", out)
}

func TestWalk_Depth(t *testing.T) {
	out, err := execWalk(t, "text", "--design", "testdata/soc.yaml", "--depth", "1", "top.gen")
	require.NoError(t, err)
	assert.Equal(t, "gen (genarray)\n  gen[0] (module)\n  gen[1] (module)\n", out)
}

func TestWalk_JSONIsCanonical(t *testing.T) {
	out, err := execWalk(t, "json", "--design", "testdata/soc.yaml", "top.sub")
	require.NoError(t, err)

	v, err := ir.Parse([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	again, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(out), string(again))
	assert.Contains(t, out, `"not_native":true`)
}

func TestWalk_Digest(t *testing.T) {
	a, err := execWalk(t, "text", "--design", "testdata/soc.yaml", "--digest")
	require.NoError(t, err)
	b, err := execWalk(t, "text", "--design", "testdata/soc.yaml", "--digest")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, strings.TrimSpace(a), 64)
}

func TestWalk_Errors(t *testing.T) {
	_, err := execWalk(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no design")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execWalk(t, "text", "--design", "testdata/soc.yaml", "--toplevel", "tb")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `toplevel "tb" not found`)

	_, err = execWalk(t, "text", "--design", "testdata/soc.yaml", "top.nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execWalk(t, "text", "--design", "testdata/soc.yaml", "--backend", "verilator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")

	_, err = execWalk(t, "text", "--design", "testdata/bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load design")
}
