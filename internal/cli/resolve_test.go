package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execResolve(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewResolveCommand(testRoot(format))
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--design", "testdata/soc.yaml"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestResolve_Text(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"vector", []string{"top.count"}, "top.count: top.count (register, 3:0) [vpi]\n"},
		{"generate", []string{"top.gen[1].q"}, "top.gen[1].q: top.gen[1].q (register) [vpi]\n"},
		{"parameter", []string{"top.WIDTH"}, "top.WIDTH: top.WIDTH (parameter, const) [vpi]\n"},
		{"vhpi", []string{"--backend", "vhpi", "top.gen[1].q"}, "top.gen[1].q: :top:gen(1):q (register) [vhpi]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execResolve(t, "text", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	out, err := execResolve(t, "text", "top.clk", "top.nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 of 2 paths not found", err.Error())
	assert.Equal(t, "top.clk: top.clk (register) [vpi]\ntop.nope: not found\n", out)
}

func TestResolve_JSON(t *testing.T) {
	out, err := execResolve(t, "json", "top.pair.data", "top.missing")
	require.Error(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)

	assert.Equal(t, Resolution{
		Path: "top.pair.data", Found: true, FullName: "top.pair.data", Name: "data",
		Kind: "register", Backend: "vpi", Range: []int{7, 0},
	}, resp.Data[0])
	assert.Equal(t, Resolution{Path: "top.missing"}, resp.Data[1])
}
