package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpi/internal/config"
)

// testRoot returns options with default settings so tests do not depend on
// a config file or GPI_* variables.
func testRoot(format string) *RootOptions {
	return &RootOptions{Format: format, cfg: config.Default()}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gpi", cmd.Use)
	assert.Contains(t, cmd.Long, "VHPI")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"walk", "resolve", "run", "validate", "trace", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "Command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestDesignFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"walk", "resolve", "run"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"design", "backend", "toplevel"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "validate", "testdata/soc.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootConfigFile(t *testing.T) {
	dir := t.TempDir()
	design, err := filepath.Abs("testdata/soc.yaml")
	require.NoError(t, err)
	cfgPath := filepath.Join(dir, "gpi.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("design: "+design+"\nbackends: [vhpi]\n"), 0644))
	for _, k := range []string{config.EnvBackends, config.EnvToplevel, config.EnvLogLevel} {
		t.Setenv(k, "")
	}

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "resolve", "top.clk"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "top.clk: :top:clk (register) [vhpi]\n", buf.String())
}

func TestRootMissingConfigFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", "/nonexistent/gpi.yaml", "validate", "testdata/soc.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
