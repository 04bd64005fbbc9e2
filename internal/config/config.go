// Package config loads project settings for the gpi command.
//
// Settings come from a YAML file, then environment variables, then
// command-line flags, each overriding the one before.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFiles are searched in the working directory when no path is given.
var DefaultFiles = []string{"gpi.yaml", ".gpi.yaml"}

// Environment variables that override the file.
const (
	EnvLogLevel = "GPI_LOG_LEVEL"
	EnvToplevel = "GPI_TOPLEVEL"
	EnvBackends = "GPI_BACKENDS"
)

// Config holds project settings.
type Config struct {
	// Backends in priority order.
	Backends []string `yaml:"backends,omitempty"`
	Toplevel string   `yaml:"toplevel,omitempty"`
	// Design is resolved against the config file's directory.
	Design   string `yaml:"design,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
	// TraceDB is a SQLite file that run records sessions into.
	TraceDB string `yaml:"trace_db,omitempty"`

	// Path is the file the config was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Backends: []string{"vpi"},
		LogLevel: "info",
	}
}

// Load reads path, or the first of DefaultFiles found in the working
// directory when path is empty. A missing default file is not an error;
// a missing explicit file is. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, name := range DefaultFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("stat %s: %w", name, err)
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Path = path
		if cfg.Design != "" && !filepath.IsAbs(cfg.Design) {
			cfg.Design = filepath.Join(filepath.Dir(path), cfg.Design)
		}
		if cfg.TraceDB != "" && !filepath.IsAbs(cfg.TraceDB) {
			cfg.TraceDB = filepath.Join(filepath.Dir(path), cfg.TraceDB)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// an empty file decodes to io.EOF
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvToplevel); ok && v != "" {
		c.Toplevel = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvBackends); ok && v != "" {
		c.Backends = SplitList(v)
	}
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the log level and backend list.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("backends: at least one backend is required")
	}
	return nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}
