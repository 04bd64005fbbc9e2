package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/backend"
	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/sim"
)

// DesignOptions are the flags shared by commands that open a design.
type DesignOptions struct {
	Design   string
	Backends []string
	Toplevel string

	// IDs overrides the session id generator (for testing). If nil,
	// defaults to UUIDv7Generator.
	IDs gpi.IDGenerator
}

func (d *DesignOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.Design, "design", "", "design file (default from config)")
	cmd.Flags().StringSliceVar(&d.Backends, "backend", nil, "backends in priority order ("+strings.Join(backend.Names(), "|")+")")
	cmd.Flags().StringVar(&d.Toplevel, "toplevel", "", "toplevel name (default from config, else the first root)")
}

// openSession elaborates the design and attaches a session to a fresh
// kernel. Nothing is simulated; values are the design's initial values.
// Flags win over the config file.
func openSession(root *RootOptions, d *DesignOptions) (*gpi.Session, string, error) {
	cfg, err := root.Settings()
	if err != nil {
		return nil, "", err
	}
	path := d.Design
	if path == "" {
		path = cfg.Design
	}
	if path == "" {
		return nil, "", NewExitError(ExitCommandError, "no design: pass --design or set design in the config file")
	}
	design, err := sim.Load(path)
	if err != nil {
		return nil, "", WrapExitError(ExitFailure, "failed to load design", err)
	}

	names := d.Backends
	if len(names) == 0 {
		names = cfg.Backends
	}
	k := sim.NewKernel(design, sim.WithLogger(slog.Default()))
	natives, err := backend.NewAll(names, k)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "invalid backend", err)
	}

	ids := d.IDs
	if ids == nil {
		ids = gpi.UUIDv7Generator{}
	}
	s, err := gpi.NewSession(natives, gpi.WithLogger(slog.Default()), gpi.WithIDGenerator(ids))
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to open session", err)
	}

	top := d.Toplevel
	if top == "" {
		top = cfg.Toplevel
	}
	return s, top, nil
}
