package cli

import (
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file; empty searches the working directory

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Settings returns the project config, loading it on first use.
func (o *RootOptions) Settings() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.cfg = cfg
	return cfg, nil
}

// NewRootCommand creates the root command for the gpi CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gpi",
		Short: "gpi - generic simulator object interface",
		Long: `Browse a simulated design's hierarchy, resolve names, and run scenario
programs through one object and callback model over VPI, VHPI and FLI
style backends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return exitf(ExitCommandError, "invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := opts.Settings()
			if err != nil {
				return err
			}
			level := cfg.Level()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./gpi.yaml or ./.gpi.yaml)")

	cmd.AddCommand(NewWalkCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
