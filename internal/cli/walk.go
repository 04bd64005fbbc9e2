package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/ir"
)

// WalkOptions holds flags for the walk command.
type WalkOptions struct {
	*RootOptions
	DesignOptions
	Depth  int
	Values bool
	Bits   bool
	Digest bool
}

// NewWalkCommand creates the walk command.
func NewWalkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WalkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "walk [path]",
		Short: "Print the object hierarchy of a design",
		Long: `Print the object hierarchy of a design as seen through a backend.

Starts at the toplevel, or at path when given. Objects the backend cannot
represent are listed as "not native". With --format json the tree is
printed as canonical JSON.

Examples:
  gpi walk --design soc.yaml
  gpi walk --design soc.yaml --backend vhpi --depth 2
  gpi walk --design soc.yaml --values top.pair`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "levels below the start object (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Values, "values", false, "include object values")
	cmd.Flags().BoolVar(&opts.Bits, "bits", false, "expand vectors and strings into elements")
	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "print only the hierarchy digest")

	return cmd
}

func runWalk(opts *WalkOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, top, err := openSession(opts.RootOptions, &opts.DesignOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	var start *gpi.Handle
	if len(args) == 1 {
		if start, err = s.Lookup(args[0]); err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitFailure, "walk failed", err)
		}
	} else if start = s.RootHandle(top); start == nil {
		msg := fmt.Sprintf("toplevel %q not found", top)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitFailure, msg)
	}
	formatter.VerboseLog("walking %s on %s", start.FullName(), start.Backend().Name())

	tree := ir.Build(s, start, ir.Options{Depth: opts.Depth, Values: opts.Values, Bits: opts.Bits})

	if opts.Digest {
		d, err := ir.Digest(tree)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to digest hierarchy", err)
		}
		if formatter.JSON() {
			return formatter.Success(map[string]any{"root": tree.FullName, "objects": tree.Count(), "digest": d})
		}
		fmt.Fprintln(formatter.Writer, d)
		return nil
	}

	if formatter.JSON() {
		return formatter.Canonical(tree.Object())
	}
	return tree.WriteText(formatter.Writer)
}
