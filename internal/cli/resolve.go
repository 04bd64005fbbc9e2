package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	DesignOptions
}

// Resolution is one resolved path.
type Resolution struct {
	Path     string `json:"path"`
	Found    bool   `json:"found"`
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Const    bool   `json:"const,omitempty"`
	Range    []int  `json:"range,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve host paths to objects",
		Long: `Resolve dotted host paths such as top.gen[1].q and print the backend's
full name and kind for each.

Exits with status 1 if any path does not resolve.

Examples:
  gpi resolve --design soc.yaml top.count top.gen[1].q
  gpi resolve --design soc.yaml --backend vhpi --format json top.pair.data[0]`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runResolve(opts *ResolveOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, _, err := openSession(opts.RootOptions, &opts.DesignOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	results := make([]Resolution, 0, len(paths))
	missing := 0
	for _, p := range paths {
		h, err := s.Lookup(p)
		if err != nil {
			formatter.VerboseLog("%s: %v", p, err)
			results = append(results, Resolution{Path: p})
			missing++
			continue
		}
		r := Resolution{
			Path:     p,
			Found:    true,
			FullName: h.FullName(),
			Name:     h.ShortName(),
			Kind:     h.Kind().String(),
			Backend:  h.Backend().Name(),
			Const:    h.IsConst(),
		}
		if h.Indexable() && h.NumElems() > 0 {
			l, rr := h.Range()
			r.Range = []int{l, rr}
		}
		results = append(results, r)
	}

	if formatter.JSON() {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintln(formatter.Writer, r.text())
		}
	}

	if missing > 0 {
		return exitf(ExitFailure, "%d of %d paths not found", missing, len(paths))
	}
	return nil
}

func (r Resolution) text() string {
	if !r.Found {
		return r.Path + ": not found"
	}
	s := fmt.Sprintf("%s: %s (%s", r.Path, r.FullName, r.Kind)
	if r.Const {
		s += ", const"
	}
	if r.Range != nil {
		s += fmt.Sprintf(", %d:%d", r.Range[0], r.Range[1])
	}
	return s + ") [" + r.Backend + "]"
}
