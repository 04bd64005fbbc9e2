package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/gpi"
	"github.com/roach88/gpi/internal/harness"
	"github.com/roach88/gpi/internal/sim"
	"github.com/roach88/gpi/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DesignOptions
	Database string
}

// RunResult is the JSON form of a scenario run.
type RunResult struct {
	Scenario  string   `json:"scenario"`
	Pass      bool     `json:"pass"`
	SessionID string   `json:"session_id"`
	Backends  []string `json:"backends"`
	EndTime   uint64   `json:"end_time"`
	Digest    string   `json:"digest,omitempty"`
	Trace     []string `json:"trace"`
	Errors    []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario program against a design",
		Long: `Run a scenario program against a simulated design and print its trace.

The design comes from --design, the scenario's design field, or the config
file, in that order. With --db every handle and callback transition of the
session is recorded to a SQLite database for the trace command.

Exits with status 1 if an expect step or assertion fails.

Examples:
  gpi run testdata/scenarios/counter.yaml
  gpi run --design soc.yaml --backend vhpi --db trace.db counter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to this SQLite database")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := opts.Settings()
	if err != nil {
		return err
	}
	sc, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	var runOpts []harness.Option
	designPath := opts.Design
	if designPath == "" && sc.Design == "" {
		designPath = cfg.Design
	}
	if designPath != "" {
		d, err := sim.Load(designPath)
		if err != nil {
			_ = formatter.Error(ErrCodeDesign, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to load design", err)
		}
		runOpts = append(runOpts, harness.WithDesign(d))
	}
	switch {
	case len(opts.Backends) > 0:
		runOpts = append(runOpts, harness.WithBackends(opts.Backends...))
	case len(sc.Backends) == 0:
		runOpts = append(runOpts, harness.WithBackends(cfg.Backends...))
	}
	if opts.Toplevel != "" {
		sc.Toplevel = opts.Toplevel
	} else if sc.Toplevel == "" {
		sc.Toplevel = cfg.Toplevel
	}

	db := opts.Database
	if db == "" {
		db = cfg.TraceDB
	}
	if db != "" {
		st, err := store.Open(db)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithStore(st))
		// recorded sessions need distinct ids unless the scenario pins one
		if sc.SessionID == "" {
			ids := opts.IDs
			if ids == nil {
				ids = gpi.UUIDv7Generator{}
			}
			runOpts = append(runOpts, harness.WithIDGenerator(ids))
		}
		formatter.VerboseLog("recording to %s", db)
	}
	runOpts = append(runOpts, harness.WithLogger(slog.Default()))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := harness.Run(ctx, sc, runOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario did not run", err)
	}

	if formatter.JSON() {
		out := RunResult{
			Scenario:  sc.Name,
			Pass:      res.Pass,
			SessionID: res.SessionID,
			Backends:  res.Backends,
			EndTime:   res.EndTime,
			Digest:    res.Digest,
			Trace:     res.Lines(),
			Errors:    res.Errors,
		}
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, line := range res.Lines() {
			fmt.Fprintln(w, line)
		}
		status := "PASS"
		if !res.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %s (session %s, t=%d)\n", status, sc.Name, res.SessionID, res.EndTime)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !res.Pass {
		return exitf(ExitFailure, "scenario %s failed", sc.Name)
	}
	return nil
}
