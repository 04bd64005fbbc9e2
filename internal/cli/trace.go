package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gpi/internal/ir"
	"github.com/roach88/gpi/internal/queryir"
	"github.com/roach88/gpi/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Target   string // optional - filter to one object's callbacks
	Where    []string
	List     bool
	Handles  bool
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session store.SessionRecord   `json:"session"`
	Handles []store.HandleRecord  `json:"handles,omitempty"`
	Events  []store.CallbackEvent `json:"events"`
	Stats   TraceStats            `json:"stats"`
}

// TraceStats holds summary statistics for a session.
type TraceStats struct {
	Handles int            `json:"handles"`
	Events  int            `json:"events"`
	Fired   int            `json:"fired"`
	Reasons map[string]int `json:"reasons"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [session]",
		Short: "Print a recorded session",
		Long: `Print the callback transitions of a session recorded by run --db.

Without a session id the most recent session is shown.

Examples:
  gpi trace --db trace.db
  gpi trace --db trace.db --list
  gpi trace --db trace.db 0192f3a4-... --target top.clk
  gpi trace --db trace.db --where to=called --where "sim_time>=10"
  gpi trace --db trace.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runTrace(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only callbacks on this object (backend full name)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "only events matching field=value or sim_time<op>N (repeatable)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded sessions")
	cmd.Flags().BoolVar(&opts.Handles, "handles", false, "include created handles")

	return cmd
}

func runTrace(opts *TraceOptions, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	db := opts.Database
	if db == "" {
		cfg, err := opts.Settings()
		if err != nil {
			return err
		}
		db = cfg.TraceDB
	}
	if db == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set trace_db in the config file")
	}

	st, err := store.Open(db)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.List {
		return listSessions(ctx, st, formatter)
	}

	rec, err := st.Session(ctx, id)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, "no such session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	filter, err := eventFilter(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}
	var events []store.CallbackEvent
	if filter != nil {
		events, err = st.EventsMatching(ctx, rec.ID, filter)
	} else {
		events, err = st.CallbackEvents(ctx, rec.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	handles, err := st.Handles(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read handles", err)
	}

	result := TraceResult{Session: rec, Events: events, Stats: traceStats(handles, events)}
	if opts.Handles {
		result.Handles = handles
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeTraceText(formatter, result)
	return nil
}

// eventFilter joins --target and --where into one predicate, or nil when
// neither is set.
func eventFilter(opts *TraceOptions) (queryir.Predicate, error) {
	if opts.Target == "" && len(opts.Where) == 0 {
		return nil, nil
	}
	and, err := queryir.ParseAll(opts.Where)
	if err != nil {
		return nil, err
	}
	if opts.Target != "" {
		and.Predicates = append(and.Predicates, queryir.Equals{Field: queryir.FieldTarget, Value: ir.String(opts.Target)})
	}
	return and, nil
}

func traceStats(handles []store.HandleRecord, events []store.CallbackEvent) TraceStats {
	stats := TraceStats{Handles: len(handles), Events: len(events), Reasons: map[string]int{}}
	for _, e := range events {
		if e.To == "called" {
			stats.Fired++
			stats.Reasons[e.Reason]++
		}
	}
	return stats
}

func writeTraceText(f *OutputFormatter, r TraceResult) {
	w := f.Writer
	s := r.Session
	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Design: %s (toplevel %s)\n", s.Design, orDash(s.Toplevel))
	fmt.Fprintf(w, "Backends: %s\n", strings.Join(s.Backends, ", "))
	fmt.Fprintf(w, "End time: %d (precision 1e%d s)\n", s.EndTime, s.Precision)
	if s.Digest != "" {
		fmt.Fprintf(w, "Digest: %s\n", s.Digest)
	}

	if len(r.Handles) > 0 {
		fmt.Fprintf(w, "\nHandles:\n")
		for _, h := range r.Handles {
			fmt.Fprintf(w, "  [%d] %s (%s) [%s]\n", h.Seq, h.FullName, h.Kind, h.Backend)
		}
	}

	fmt.Fprintf(w, "\nEvents:\n")
	if len(r.Events) == 0 {
		fmt.Fprintf(w, "  (none)\n")
	}
	for _, e := range r.Events {
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e)
	}

	fmt.Fprintf(w, "\nStats: %d handles, %d events, %d fired\n", r.Stats.Handles, r.Stats.Events, r.Stats.Fired)
}

func listSessions(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	if f.JSON() {
		return f.Success(sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(f.Writer, "No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(f.Writer, "%d  %s  %s  %s  t=%d\n", s.Seq, s.ID, s.Design, strings.Join(s.Backends, ","), s.EndTime)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
