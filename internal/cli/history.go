package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/config"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List recorded sessions or show one",
		Long: `List the sessions recorded by run and visual, newest first, or show the
job results of one session.

Example:
  tracbench history
  tracbench history --limit 5 --format json
  tracbench history 01932c4e-8f7a-7b3e-9c1d-2f4a6b8c0d1e`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (default from config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum sessions to list (0 for all)")

	return cmd
}

// sessionDetail is the JSON payload of `history <id>`.
type sessionDetail struct {
	Session store.SessionSummary `json:"session"`
	Jobs    []store.JobRecord    `json:"jobs"`
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath, err := historyPath(opts.RootOptions, opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	formatter.VerboseLog("Reading history from %s", dbPath)

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to open history", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 1 {
		sum, err := st.ReadSession(ctx, args[0])
		if errors.Is(err, store.ErrSessionNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "session not found", err)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to read session", err)
		}
		jobs, err := st.ReadJobResults(ctx, sum.ID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to read job results", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(sessionDetail{Session: sum, Jobs: jobs})
		}
		return writeSessionDetail(cmd.OutOrStdout(), sum, jobs)
	}

	sessions, err := st.ListSessions(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to list sessions", err)
	}
	if formatter.IsJSON() {
		return formatter.Success(sessions)
	}
	if len(sessions) == 0 {
		return formatter.Success("No sessions recorded")
	}
	return writeSessionList(cmd.OutOrStdout(), sessions)
}

// historyPath resolves the database: --db, then the config's db, then the
// default in the working directory.
func historyPath(opts *RootOptions, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := loadConfig(opts)
	if configMissing(opts, err) {
		return config.DefaultDBName, nil
	}
	if err != nil {
		return "", err
	}
	return cfg.DB, nil
}

func writeSessionList(w io.Writer, sessions []store.SessionSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tSERIES\tMATCH\tMISMATCH\tSTATUS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.StartedAt.Format(time.RFC3339),
			seriesLabels(s.Series),
			s.Matches(),
			s.Mismatches,
			status(s),
		)
	}
	return tw.Flush()
}

func writeSessionDetail(w io.Writer, s store.SessionSummary, jobs []store.JobRecord) error {
	fmt.Fprintf(w, "Session %s (%s)\n", s.ID, status(s))
	fmt.Fprintf(w, "  started:   %s\n", s.StartedAt.Format(time.RFC3339))
	if s.ConfigPath != "" {
		fmt.Fprintf(w, "  config:    %s\n", s.ConfigPath)
	}
	fmt.Fprintf(w, "  policy:    %s\n", s.Policy)
	fmt.Fprintf(w, "  reference: %s\n", s.Reference)
	fmt.Fprintf(w, "  verdicts:  %d match, %d mismatch\n", s.Matches(), s.Mismatches)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tPOS\tDATASET\tARGS\tEXIT\tDURATION\tSHA256")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s %s %s %s\t%d\t%s\t%s\n",
			j.Label,
			j.Args.Position,
			j.Args.Dataset,
			j.Args.MaxDist, j.Args.MinDensity, j.Args.MaxAngle, j.Args.SegmentSize,
			j.ExitCode,
			j.Duration,
			shortDigest(j.OutputSHA256),
		)
	}
	return tw.Flush()
}

func seriesLabels(series []store.SeriesTotal) string {
	labels := make([]string, len(series))
	for i, s := range series {
		labels[i] = s.Label
	}
	return strings.Join(labels, ",")
}

func status(s store.SessionSummary) string {
	switch {
	case s.Stopped:
		return "stopped"
	case s.Mismatches > 0:
		return "mismatch"
	default:
		return "ok"
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// historyMeta collects the session context stored next to the results.
func historyMeta(opts *RootOptions, cfg *config.Config, c *compare.Comparison, stopped bool) store.SessionMeta {
	meta := store.SessionMeta{
		ConfigPath: opts.Config,
		Policy:     cfg.Policy,
		Stopped:    stopped,
	}
	if c != nil {
		meta.Reference = c.Reference()
	}
	return meta
}

// saveHistory records a session in the database at path.
func saveHistory(ctx context.Context, path string, session *harness.Session, c *compare.Comparison, meta store.SessionMeta) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveSession(ctx, session, c, meta)
}
