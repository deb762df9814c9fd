package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/config"
	"github.com/roach88/tracbench/internal/harness"
)

// SessionOptions are the flags shared by run and visual.
type SessionOptions struct {
	*RootOptions
	Only      []string
	Modes     []string
	Set       []string
	Diff      bool
	Database  string
	NoHistory bool

	// IDs and Clock override the session ID generator and start clock
	// (for testing). Nil keeps the UUIDv7 generator and the wall clock.
	IDs   harness.IDGenerator
	Clock harness.Clock
}

func (o *SessionOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.Only, "only", nil, "run only these implementations (comma-separated)")
	cmd.Flags().StringSliceVar(&o.Modes, "modes", nil, "run only these modes of each implementation")
	cmd.Flags().StringArrayVar(&o.Set, "set", nil, "override a sweep axis, e.g. --set max_dist=100,250 (repeatable)")
	cmd.Flags().BoolVar(&o.Diff, "diff", false, "print a line diff for every mismatch")
	cmd.Flags().StringVar(&o.Database, "db", "", "history database (default from config)")
	cmd.Flags().BoolVar(&o.NoHistory, "no-history", false, "do not record the session")
}

func (o *SessionOptions) bench(b *harness.Bench) *harness.Bench {
	if o.IDs != nil {
		b.WithIDGenerator(o.IDs)
	}
	if o.Clock != nil {
		b.WithClock(o.Clock)
	}
	return b
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	SessionOptions
	Plot string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{SessionOptions: SessionOptions{RootOptions: rootOpts}})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every implementation over the sweep and compare",
		Long: `Build every configured implementation, stage its datasets, run it once
per argument set and mode, then compare every series with the reference.

Exits 1 when any argument set produced differing outputs and 3 when a build
failed.

Example:
  tracbench run
  tracbench run --config bench.cue --only python,rust --set max_dist=100:300:100
  tracbench run --plot results/timing.png --diff`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Plot, "plot", "", "write a timing chart (.png, .svg or .pdf); bare names go to results_dir")

	return cmd
}

// runReport is the JSON payload of the run command.
type runReport struct {
	Session   string    `json:"session"`
	StartedAt time.Time `json:"started_at"`
	Report    any       `json:"report"`
	Plot      string    `json:"plot,omitempty"`
}

func runBench(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	extra, err := parseSetFlags(opts.Set)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSweep, "invalid sweep override", err)
	}
	enum, err := cfg.Enumerator(extra)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSweep, "invalid sweep", err)
	}
	targets, err := selectTargets(cfg, &opts.SessionOptions, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid implementation selection", err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	bench := opts.bench(harness.NewBench(logger))
	logger.Info("session starting",
		"implementations", len(targets),
		"argument_sets", enum.Total(),
		"policy", enum.Policy(),
	)
	session, err := bench.Run(ctx, targets, enum)
	if err != nil {
		exit, code := classify(err)
		if exit == ExitBuildFailure {
			// Captured build output goes to stderr in full.
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return formatter.Fail(exit, code, "session failed", err)
	}

	series := session.Series()
	c, err := compare.CompareSeries(series...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "comparison failed", err)
	}

	plotPath := opts.Plot
	if plotPath != "" && !filepath.IsAbs(plotPath) && filepath.Dir(plotPath) == "." {
		plotPath = filepath.Join(cfg.ResultsDir, plotPath)
	}
	if plotPath != "" {
		if err := os.MkdirAll(filepath.Dir(plotPath), 0o755); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write timing chart", err)
		}
		if err := compare.SaveTimingPlot(plotPath, series); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write timing chart", err)
		}
		logger.Info("timing chart written", "path", plotPath)
	}

	if !opts.NoHistory {
		dbPath := opts.Database
		if dbPath == "" {
			dbPath = cfg.DB
		}
		if err := saveHistory(ctx, dbPath, session, c, historyMeta(opts.RootOptions, cfg, c, false)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to record session", err)
		}
		logger.Debug("session recorded", "db", dbPath, "session", session.ID)
	}

	if formatter.IsJSON() {
		if err := formatter.Success(runReport{
			Session:   session.ID,
			StartedAt: session.StartedAt,
			Report:    compare.JSONReport(c),
			Plot:      plotPath,
		}); err != nil {
			return err
		}
	} else {
		reporter := compare.NewReporter(cmd.OutOrStdout(), compare.Options{Diff: opts.Diff})
		if err := reporter.WriteText(c); err != nil {
			return err
		}
	}

	return mismatchError(c)
}

// mismatchError returns an ExitFailure error when any argument set
// mismatched, nil otherwise.
func mismatchError(c *compare.Comparison) error {
	if c.AllMatch() {
		return nil
	}
	_, mismatches := c.Counts()
	return NewExitError(ExitFailure, fmt.Sprintf("%d of %d argument sets mismatch", mismatches, len(c.Records)))
}

// selectTargets builds the selected targets with the reference first.
func selectTargets(cfg *config.Config, opts *SessionOptions, logger *slog.Logger) ([]harness.Target, error) {
	targets, err := cfg.Targets(opts.Only, opts.Modes, logger)
	if err != nil {
		return nil, err
	}
	targets, found := orderTargets(targets, cfg.Reference)
	if !found && len(targets) > 0 {
		logger.Warn("reference not selected, comparing against the first implementation",
			"reference", cfg.Reference, "using", targets[0].Impl.Name())
	}
	return targets, nil
}
