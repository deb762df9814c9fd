package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/visual"
)

// VisualOptions holds flags for the visual command.
type VisualOptions struct {
	SessionOptions
	Results string
	Yes     bool

	// Confirmer overrides the operator prompt (for testing).
	Confirmer visual.Confirmer
}

// NewVisualCommand creates the visual command.
func NewVisualCommand(rootOpts *RootOptions) *cobra.Command {
	return newVisualCommand(&VisualOptions{SessionOptions: SessionOptions{RootOptions: rootOpts}})
}

func newVisualCommand(opts *VisualOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visual",
		Short: "Step through the sweep one argument set at a time",
		Long: `Run every implementation on one argument set, copy the input and each
output into the results directory under fixed names (input.txt,
<impl>.txt, <impl>-<mode>.txt) for inspection, print the verdict and wait
for confirmation before the next set.

Example:
  tracbench visual
  tracbench visual --only python,rust --results /tmp/traclus-view
  tracbench visual --yes --no-history`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisual(opts, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Results, "results", "", "directory receiving the promoted files (default from config)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not prompt; step through every argument set")

	return cmd
}

func runVisual(opts *VisualOptions, cmd *cobra.Command) error {
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

	resultsDir := opts.Results
	if resultsDir == "" {
		resultsDir = cfg.ResultsDir
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	// The runner wipes resultsDir before the first set.
	if err := cfg.CheckResultsDir(resultsDir, dbPath, configPath(opts.RootOptions)); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "unsafe results directory", err)
	}

	confirm := opts.Confirmer
	switch {
	case confirm != nil:
	case opts.Yes:
		confirm = visual.AutoConfirmer{}
	default:
		confirm = visual.NewPromptConfirmer(os.Stdin, cmd.ErrOrStderr())
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	// Per-set records stream as text; JSON waits for the whole session.
	out := cmd.OutOrStdout()
	if formatter.IsJSON() {
		out = cmd.ErrOrStderr()
	}
	runner := visual.NewRunner(
		opts.bench(harness.NewBench(logger)),
		resultsDir,
		confirm,
		out,
		compare.Options{Diff: opts.Diff},
		logger,
	)
	outcome, err := runner.Run(ctx, targets, enum)
	if err != nil {
		exit, code := classify(err)
		if exit == ExitBuildFailure {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return formatter.Fail(exit, code, "visual session failed", err)
	}

	if !opts.NoHistory {
		meta := historyMeta(opts.RootOptions, cfg, outcome.Comparison, outcome.Stopped)
		if err := saveHistory(ctx, dbPath, outcome.Session, outcome.Comparison, meta); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to record session", err)
		}
	}

	c := outcome.Comparison
	if formatter.IsJSON() {
		if err := formatter.Success(visualReport{
			Session: outcome.Session.ID,
			Results: resultsDir,
			Stopped: outcome.Stopped,
			Report:  compare.JSONReport(c),
		}); err != nil {
			return err
		}
	} else {
		matches, _ := c.Counts()
		fmt.Fprintf(cmd.OutOrStdout(), "\nVisited %d of %d argument sets, %d match", len(c.Records), enum.Total(), matches)
		if outcome.Stopped {
			fmt.Fprint(cmd.OutOrStdout(), " (stopped)")
		}
		fmt.Fprintln(cmd.OutOrStdout())
		if err := compare.NewReporter(cmd.OutOrStdout(), compare.Options{}).WriteTimings(c.Timings); err != nil {
			return err
		}
	}

	return mismatchError(c)
}

// visualReport is the JSON payload of the visual command.
type visualReport struct {
	Session string `json:"session"`
	Results string `json:"results"`
	Stopped bool   `json:"stopped,omitempty"`
	Report  any    `json:"report"`
}
