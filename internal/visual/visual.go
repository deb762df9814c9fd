// Package visual runs a sweep one argument set at a time for inspection.
//
// For every argument set the runner stages the dataset, runs every
// implementation and mode, promotes the input and the outputs into a
// results directory under fixed names, prints the verdict and waits for
// the operator before moving on.
package visual

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/staging"
	"github.com/roach88/tracbench/internal/sweep"
)

// InputFile is the promoted copy of the current dataset.
const InputFile = "input.txt"

// OutputFile returns the promoted file name of a series: "<impl>.txt" or
// "<impl>-<mode>.txt".
func OutputFile(impl, mode string) string {
	if mode == "" {
		return impl + ".txt"
	}
	return impl + "-" + mode + ".txt"
}

// Outcome is the result of a visual session.
type Outcome struct {
	Session *harness.Session

	// Comparison covers every visited argument set.
	Comparison *compare.Comparison

	// Stopped is true when the operator stopped before the sweep ended.
	Stopped bool
}

// Runner drives the visual cadence.
type Runner struct {
	bench      *harness.Bench
	stager     *staging.Manager
	confirm    Confirmer
	reporter   *compare.Reporter
	resultsDir string
	logger     *slog.Logger
}

// NewRunner creates a Runner writing promoted files to resultsDir and
// reports to out.
func NewRunner(bench *harness.Bench, resultsDir string, confirm Confirmer, out io.Writer, opts compare.Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		bench:      bench,
		stager:     staging.NewManager(logger),
		confirm:    confirm,
		reporter:   compare.NewReporter(out, opts),
		resultsDir: resultsDir,
		logger:     logger,
	}
}

// Run builds every target, then steps through enum. A BuildError aborts
// before anything runs. Staged directories are removed at the end unless
// kept.
func (r *Runner) Run(ctx context.Context, targets []harness.Target, enum *sweep.Enumerator) (*Outcome, error) {
	if err := r.bench.Build(ctx, targets); err != nil {
		return nil, err
	}
	if err := r.stager.ResetWorkingDirectory(r.resultsDir); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.bench.Cleanup(targets); err != nil {
			r.logger.Error("cleanup failed", "error", err)
		}
	}()

	session := r.bench.NewSession()
	sweeps := make([]*harness.SweepResult, len(targets))
	for i, t := range targets {
		sweeps[i] = &harness.SweepResult{Implementation: t.Impl.Name(), Modes: t.RunModes()}
	}
	session.Sweeps = sweeps

	outcome := &Outcome{Session: session}
	enum.Reset()
	for {
		args, err := enum.Current()
		if err != nil {
			return outcome, err
		}

		rec, err := r.step(ctx, targets, sweeps, args)
		if err != nil {
			return outcome, err
		}
		if err := r.reporter.WriteRecord(rec.labels, rec.record); err != nil {
			return outcome, err
		}

		if args.Position+1 >= enum.Total() {
			break
		}
		next, err := r.confirm.Confirm(ctx,
			fmt.Sprintf("Argument set %d of %d done", args.Position+1, enum.Total()),
			fmt.Sprintf("Outputs are in %s", r.resultsDir))
		if err != nil {
			return outcome, err
		}
		if !next {
			outcome.Stopped = true
			r.logger.Info("stopped by operator", "position", args.Position)
			break
		}
		enum.Advance()
	}

	c, err := compare.CompareSeries(session.Series()...)
	if err != nil {
		return outcome, err
	}
	outcome.Comparison = c
	return outcome, nil
}

type stepRecord struct {
	labels []string
	record compare.Record
}

// step stages, runs and promotes one argument set.
func (r *Runner) step(ctx context.Context, targets []harness.Target, sweeps []*harness.SweepResult, args sweep.ArgumentSet) (stepRecord, error) {
	if err := r.bench.Stage(ctx, stageFor(targets, args)); err != nil {
		return stepRecord{}, err
	}
	if err := staging.CopyFile(args.DatasetPath, filepath.Join(r.resultsDir, InputFile)); err != nil {
		return stepRecord{}, err
	}

	var all []harness.Series
	for i, t := range targets {
		for _, mode := range t.RunModes() {
			jr, err := t.Impl.RunOnce(ctx, args, mode)
			if err != nil {
				return stepRecord{}, fmt.Errorf("run %s %s: %w", harness.SeriesLabel(t.Impl.Name(), mode), args, err)
			}
			sweeps[i].Results = append(sweeps[i].Results, jr)
			sweeps[i].Total += jr.Duration

			out := filepath.Join(r.resultsDir, OutputFile(t.Impl.Name(), mode))
			if err := os.WriteFile(out, []byte(jr.Output), 0o644); err != nil {
				return stepRecord{}, &staging.StagingIOError{Op: "copy", Path: out, Err: err}
			}
			all = append(all, harness.Series{
				Label:          jr.Label(),
				Implementation: jr.Implementation,
				Mode:           jr.Mode,
				Results:        []harness.JobResult{jr},
			})
		}
	}

	c, err := compare.CompareSeries(all...)
	if err != nil {
		return stepRecord{}, err
	}
	rec := c.Records[0]
	rec.Position = args.Position
	return stepRecord{labels: c.Labels, record: rec}, nil
}

// stageFor narrows every stage to the current dataset file.
func stageFor(targets []harness.Target, args sweep.ArgumentSet) []harness.Target {
	out := make([]harness.Target, len(targets))
	for i, t := range targets {
		out[i] = t
		if t.Stage != nil {
			spec := *t.Stage
			spec.File = args.Dataset
			out[i].Stage = &spec
		}
	}
	return out
}
