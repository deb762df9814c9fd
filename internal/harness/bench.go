package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tracbench/internal/staging"
	"github.com/roach88/tracbench/internal/sweep"
)

// StageSpec describes the input directory prepared for one implementation.
type StageSpec struct {
	// Source is the directory holding the input datasets.
	Source string
	// Destination is wiped and refilled before the implementation runs.
	Destination string
	// File, when set, stages only that file instead of the whole directory.
	File string
	// Keep leaves Destination in place after the batch.
	Keep bool
}

// Target is one implementation scheduled in a bench session.
type Target struct {
	Impl  Implementation
	Stage *StageSpec

	// Modes overrides Impl.Modes() when non-nil.
	Modes []string
}

func (t Target) modes() []string {
	if t.Modes != nil {
		return t.Modes
	}
	return t.Impl.Modes()
}

// Bench runs a batch comparison session: build every implementation, stage
// their inputs, run each sweep strictly one job at a time, then clean up.
type Bench struct {
	stager *staging.Manager
	ids    IDGenerator
	clock  Clock
	logger *slog.Logger

	// OnSweep, if set, is called after each implementation's sweep.
	OnSweep func(*SweepResult)
}

// NewBench creates a Bench. A nil logger discards output.
func NewBench(logger *slog.Logger) *Bench {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bench{
		stager: staging.NewManager(logger),
		ids:    UUIDv7Generator{},
		clock:  SystemClock{},
		logger: logger,
	}
}

// WithIDGenerator replaces the session ID generator (for tests).
func (b *Bench) WithIDGenerator(g IDGenerator) *Bench {
	b.ids = g
	return b
}

// WithClock replaces the clock used for the session start time.
func (b *Bench) WithClock(c Clock) *Bench {
	b.clock = c
	return b
}

// NewSession starts an empty session with a fresh ID.
func (b *Bench) NewSession() *Session {
	return &Session{
		ID:        b.ids.Generate(),
		StartedAt: b.clock.Now().UTC().Truncate(time.Second),
	}
}

// RunModes returns the modes the target runs in, or the single unnamed
// mode when it declares none.
func (t Target) RunModes() []string {
	if m := t.modes(); len(m) > 0 {
		return m
	}
	return []string{""}
}

// Build runs every build step in order and stops at the first failure.
func (b *Bench) Build(ctx context.Context, targets []Target) error {
	for _, t := range targets {
		b.logger.Info("building implementation", "implementation", t.Impl.Name())
		if err := t.Impl.Build(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stage prepares every target's input directory. Targets write to disjoint
// destinations, so they are staged concurrently; each completes before
// any job starts.
func (b *Bench) Stage(ctx context.Context, targets []Target) error {
	g, _ := errgroup.WithContext(ctx)
	for _, t := range targets {
		if t.Stage == nil {
			continue
		}
		spec := *t.Stage
		name := t.Impl.Name()
		g.Go(func() error {
			if err := b.stager.ResetWorkingDirectory(spec.Destination); err != nil {
				return fmt.Errorf("stage %s: %w", name, err)
			}
			if err := b.stager.StageDataset(spec.Source, spec.Destination, spec.File); err != nil {
				return fmt.Errorf("stage %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Cleanup removes staged destinations not marked Keep.
func (b *Bench) Cleanup(targets []Target) error {
	for _, t := range targets {
		if t.Stage == nil || t.Stage.Keep {
			continue
		}
		if err := b.stager.Remove(t.Stage.Destination); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a full session. A BuildError or staging failure aborts
// before any job runs. Staged directories are cleaned up even when a
// sweep fails.
func (b *Bench) Run(ctx context.Context, targets []Target, enum *sweep.Enumerator) (*Session, error) {
	session := b.NewSession()

	if err := b.Build(ctx, targets); err != nil {
		return nil, err
	}
	if err := b.Stage(ctx, targets); err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Cleanup(targets); err != nil {
			b.logger.Error("cleanup failed", "error", err)
		}
	}()

	for _, t := range targets {
		b.logger.Info("running implementation",
			"implementation", t.Impl.Name(),
			"modes", t.modes(),
			"argument_sets", enum.Total(),
		)
		res, err := RunSweep(ctx, t.Impl, enum, t.modes())
		if err != nil {
			return session, err
		}
		b.logger.Info("implementation finished",
			"implementation", t.Impl.Name(),
			"jobs", len(res.Results),
			"total", res.Total,
		)
		session.Sweeps = append(session.Sweeps, res)
		if b.OnSweep != nil {
			b.OnSweep(res)
		}
	}

	return session, nil
}
