package harness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roach88/tracbench/internal/sweep"
)

// fakeImpl records every call and echoes the parameters back.
type fakeImpl struct {
	name     string
	modes    []string
	buildErr error
	runErr   error
	step     time.Duration

	mu     sync.Mutex
	builds int
	calls  []string
}

func (f *fakeImpl) Name() string    { return f.name }
func (f *fakeImpl) Modes() []string { return f.modes }

func (f *fakeImpl) Build(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	return f.buildErr
}

func (f *fakeImpl) RunOnce(_ context.Context, args sweep.ArgumentSet, mode string) (JobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, SeriesLabel(args.Params(), mode))
	if f.runErr != nil {
		return JobResult{}, f.runErr
	}
	step := f.step
	if step == 0 {
		step = 10 * time.Millisecond
	}
	return JobResult{
		Args:           args,
		Implementation: f.name,
		Mode:           mode,
		Output:         args.Dataset + " " + args.Params(),
		Duration:       step,
	}, nil
}

var errHarness = errors.New("harness exploded")
