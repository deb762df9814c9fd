package harness

import (
	"context"
	"fmt"

	"github.com/roach88/tracbench/internal/sweep"
)

// RunSweep runs impl over every argument set of enum, once per mode, and
// returns the accumulated results in sweep order (modes inner).
//
// The enumerator is rewound first, so every implementation sees the whole
// sweep; it is left exhausted. An empty modes list runs the single unnamed
// mode. SweepResult.Total is the sum of per-job durations.
func RunSweep(ctx context.Context, impl Implementation, enum *sweep.Enumerator, modes []string) (*SweepResult, error) {
	if len(modes) == 0 {
		modes = []string{""}
	}

	enum.Reset()
	result := &SweepResult{
		Implementation: impl.Name(),
		Modes:          append([]string(nil), modes...),
		Results:        make([]JobResult, 0, enum.Total()*len(modes)),
	}

	for {
		args, err := enum.Current()
		if err != nil {
			return result, err
		}

		for _, mode := range modes {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			jr, err := impl.RunOnce(ctx, args, mode)
			if err != nil {
				return result, fmt.Errorf("run %s %s: %w", SeriesLabel(impl.Name(), mode), args, err)
			}
			result.Results = append(result.Results, jr)
			result.Total += jr.Duration
		}

		if !enum.Advance() {
			break
		}
	}

	return result, nil
}
