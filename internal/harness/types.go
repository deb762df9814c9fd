package harness

import (
	"time"

	"github.com/roach88/tracbench/internal/sweep"
)

// JobResult is the outcome of one implementation invocation.
// It is created by the Job Runner and never modified afterwards.
type JobResult struct {
	Args           sweep.ArgumentSet `json:"args"`
	Implementation string            `json:"implementation"`
	Mode           string            `json:"mode,omitempty"`

	// Output is the captured standard output or artifact content.
	Output string `json:"output"`

	// Duration is the wall-clock time of the external process alone.
	Duration time.Duration `json:"duration_ns"`

	// ExitCode is the process exit status, or -1 if it could not start.
	ExitCode int `json:"exit_code"`

	// Artifact is the base name of the consumed artifact file, if any.
	Artifact string `json:"artifact,omitempty"`

	// Error describes a non-fatal run failure (start failure, strict
	// missing artifact). The sweep continues regardless.
	Error string `json:"error,omitempty"`
}

// Label identifies the implementation and mode, e.g. "rust/serial".
func (r JobResult) Label() string {
	return SeriesLabel(r.Implementation, r.Mode)
}

// SeriesLabel formats an implementation name and optional mode.
func SeriesLabel(impl, mode string) string {
	if mode == "" {
		return impl
	}
	return impl + "/" + mode
}

// Series is the ordered list of results of one implementation in one
// mode, aligned with sweep positions.
type Series struct {
	Label          string      `json:"label"`
	Implementation string      `json:"implementation"`
	Mode           string      `json:"mode,omitempty"`
	Results        []JobResult `json:"results"`
}

// Total returns the sum of the job durations in the series.
func (s Series) Total() time.Duration {
	var total time.Duration
	for _, r := range s.Results {
		total += r.Duration
	}
	return total
}

// SweepResult accumulates every job of one implementation over a sweep.
type SweepResult struct {
	Implementation string      `json:"implementation"`
	Modes          []string    `json:"modes"`
	Results        []JobResult `json:"results"`

	// Total is the sum of per-job durations, not the wall-clock of the loop.
	Total time.Duration `json:"total_ns"`
}

// Series splits the results by mode, keeping sweep order in each series.
func (r *SweepResult) Series() []Series {
	out := make([]Series, len(r.Modes))
	index := make(map[string]int, len(r.Modes))
	for i, mode := range r.Modes {
		out[i] = Series{
			Label:          SeriesLabel(r.Implementation, mode),
			Implementation: r.Implementation,
			Mode:           mode,
		}
		index[mode] = i
	}
	for _, jr := range r.Results {
		i, ok := index[jr.Mode]
		if !ok {
			continue
		}
		out[i].Results = append(out[i].Results, jr)
	}
	return out
}

// Session is one complete harness execution over all implementations.
type Session struct {
	ID        string         `json:"id"`
	StartedAt time.Time      `json:"started_at"`
	Sweeps    []*SweepResult `json:"sweeps"`
}

// Series returns every series of every sweep, in implementation then mode order.
func (s *Session) Series() []Series {
	var out []Series
	for _, sw := range s.Sweeps {
		out = append(out, sw.Series()...)
	}
	return out
}
