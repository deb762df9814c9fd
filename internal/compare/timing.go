package compare

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/tracbench/internal/harness"
)

// Timing aggregates the job durations of one series.
type Timing struct {
	Label  string        `json:"label"`
	Jobs   int           `json:"jobs"`
	Total  time.Duration `json:"total_ns"`
	Mean   time.Duration `json:"mean_ns"`
	StdDev time.Duration `json:"stddev_ns"`
	Min    time.Duration `json:"min_ns"`
	Max    time.Duration `json:"max_ns"`

	// Speedup is the reference total divided by this total; 0 when this
	// total is zero.
	Speedup float64 `json:"speedup"`
}

// Timings aggregates every series. The first series is the reference for
// speedups.
func Timings(series []harness.Series) []Timing {
	out := make([]Timing, len(series))
	for i, s := range series {
		out[i] = timing(s)
	}
	if len(out) == 0 {
		return out
	}
	ref := out[0].Total
	for i := range out {
		if out[i].Total > 0 {
			out[i].Speedup = float64(ref) / float64(out[i].Total)
		}
	}
	return out
}

func timing(s harness.Series) Timing {
	t := Timing{Label: s.Label, Jobs: len(s.Results), Total: s.Total()}
	if len(s.Results) == 0 {
		return t
	}

	ns := make([]float64, len(s.Results))
	for i, r := range s.Results {
		ns[i] = float64(r.Duration)
	}
	t.Min = nanos(floats.Min(ns))
	t.Max = nanos(floats.Max(ns))
	if len(ns) < 2 {
		t.Mean = nanos(ns[0])
		return t
	}
	mean, std := stat.MeanStdDev(ns, nil)
	t.Mean = nanos(mean)
	t.StdDev = nanos(std)
	return t
}

func nanos(f float64) time.Duration {
	return time.Duration(math.Round(f))
}
