// Package compare pairs the results of several implementation runs by sweep
// position and reports byte-exact verdicts and timing summaries.
//
// The first series is the reference: every other series is compared with
// it. Series are aligned by position only; their argument sets are assumed,
// not checked, to be the same.
package compare

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/sweep"
)

// Verdict is the outcome of comparing two outputs.
type Verdict string

const (
	Match    Verdict = "MATCH"
	Mismatch Verdict = "MISMATCH"
)

// ErrLengthMismatch is returned when series do not cover the same number
// of argument sets.
var ErrLengthMismatch = errors.New("result series have different lengths")

// Verify compares two outputs byte for byte.
func Verify(a, b string) Verdict {
	if a == b {
		return Match
	}
	return Mismatch
}

// Record is one argument set with the results of every series at its
// position. Verdicts[i] compares Results[i+1] with Results[0].
type Record struct {
	Position int                 `json:"position"`
	Args     sweep.ArgumentSet   `json:"args"`
	Results  []harness.JobResult `json:"results"`
	Verdicts []Verdict           `json:"verdicts"`
}

// Verdict is Match when every series agrees with the reference.
func (r Record) Verdict() Verdict {
	for _, v := range r.Verdicts {
		if v == Mismatch {
			return Mismatch
		}
	}
	return Match
}

// Mismatched returns the indices into Results that differ from the reference.
func (r Record) Mismatched() []int {
	var out []int
	for i, v := range r.Verdicts {
		if v == Mismatch {
			out = append(out, i+1)
		}
	}
	return out
}

// Comparison is the full result of comparing several series.
type Comparison struct {
	Labels  []string `json:"labels"`
	Records []Record `json:"records"`
	Timings []Timing `json:"timings"`
}

// Compare pairs two result lists. They must have equal length.
func Compare(a, b []harness.JobResult) ([]Record, error) {
	c, err := CompareSeries(
		harness.Series{Label: "a", Results: a},
		harness.Series{Label: "b", Results: b},
	)
	if err != nil {
		return nil, err
	}
	return c.Records, nil
}

// CompareSeries builds a Comparison. The first series is the reference. A
// single series yields records without verdicts, useful for timing alone.
func CompareSeries(series ...harness.Series) (*Comparison, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("compare: no series")
	}
	n := len(series[0].Results)
	for _, s := range series[1:] {
		if len(s.Results) != n {
			return nil, fmt.Errorf("%w: %s has %d, %s has %d",
				ErrLengthMismatch, series[0].Label, n, s.Label, len(s.Results))
		}
	}

	c := &Comparison{
		Labels:  make([]string, len(series)),
		Records: make([]Record, n),
		Timings: Timings(series),
	}
	for i, s := range series {
		c.Labels[i] = s.Label
	}

	for pos := 0; pos < n; pos++ {
		ref := series[0].Results[pos]
		rec := Record{
			Position: pos,
			Args:     ref.Args,
			Results:  make([]harness.JobResult, len(series)),
			Verdicts: make([]Verdict, 0, len(series)-1),
		}
		rec.Results[0] = ref
		for i := 1; i < len(series); i++ {
			other := series[i].Results[pos]
			rec.Results[i] = other
			rec.Verdicts = append(rec.Verdicts, Verify(ref.Output, other.Output))
		}
		c.Records[pos] = rec
	}
	return c, nil
}

// Reference returns the label of the reference series.
func (c *Comparison) Reference() string {
	if len(c.Labels) == 0 {
		return ""
	}
	return c.Labels[0]
}

// Counts returns how many records matched and mismatched.
func (c *Comparison) Counts() (matches, mismatches int) {
	for _, r := range c.Records {
		if r.Verdict() == Match {
			matches++
		} else {
			mismatches++
		}
	}
	return matches, mismatches
}

// AllMatch reports whether every record matched.
func (c *Comparison) AllMatch() bool {
	_, mismatches := c.Counts()
	return mismatches == 0
}

// MarshalJSON adds the overall verdict.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Verdict Verdict `json:"verdict"`
	}{plain(r), r.Verdict()})
}
