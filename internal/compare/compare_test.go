package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/sweep"
)

func argsAt(pos int, maxDist string) sweep.ArgumentSet {
	return sweep.ArgumentSet{
		Position:    pos,
		Dataset:     "a.txt",
		DatasetPath: "data/a.txt",
		MaxDist:     maxDist,
		MinDensity:  "2",
		MaxAngle:    "5",
		SegmentSize: "10",
	}
}

func result(impl, mode string, pos int, maxDist, output string, d time.Duration) harness.JobResult {
	return harness.JobResult{
		Args:           argsAt(pos, maxDist),
		Implementation: impl,
		Mode:           mode,
		Output:         output,
		Duration:       d,
	}
}

func series(impl, mode string, results ...harness.JobResult) harness.Series {
	return harness.Series{
		Label:          harness.SeriesLabel(impl, mode),
		Implementation: impl,
		Mode:           mode,
		Results:        results,
	}
}

func TestVerify_ByteExact(t *testing.T) {
	assert.Equal(t, Match, Verify("corridor\t1", "corridor\t1"))
	assert.Equal(t, Mismatch, Verify("corridor\t1", "corridor\t2"))
	assert.Equal(t, Mismatch, Verify("x", "x\n"), "trailing newline differs")
	assert.Equal(t, Mismatch, Verify("\u00e9", "e\u0301"), "no normalization")
	assert.Equal(t, Match, Verify("", ""))
}

func TestCompare_PairsByPosition(t *testing.T) {
	a := []harness.JobResult{
		result("py", "", 0, "5", "same", time.Millisecond),
		result("py", "", 1, "10", "left", time.Millisecond),
	}
	b := []harness.JobResult{
		result("rs", "", 0, "5", "same", time.Millisecond),
		result("rs", "", 1, "10", "right", time.Millisecond),
	}

	records, err := Compare(a, b)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Match, records[0].Verdict())
	assert.Empty(t, records[0].Mismatched())

	assert.Equal(t, Mismatch, records[1].Verdict())
	assert.Equal(t, []int{1}, records[1].Mismatched())
	assert.Equal(t, "left", records[1].Results[0].Output, "both payloads are retained")
	assert.Equal(t, "right", records[1].Results[1].Output)
	assert.Equal(t, "10", records[1].Args.MaxDist)
}

func TestCompare_LengthMismatchIsFatal(t *testing.T) {
	a := []harness.JobResult{result("py", "", 0, "5", "x", 0)}
	_, err := Compare(a, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCompareSeries_ManySeries(t *testing.T) {
	c, err := CompareSeries(
		series("python", "", result("python", "", 0, "5", "A", 0), result("python", "", 1, "10", "B", 0)),
		series("rust", "serial", result("rust", "serial", 0, "5", "A", 0), result("rust", "serial", 1, "10", "B", 0)),
		series("rust", "parallel-rayon", result("rust", "parallel-rayon", 0, "5", "A", 0), result("rust", "parallel-rayon", 1, "10", "C", 0)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "rust/serial", "rust/parallel-rayon"}, c.Labels)
	assert.Equal(t, "python", c.Reference())
	assert.Equal(t, []Verdict{Match, Match}, c.Records[0].Verdicts)
	assert.Equal(t, []Verdict{Match, Mismatch}, c.Records[1].Verdicts)
	assert.Equal(t, []int{2}, c.Records[1].Mismatched())

	matches, mismatches := c.Counts()
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, mismatches)
	assert.False(t, c.AllMatch())
}

func TestCompareSeries_SingleSeries(t *testing.T) {
	c, err := CompareSeries(series("python", "", result("python", "", 0, "5", "A", time.Second)))
	require.NoError(t, err)
	require.Len(t, c.Records, 1)
	assert.Empty(t, c.Records[0].Verdicts)
	assert.True(t, c.AllMatch())
	require.Len(t, c.Timings, 1)
	assert.Equal(t, time.Second, c.Timings[0].Total)
}

func TestCompareSeries_NoSeries(t *testing.T) {
	_, err := CompareSeries()
	require.Error(t, err)
}

func TestCompareSeries_LengthMismatchNamesSeries(t *testing.T) {
	_, err := CompareSeries(
		series("python", "", result("python", "", 0, "5", "A", 0)),
		series("rust", "serial"),
	)
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "python has 1, rust/serial has 0")
}
