package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/sweep"
	"github.com/roach88/tracbench/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testArgs(pos int, maxDist string) sweep.ArgumentSet {
	return sweep.ArgumentSet{
		Position:    pos,
		Dataset:     "a.txt",
		DatasetPath: "/data/a.txt",
		MaxDist:     maxDist,
		MinDensity:  "2",
		MaxAngle:    "5",
		SegmentSize: "500",
	}
}

func testResult(impl, mode string, pos int, output string, d time.Duration) harness.JobResult {
	return harness.JobResult{
		Args:           testArgs(pos, "250"),
		Implementation: impl,
		Mode:           mode,
		Output:         output,
		Duration:       d,
	}
}

// createTestSession builds a two-position session of "py" and "rs/serial"
// where position 1 mismatches.
func createTestSession(t *testing.T, id string, started time.Time) (*harness.Session, *compare.Comparison) {
	t.Helper()
	sess := &harness.Session{
		ID:        id,
		StartedAt: started,
		Sweeps: []*harness.SweepResult{
			{
				Implementation: "py",
				Modes:          []string{""},
				Results: []harness.JobResult{
					testResult("py", "", 0, "3", 10*time.Millisecond),
					testResult("py", "", 1, "4", 20*time.Millisecond),
				},
			},
			{
				Implementation: "rs",
				Modes:          []string{"serial"},
				Results: []harness.JobResult{
					testResult("rs", "serial", 0, "3", 2*time.Millisecond),
					testResult("rs", "serial", 1, "5", 3*time.Millisecond),
				},
			},
		},
	}
	c, err := compare.CompareSeries(sess.Series()...)
	if err != nil {
		t.Fatalf("CompareSeries() failed: %v", err)
	}
	return sess, c
}

var testEpoch = testutil.Epoch
