package visual

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/sweep"
	"github.com/roach88/tracbench/internal/testutil"
)

// scriptedConfirmer answers from a fixed list and records every prompt.
type scriptedConfirmer struct {
	answers []bool
	titles  []string
}

func (s *scriptedConfirmer) Confirm(_ context.Context, title, _ string) (bool, error) {
	s.titles = append(s.titles, title)
	if len(s.answers) == 0 {
		return true, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

type fixture struct {
	root, data, results string
	targets             []harness.Target
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "a.txt"), []byte("0 0 1 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(data, "b.txt"), []byte("2 2 3 3\n"), 0o644))

	cat := testutil.WriteScript(t, root, "cat.sh", `cat "$2"`)
	target := func(name string, modes ...string) harness.Target {
		dest := filepath.Join(root, name, "benchmarked_data")
		return harness.Target{
			Impl: harness.NewProcess(harness.ProcessConfig{
				Name:       name,
				Command:    []string{cat},
				DatasetDir: dest,
				Modes:      modes,
			}, nil),
			Stage: &harness.StageSpec{Source: data, Destination: dest},
		}
	}

	return fixture{
		root:    root,
		data:    data,
		results: filepath.Join(root, "results"),
		targets: []harness.Target{target("py"), target("rs", "serial")},
	}
}

func (f fixture) enumerator() *sweep.Enumerator {
	return sweep.New(f.data, sweep.Overrides{sweep.Path: {"a.txt", "b.txt"}})
}

func newRunner(f fixture, c Confirmer, out *bytes.Buffer) *Runner {
	bench := harness.NewBench(nil).WithIDGenerator(testutil.NewSequentialIDGenerator("visual"))
	return NewRunner(bench, f.results, c, out, compare.Options{}, nil)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunner_StepsThroughEverySet(t *testing.T) {
	f := newFixture(t)
	confirm := &scriptedConfirmer{}
	var out bytes.Buffer

	outcome, err := newRunner(f, confirm, &out).Run(context.Background(), f.targets, f.enumerator())
	require.NoError(t, err)

	assert.False(t, outcome.Stopped)
	assert.Equal(t, "visual-0001", outcome.Session.ID)
	assert.Equal(t, []string{"Argument set 1 of 2 done"}, confirm.titles, "no prompt after the last set")

	require.NotNil(t, outcome.Comparison)
	assert.Equal(t, []string{"py", "rs/serial"}, outcome.Comparison.Labels)
	require.Len(t, outcome.Comparison.Records, 2)
	assert.True(t, outcome.Comparison.AllMatch())

	assert.Contains(t, out.String(), "#0 [250, 2, 5, 500] for 'a.txt'  ✔ MATCH\n")
	assert.Contains(t, out.String(), "#1 [250, 2, 5, 500] for 'b.txt'  ✔ MATCH\n")

	// The results directory holds the last set.
	assert.Equal(t, "2 2 3 3\n", readFile(t, filepath.Join(f.results, InputFile)))
	assert.Equal(t, "2 2 3 3", readFile(t, filepath.Join(f.results, "py.txt")))
	assert.Equal(t, "2 2 3 3", readFile(t, filepath.Join(f.results, "rs-serial.txt")))

	// Staged directories are removed afterwards.
	_, err = os.Stat(filepath.Join(f.root, "py", "benchmarked_data"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunner_OperatorStops(t *testing.T) {
	f := newFixture(t)
	confirm := &scriptedConfirmer{answers: []bool{false}}
	var out bytes.Buffer

	outcome, err := newRunner(f, confirm, &out).Run(context.Background(), f.targets, f.enumerator())
	require.NoError(t, err)

	assert.True(t, outcome.Stopped)
	require.Len(t, outcome.Comparison.Records, 1)
	assert.Equal(t, "a.txt", outcome.Comparison.Records[0].Args.Dataset)
	assert.NotContains(t, out.String(), "b.txt")
	assert.Equal(t, "0 0 1 1\n", readFile(t, filepath.Join(f.results, InputFile)))

	require.Len(t, outcome.Session.Sweeps, 2)
	assert.Len(t, outcome.Session.Sweeps[0].Results, 1)
}

func TestRunner_ReportsMismatch(t *testing.T) {
	f := newFixture(t)
	other := testutil.WriteScript(t, f.root, "other.sh", `echo different`)
	f.targets[1] = harness.Target{Impl: harness.NewProcess(harness.ProcessConfig{Name: "rs", Command: []string{other}}, nil)}
	var out bytes.Buffer

	outcome, err := newRunner(f, AutoConfirmer{}, &out).Run(context.Background(), f.targets, f.enumerator())
	require.NoError(t, err)

	assert.False(t, outcome.Comparison.AllMatch())
	assert.Contains(t, out.String(), "#0 [250, 2, 5, 500] for 'a.txt'  ✘ MISMATCH\n  py:\n    0 0 1 1\n  rs:\n    different\n")
	assert.Equal(t, "different", readFile(t, filepath.Join(f.results, "rs.txt")))
}

func TestRunner_BuildFailureRunsNothing(t *testing.T) {
	f := newFixture(t)
	failing := testutil.WriteScript(t, f.root, "build.sh", "echo broken >&2\nexit 1")
	f.targets[0] = harness.Target{Impl: harness.NewProcess(harness.ProcessConfig{
		Name:    "py",
		Command: []string{"true"},
		Build:   []string{failing},
	}, nil)}
	var out bytes.Buffer

	outcome, err := newRunner(f, AutoConfirmer{}, &out).Run(context.Background(), f.targets, f.enumerator())
	require.Error(t, err)
	assert.True(t, harness.IsBuildError(err))
	assert.Nil(t, outcome)
	assert.Empty(t, out.String())

	_, statErr := os.Stat(f.results)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStageFor_NarrowsToCurrentDataset(t *testing.T) {
	targets := []harness.Target{
		{Stage: &harness.StageSpec{Source: "data", Destination: "work"}},
		{},
	}
	narrowed := stageFor(targets, sweep.ArgumentSet{Dataset: "b.txt"})

	assert.Equal(t, "b.txt", narrowed[0].Stage.File)
	assert.Empty(t, targets[0].Stage.File, "input targets are not modified")
	assert.Nil(t, narrowed[1].Stage)
}

func TestOutputFile(t *testing.T) {
	assert.Equal(t, "python.txt", OutputFile("python", ""))
	assert.Equal(t, "rust-parallel-rayon.txt", OutputFile("rust", "parallel-rayon"))
}

func TestAutoConfirmer(t *testing.T) {
	ok, err := AutoConfirmer{}.Confirm(context.Background(), "t", "d")
	require.NoError(t, err)
	assert.True(t, ok)
}
