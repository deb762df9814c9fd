package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/measure"
)

// Artifact kinds understood by the measure command.
const (
	KindAuto      = "auto"
	KindCorridors = "corridors"
	KindSegments  = "segments"
)

// MeasureOptions holds flags for the measure command.
type MeasureOptions struct {
	*RootOptions
	Kind string
}

// NewMeasureCommand creates the measure command.
func NewMeasureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MeasureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "measure <file>...",
		Short: "Summarize corridor and segment lists",
		Long: `Report clustering statistics for artifacts written by the
implementations: corridor count, total weight and length for corridor
lists, segment and unclustered counts for segment lists.

With --kind auto the kind follows the file name ("corridor" or "segment").

Example:
  tracbench measure results/rust-serial.txt
  tracbench measure --kind segments out/a.segmentlist.txt`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", KindAuto, "artifact kind (auto|corridors|segments)")

	return cmd
}

// Measurement is the result for one file.
type Measurement struct {
	File      string                `json:"file"`
	Kind      string                `json:"kind"`
	Corridors *measure.Summary      `json:"corridors,omitempty"`
	Segments  *measure.SegmentStats `json:"segments,omitempty"`
}

func runMeasure(opts *MeasureOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch opts.Kind {
	case KindAuto, KindCorridors, KindSegments:
	default:
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid kind %q: must be one of auto, corridors, segments", opts.Kind), nil)
	}

	results := make([]Measurement, 0, len(files))
	for _, file := range files {
		m, err := measureFile(file, opts.Kind)
		if os.IsNotExist(err) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("file not found: %s", file), err)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeMeasureFailed, fmt.Sprintf("cannot measure %s", file), err)
		}
		formatter.VerboseLog("Measured %s as %s", file, m.Kind)
		results = append(results, m)
	}

	if formatter.IsJSON() {
		return formatter.Success(results)
	}
	return writeMeasurements(cmd.OutOrStdout(), results)
}

// detectKind picks the artifact kind from the file name, defaulting to
// corridors.
func detectKind(file string) string {
	name := strings.ToLower(filepath.Base(file))
	if strings.Contains(name, "segment") {
		return KindSegments
	}
	return KindCorridors
}

func measureFile(file, kind string) (Measurement, error) {
	f, err := os.Open(file)
	if err != nil {
		return Measurement{}, err
	}
	defer f.Close()

	if kind == KindAuto {
		kind = detectKind(file)
	}
	m := Measurement{File: file, Kind: kind}

	switch kind {
	case KindSegments:
		st, err := measure.CountSegments(f)
		if err != nil {
			return Measurement{}, err
		}
		m.Segments = &st
	default:
		corridors, err := measure.ParseCorridors(f)
		if err != nil {
			return Measurement{}, err
		}
		sum := measure.Summarize(corridors)
		m.Corridors = &sum
	}
	return m, nil
}

func writeMeasurements(w io.Writer, results []Measurement) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range results {
		switch {
		case m.Corridors != nil:
			c := m.Corridors
			fmt.Fprintf(tw, "%s\tcorridors=%d\tweight=%g\tlength=%.3f\tmean=%.3f\tstd=%.3f\n",
				m.File, c.Corridors, c.TotalWeight, c.TotalLength, c.MeanLength, c.StdLength)
		case m.Segments != nil:
			s := m.Segments
			fmt.Fprintf(tw, "%s\tsegments=%d\tunclustered=%d\n", m.File, s.Segments, s.Unclustered)
		}
	}
	return tw.Flush()
}
