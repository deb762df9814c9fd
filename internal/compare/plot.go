package compare

import (
	"fmt"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/tracbench/internal/harness"
)

// Chart size.
const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// TimingPlot builds a line chart of job duration by sweep position, one
// line per series.
func TimingPlot(series []harness.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Job duration by sweep position"
	p.X.Label.Text = "Sweep position"
	p.Y.Label.Text = "Duration (ms)"

	for i, s := range series {
		if len(s.Results) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Results))
		for j, r := range s.Results {
			pts[j] = plotter.XY{X: float64(r.Args.Position), Y: float64(r.Duration) / float64(time.Millisecond)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())
	return p, nil
}

// SaveTimingPlot renders the timing chart to path. The image format
// follows the extension (png, svg, pdf, ...).
func SaveTimingPlot(path string, series []harness.Series) error {
	p, err := TimingPlot(series)
	if err != nil {
		return err
	}
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving timing plot: %w", err)
	}
	return nil
}
