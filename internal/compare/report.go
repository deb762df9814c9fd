package compare

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/roach88/tracbench/internal/harness"
)

// Report palette.
var (
	colorMatch    = lipgloss.Color("#2CD7C7")
	colorMismatch = lipgloss.Color("#E74C3C")
	colorMuted    = lipgloss.Color("#2C4A54")
)

// Status icons.
const (
	IconMatch    = "✔"
	IconMismatch = "✘"
)

// Options tunes the text report.
type Options struct {
	// Diff adds a line diff of every mismatching payload against the
	// reference.
	Diff bool
}

// Reporter writes comparison reports. Styling follows the terminal
// capabilities of the writer, so plain writers get plain text.
type Reporter struct {
	w    io.Writer
	opts Options

	title    lipgloss.Style
	match    lipgloss.Style
	mismatch lipgloss.Style
	muted    lipgloss.Style
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer, opts Options) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:        w,
		opts:     opts,
		title:    r.NewStyle().Bold(true),
		match:    r.NewStyle().Foreground(colorMatch),
		mismatch: r.NewStyle().Foreground(colorMismatch).Bold(true),
		muted:    r.NewStyle().Foreground(colorMuted),
	}
}

// WriteText writes the full report: one line per argument set, both
// payloads for every mismatch, the timing table and a summary line.
func (r *Reporter) WriteText(c *Comparison) error {
	if len(c.Labels) > 1 {
		fmt.Fprintf(r.w, "%s\n\n", r.title.Render(fmt.Sprintf("Comparing %s over %d argument sets (reference: %s)",
			strings.Join(c.Labels, ", "), len(c.Records), c.Reference())))
		for _, rec := range c.Records {
			if err := r.WriteRecord(c.Labels, rec); err != nil {
				return err
			}
		}
		fmt.Fprintln(r.w)
	}

	if err := r.WriteTimings(c.Timings); err != nil {
		return err
	}

	if len(c.Labels) > 1 {
		matches, _ := c.Counts()
		_, err := fmt.Fprintf(r.w, "\nSummary: %d of %d argument sets match\n", matches, len(c.Records))
		return err
	}
	return nil
}

// WriteRecord writes the verdict line of one record and, on mismatch, the
// reference payload followed by every differing payload.
func (r *Reporter) WriteRecord(labels []string, rec Record) error {
	verdict := r.match.Render(IconMatch + " " + string(Match))
	if rec.Verdict() == Mismatch {
		verdict = r.mismatch.Render(IconMismatch + " " + string(Mismatch))
	}
	if _, err := fmt.Fprintf(r.w, "#%d %s  %s\n", rec.Position, rec.Args, verdict); err != nil {
		return err
	}

	mismatched := rec.Mismatched()
	if len(mismatched) == 0 {
		return nil
	}

	ref := rec.Results[0]
	r.writePayload(labelAt(labels, rec, 0), ref)
	for _, i := range mismatched {
		r.writePayload(labelAt(labels, rec, i), rec.Results[i])
		if r.opts.Diff {
			r.writeDiff(labelAt(labels, rec, 0), labelAt(labels, rec, i), ref.Output, rec.Results[i].Output)
		}
	}
	return nil
}

func labelAt(labels []string, rec Record, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return rec.Results[i].Label()
}

func (r *Reporter) writePayload(label string, res harness.JobResult) {
	var notes []string
	if res.ExitCode != 0 {
		notes = append(notes, fmt.Sprintf("exit %d", res.ExitCode))
	}
	if res.Error != "" {
		notes = append(notes, "error: "+res.Error)
	}
	if len(notes) > 0 {
		label = fmt.Sprintf("%s (%s)", label, strings.Join(notes, ", "))
	}
	fmt.Fprintf(r.w, "  %s:\n", label)

	body := strings.TrimRight(res.Output, "\n")
	if body == "" {
		fmt.Fprintf(r.w, "    %s\n", r.muted.Render("<empty>"))
		return
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
}

func (r *Reporter) writeDiff(refLabel, label, a, b string) {
	d := cmp.Diff(strings.Split(a, "\n"), strings.Split(b, "\n"))
	fmt.Fprintf(r.w, "  %s\n", r.muted.Render(fmt.Sprintf("diff %s -> %s (-%s +%s):", refLabel, label, refLabel, label)))
	for _, line := range strings.Split(strings.TrimRight(d, "\n"), "\n") {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
}

// WriteTimings writes one row per series.
func (r *Reporter) WriteTimings(timings []Timing) error {
	fmt.Fprintln(r.w, r.title.Render("Timing"))
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SERIES\tJOBS\tTOTAL\tMEAN\tSTDDEV\tSPEEDUP")
	for _, t := range timings {
		speedup := "-"
		if t.Speedup > 0 {
			speedup = fmt.Sprintf("%.2fx", t.Speedup)
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\t%s\n", t.Label, t.Jobs, t.Total, t.Mean, t.StdDev, speedup)
	}
	return tw.Flush()
}

// jsonReport is the machine-readable report layout.
type jsonReport struct {
	Reference  string   `json:"reference"`
	Labels     []string `json:"labels"`
	Records    []Record `json:"records"`
	Timings    []Timing `json:"timings"`
	Matches    int      `json:"matches"`
	Mismatches int      `json:"mismatches"`
}

// JSONReport returns the machine-readable form of c.
func JSONReport(c *Comparison) any {
	matches, mismatches := c.Counts()
	return jsonReport{
		Reference:  c.Reference(),
		Labels:     c.Labels,
		Records:    c.Records,
		Timings:    c.Timings,
		Matches:    matches,
		Mismatches: mismatches,
	}
}

// WriteJSON writes c as indented JSON.
func WriteJSON(w io.Writer, c *Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONReport(c))
}
