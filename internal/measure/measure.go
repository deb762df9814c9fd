// Package measure extracts clustering metrics from the tab-separated
// corridor and segment lists written by the implementations.
//
// Corridor lists start with a "name\tweight\tcoordinates" header and hold
// one WKT LINESTRING per corridor. Segment lists start with a header and
// carry the corridor id in column 3, "-1" marking an unclustered segment.
package measure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"
)

// CorridorIDColumn is the zero-based column of the corridor id in a
// segment list.
const CorridorIDColumn = 3

// Unclustered is the corridor id of a segment that joined no corridor.
const Unclustered = "-1"

// Corridor is one row of a corridor list.
type Corridor struct {
	Name   string
	Weight float64
	Line   orb.LineString
}

// Length returns the planar length of the corridor line.
func (c Corridor) Length() float64 {
	return planar.Length(c.Line)
}

// Summary aggregates a corridor list.
type Summary struct {
	Corridors   int     `json:"corridors"`
	TotalWeight float64 `json:"total_weight"`
	TotalLength float64 `json:"total_length"`
	MeanLength  float64 `json:"mean_length"`
	StdLength   float64 `json:"std_length"`
}

// rows returns the non-blank lines after the header.
func rows(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	header := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// CountCorridors returns the number of data rows in a corridor list. Blank
// lines are not rows, so an empty file holds zero corridors.
func CountCorridors(r io.Reader) (int, error) {
	lines, err := rows(r)
	return len(lines), err
}

// SegmentStats counts the rows of a segment list.
type SegmentStats struct {
	Segments    int `json:"segments"`
	Unclustered int `json:"unclustered"`
}

// CountSegments counts every segment and the unclustered ones.
func CountSegments(r io.Reader) (SegmentStats, error) {
	lines, err := rows(r)
	if err != nil {
		return SegmentStats{}, err
	}
	st := SegmentStats{Segments: len(lines)}
	for i, line := range lines {
		cols := strings.Split(strings.TrimSpace(line), "\t")
		if len(cols) <= CorridorIDColumn {
			return SegmentStats{}, fmt.Errorf("segment row %d: want at least %d columns, got %d", i+1, CorridorIDColumn+1, len(cols))
		}
		if cols[CorridorIDColumn] == Unclustered {
			st.Unclustered++
		}
	}
	return st, nil
}

// CountUnclustered returns the number of segments whose corridor id is "-1".
func CountUnclustered(r io.Reader) (int, error) {
	st, err := CountSegments(r)
	return st.Unclustered, err
}

// ParseCorridors decodes every row of a corridor list.
func ParseCorridors(r io.Reader) ([]Corridor, error) {
	lines, err := rows(r)
	if err != nil {
		return nil, err
	}

	out := make([]Corridor, 0, len(lines))
	for i, line := range lines {
		cols := strings.SplitN(line, "\t", 3)
		if len(cols) != 3 {
			return nil, fmt.Errorf("corridor row %d: want 3 columns, got %d", i+1, len(cols))
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("corridor row %d: weight: %w", i+1, err)
		}
		ls, err := wkt.UnmarshalLineString(strings.TrimSpace(cols[2]))
		if err != nil {
			return nil, fmt.Errorf("corridor row %d: coordinates: %w", i+1, err)
		}
		out = append(out, Corridor{Name: strings.TrimSpace(cols[0]), Weight: weight, Line: ls})
	}
	return out, nil
}

// Summarize aggregates corridors. An empty list yields a zero Summary.
func Summarize(corridors []Corridor) Summary {
	s := Summary{Corridors: len(corridors)}
	if len(corridors) == 0 {
		return s
	}
	lengths := make([]float64, len(corridors))
	for i, c := range corridors {
		lengths[i] = c.Length()
		s.TotalLength += lengths[i]
		s.TotalWeight += c.Weight
	}
	if len(lengths) > 1 {
		s.MeanLength, s.StdLength = stat.MeanStdDev(lengths, nil)
	} else {
		s.MeanLength = lengths[0]
	}
	return s
}

// SummarizeText parses and summarizes a corridor list held in memory.
func SummarizeText(content string) (Summary, error) {
	corridors, err := ParseCorridors(strings.NewReader(content))
	if err != nil {
		return Summary{}, err
	}
	return Summarize(corridors), nil
}
