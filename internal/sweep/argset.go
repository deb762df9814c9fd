package sweep

import "fmt"

// ArgumentSet is one concrete combination of parameter values and one
// dataset, as consumed by a single implementation invocation.
type ArgumentSet struct {
	// Position is the zero-based index of this set in sweep order.
	Position    int    `json:"position"`
	Dataset     string `json:"dataset"`
	DatasetPath string `json:"dataset_path"`
	MaxDist     string `json:"max_dist"`
	MinDensity  string `json:"min_density"`
	MaxAngle    string `json:"max_angle"`
	SegmentSize string `json:"segment_size"`
}

// Value returns the text of the value held under key.
func (a ArgumentSet) Value(key Key) (string, error) {
	switch key {
	case MaxDist:
		return a.MaxDist, nil
	case MinDensity:
		return a.MinDensity, nil
	case MaxAngle:
		return a.MaxAngle, nil
	case SegmentSize:
		return a.SegmentSize, nil
	case Path:
		return a.Dataset, nil
	default:
		return "", &UnknownKeyError{Key: string(key)}
	}
}

// Params formats the parameter values as "[max_dist, min_density, max_angle, segment_size]".
func (a ArgumentSet) Params() string {
	return fmt.Sprintf("[%s, %s, %s, %s]", a.MaxDist, a.MinDensity, a.MaxAngle, a.SegmentSize)
}

// String formats the set as "[5, 2, 5, 10] for 'a.txt'".
func (a ArgumentSet) String() string {
	return fmt.Sprintf("%s for '%s'", a.Params(), a.Dataset)
}
