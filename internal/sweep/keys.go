package sweep

import "fmt"

// Key names one recognized sweep option.
type Key string

// Recognized keys.
const (
	MaxDist     Key = "max_dist"
	MinDensity  Key = "min_density"
	MaxAngle    Key = "max_angle"
	SegmentSize Key = "segment_size"
	Path        Key = "path"
)

// ParameterKeys lists the tunables in invocation order.
var ParameterKeys = []Key{MaxDist, MinDensity, MaxAngle, SegmentSize}

// Keys lists every recognized key, parameters first.
var Keys = []Key{MaxDist, MinDensity, MaxAngle, SegmentSize, Path}

// defaults are the single-value axes used when a key is not configured.
var defaults = map[Key]string{
	MaxDist:     "250",
	MinDensity:  "2",
	MaxAngle:    "5",
	SegmentSize: "500",
	Path:        "90_degres_3_DL_traclus.txt",
}

// IsKnown reports whether key is one of the recognized keys.
func IsKnown(key Key) bool {
	_, ok := defaults[key]
	return ok
}

// Default returns the built-in value for key.
func Default(key Key) (string, error) {
	v, ok := defaults[key]
	if !ok {
		return "", &UnknownKeyError{Key: string(key)}
	}
	return v, nil
}

// ParseKey converts a configuration name into a Key.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if !IsKnown(k) {
		return "", &UnknownKeyError{Key: name}
	}
	return k, nil
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

// Flag returns the default command-line flag for the key.
// The dataset path is passed as --infile.
func (k Key) Flag() string {
	if k == Path {
		return "--infile"
	}
	return fmt.Sprintf("--%s", string(k))
}
