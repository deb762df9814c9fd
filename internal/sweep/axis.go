package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Policy decides how parameter axes of different lengths are combined.
type Policy string

const (
	// PolicyPad extends every axis to the longest one by repeating its last value.
	PolicyPad Policy = "pad"
	// PolicyTruncate cuts every axis down to the shortest one.
	PolicyTruncate Policy = "truncate"
)

// ParsePolicy converts a configuration value into a Policy.
// The empty string selects PolicyPad.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPad:
		return PolicyPad, nil
	case PolicyTruncate:
		return PolicyTruncate, nil
	default:
		return "", fmt.Errorf("invalid policy %q: must be %q or %q", s, PolicyPad, PolicyTruncate)
	}
}

// Overrides holds user-supplied axis values per key.
// A missing or empty entry falls back to the key's built-in default.
type Overrides map[Key][]string

func (o Overrides) clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// axis returns the configured values for key, or its single default.
func (o Overrides) axis(key Key) []string {
	if vals := o[key]; len(vals) > 0 {
		return append([]string(nil), vals...)
	}
	return []string{defaults[key]}
}

const (
	// rangeEpsilon absorbs float drift when counting range steps.
	rangeEpsilon = 1e-9
	// maxRangeValues caps how many values a single range may expand to.
	maxRangeValues = 10000
)

// ExpandValues replaces every "min:max:step" entry with the inclusive range
// it describes. Entries that do not parse as a valid range are kept verbatim.
func ExpandValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		r, ok := parseRange(v)
		if !ok {
			out = append(out, v)
			continue
		}
		out = append(out, r...)
	}
	return out
}

// parseRange parses "min:max:step". All parts must be finite, step must be
// positive, min <= max and the range may hold at most maxRangeValues values.
func parseRange(s string) ([]string, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, false
	}
	var nums [3]float64
	decimals := 0
	for i, p := range parts {
		p = strings.TrimSpace(p)
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		nums[i] = f
		decimals = max(decimals, fractionDigits(f))
	}
	lo, hi, step := nums[0], nums[1], nums[2]
	if step <= 0 || lo > hi {
		return nil, false
	}

	steps := math.Floor((hi-lo)/step + rangeEpsilon)
	if math.IsNaN(steps) || steps+1 > maxRangeValues {
		return nil, false
	}
	n := int(steps) + 1
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := lo + float64(i)*step
		out = append(out, strconv.FormatFloat(v, 'f', decimals, 64))
	}
	return out, true
}

// fractionDigits reports how many digits follow the decimal point in the
// shortest plain rendering of f, so "1e-1" counts like "0.1".
func fractionDigits(f float64) int {
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		return len(text) - dot - 1
	}
	return 0
}

// Reconcile brings every axis to a common length according to policy and
// returns that length. Axes must be non-empty. The input is not modified.
func Reconcile(axes [][]string, policy Policy) (int, [][]string) {
	if len(axes) == 0 {
		return 0, nil
	}

	width := len(axes[0])
	for _, a := range axes[1:] {
		switch policy {
		case PolicyTruncate:
			width = min(width, len(a))
		default:
			width = max(width, len(a))
		}
	}

	out := make([][]string, len(axes))
	for i, a := range axes {
		col := make([]string, width)
		for j := 0; j < width; j++ {
			if j < len(a) {
				col[j] = a[j]
			} else {
				col[j] = a[len(a)-1]
			}
		}
		out[i] = col
	}
	return width, out
}
