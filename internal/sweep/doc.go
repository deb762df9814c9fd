// Package sweep enumerates the argument sets of a benchmark sweep.
//
// A sweep has two dimensions. The outer dimension is the dataset axis
// (the configured `path` values). The inner dimension is the combined
// parameter index shared by the four tunables (max_dist, min_density,
// max_angle, segment_size): all parameter axes advance together, so a
// sweep with P combined positions and D datasets yields exactly P×D
// argument sets.
//
// # Axis reconciliation
//
// Parameter axes may be configured with different lengths. The combined
// length is decided by a Policy:
//
//   - PolicyPad (default): length = longest axis; shorter axes repeat
//     their own last value. No configured value is ever skipped.
//   - PolicyTruncate: length = shortest axis; tail values of longer axes
//     are never visited.
//
// # Values
//
// Values are carried as text exactly as configured and are not validated;
// rejecting a malformed number is left to the implementation under test.
// A value of the form "min:max:step" expands to an inclusive numeric range.
package sweep
