package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_Pad(t *testing.T) {
	width, axes := Reconcile([][]string{
		{"a", "b", "c"},
		{"x"},
		{"1", "2"},
		{"p", "q", "r", "s"},
	}, PolicyPad)

	require.Equal(t, 4, width)
	assert.Equal(t, []string{"a", "b", "c", "c"}, axes[0])
	assert.Equal(t, []string{"x", "x", "x", "x"}, axes[1])
	assert.Equal(t, []string{"1", "2", "2", "2"}, axes[2])
	assert.Equal(t, []string{"p", "q", "r", "s"}, axes[3])
}

func TestReconcile_Truncate(t *testing.T) {
	width, axes := Reconcile([][]string{
		{"a", "b", "c"},
		{"x"},
		{"1", "2"},
		{"p", "q", "r", "s"},
	}, PolicyTruncate)

	require.Equal(t, 1, width)
	for _, a := range axes {
		assert.Len(t, a, 1)
	}
	assert.Equal(t, "p", axes[3][0])
}

func TestReconcile_DoesNotModifyInput(t *testing.T) {
	in := [][]string{{"a"}, {"1", "2"}}
	_, _ = Reconcile(in, PolicyPad)
	assert.Equal(t, [][]string{{"a"}, {"1", "2"}}, in)
}

func TestReconcile_Empty(t *testing.T) {
	width, axes := Reconcile(nil, PolicyPad)
	assert.Equal(t, 0, width)
	assert.Nil(t, axes)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPad, p)

	p, err = ParsePolicy(" Truncate ")
	require.NoError(t, err)
	assert.Equal(t, PolicyTruncate, p)

	_, err = ParsePolicy("cartesian")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid policy")
}

func TestExpandValues(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"plain values pass through", []string{"5", "abc", "1e3"}, []string{"5", "abc", "1e3"}},
		{"integer range", []string{"250:750:250"}, []string{"250", "500", "750"}},
		{"fractional range keeps precision", []string{"0.1:0.3:0.1"}, []string{"0.1", "0.2", "0.3"}},
		{"range mixed with values", []string{"1", "2:4:2"}, []string{"1", "2", "4"}},
		{"non-positive step is literal", []string{"1:5:0"}, []string{"1:5:0"}},
		{"reversed bounds are literal", []string{"5:1:1"}, []string{"5:1:1"}},
		{"two parts are literal", []string{"1:5"}, []string{"1:5"}},
		{"non-numeric parts are literal", []string{"a:b:c"}, []string{"a:b:c"}},
		{"step overshoots max", []string{"0:10:4"}, []string{"0", "4", "8"}},
		{"exponent step keeps precision", []string{"0:0.3:1e-1"}, []string{"0.0", "0.1", "0.2", "0.3"}},
		{"exponent bounds", []string{"1e2:3e2:1e2"}, []string{"100", "200", "300"}},
		{"huge range is literal", []string{"0:1e300:1"}, []string{"0:1e300:1"}},
		{"tiny step is literal", []string{"0:1:1e-9"}, []string{"0:1:1e-9"}},
		{"nan bound is literal", []string{"nan:1:1"}, []string{"nan:1:1"}},
		{"infinite bound is literal", []string{"0:inf:1"}, []string{"0:inf:1"}},
		{"infinite step is literal", []string{"0:1:+Inf"}, []string{"0:1:+Inf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandValues(tt.in))
		})
	}
}

func TestExpandValues_RangeAtCap(t *testing.T) {
	got := ExpandValues([]string{"1:10000:1"})
	require.Len(t, got, maxRangeValues)
	assert.Equal(t, "1", got[0])
	assert.Equal(t, "10000", got[len(got)-1])

	over := ExpandValues([]string{"0:10000:1"})
	assert.Equal(t, []string{"0:10000:1"}, over)
}

func TestKeys(t *testing.T) {
	for _, k := range Keys {
		assert.True(t, IsKnown(k), k)
		_, err := Default(k)
		assert.NoError(t, err)
	}

	_, err := Default("seg_size")
	assert.True(t, IsUnknownKey(err))

	k, err := ParseKey("segment_size")
	require.NoError(t, err)
	assert.Equal(t, SegmentSize, k)
	assert.Equal(t, "--segment_size", k.Flag())
	assert.Equal(t, "--infile", Path.Flag())

	_, err = ParseKey("bogus")
	assert.True(t, IsUnknownKey(err))
}

func TestArgumentSet_Value(t *testing.T) {
	set := ArgumentSet{Dataset: "a.txt", MaxDist: "5", MinDensity: "2", MaxAngle: "5", SegmentSize: "10"}

	for key, want := range map[Key]string{
		MaxDist: "5", MinDensity: "2", MaxAngle: "5", SegmentSize: "10", Path: "a.txt",
	} {
		got, err := set.Value(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}

	_, err := set.Value("bogus")
	assert.True(t, IsUnknownKey(err))
	assert.Equal(t, "[5, 2, 5, 10] for 'a.txt'", set.String())
}
