package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	corridorFile = "name\tweight\tcoordinates\n" +
		"c0\t2\tLINESTRING(0 0, 3 4)\n" +
		"c1\t1\tLINESTRING(0 0, 0 1)\n"
	segmentFile = "id\tweight\tangle\tcorridor_id\tcoordinates\n" +
		"0\t1\t0.5\t0\tLINESTRING(0 0, 1 1)\n" +
		"1\t1\t0.5\t-1\tLINESTRING(0 0, 1 1)\n" +
		"2\t1\t0.5\t-1\tLINESTRING(0 0, 1 1)\n"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMeasureDetectsKind(t *testing.T) {
	corridors := writeArtifact(t, "a.corridorlist.txt", corridorFile)
	segments := writeArtifact(t, "a.segmentlist.txt", segmentFile)

	cmd := NewMeasureCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, corridors, segments)
	require.NoError(t, err)

	assert.Contains(t, out, "corridors=2")
	assert.Contains(t, out, "weight=3")
	assert.Contains(t, out, "length=6.000")
	assert.Contains(t, out, "segments=3")
	assert.Contains(t, out, "unclustered=2")
}

func TestMeasureJSON(t *testing.T) {
	path := writeArtifact(t, "rust-serial.txt", corridorFile)

	cmd := NewMeasureCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, path)
	require.NoError(t, err)

	var resp struct {
		Data []Measurement `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	m := resp.Data[0]
	assert.Equal(t, KindCorridors, m.Kind)
	require.NotNil(t, m.Corridors)
	assert.Nil(t, m.Segments)
	assert.Equal(t, 2, m.Corridors.Corridors)
	assert.InDelta(t, 3.0, m.Corridors.MeanLength, 1e-9)
}

func TestMeasureExplicitKind(t *testing.T) {
	path := writeArtifact(t, "out.txt", segmentFile)

	cmd := NewMeasureCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--kind", KindSegments, path)
	require.NoError(t, err)
	assert.Contains(t, out, "segments=3")
}

func TestMeasureErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cmd := NewMeasureCommand(&RootOptions{Format: "text"})
		_, _, err := execute(t, cmd, filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrCodeNotFound)
	})

	t.Run("malformed corridor list", func(t *testing.T) {
		path := writeArtifact(t, "bad.txt", "name\tweight\tcoordinates\nc0\tx\tLINESTRING(0 0, 1 1)\n")
		cmd := NewMeasureCommand(&RootOptions{Format: "text"})
		_, _, err := execute(t, cmd, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrCodeMeasureFailed)
		assert.Contains(t, err.Error(), "corridor row 1")
	})

	t.Run("bad kind", func(t *testing.T) {
		cmd := NewMeasureCommand(&RootOptions{Format: "text"})
		_, _, err := execute(t, cmd, "--kind", "polygons", "x.txt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid kind")
	})

	t.Run("no files", func(t *testing.T) {
		cmd := NewMeasureCommand(&RootOptions{Format: "text"})
		_, _, err := execute(t, cmd)
		require.Error(t, err)
	})
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindSegments, detectKind("/tmp/A.SegmentList.txt"))
	assert.Equal(t, KindCorridors, detectKind("a.corridorlist.txt"))
	assert.Equal(t, KindCorridors, detectKind("python.txt"))
}
