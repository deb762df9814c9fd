package staging

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestResetWorkingDirectory_MissingIsNotAnError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "does", "not", "exist")

	m := NewManager(nil)
	require.NoError(t, m.ResetWorkingDirectory(dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResetWorkingDirectory_ClearsStaleArtifacts(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "a.txt[5-2-5-10].corridorlist.txt"), "stale")
	writeFile(t, filepath.Join(dst, "nested", "x.txt"), "stale")

	m := NewManager(nil)
	require.NoError(t, m.ResetWorkingDirectory(dst))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageDataset_WholeDirectory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "stage")
	writeFile(t, filepath.Join(src, "a.txt"), "A")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "B")

	m := NewManager(nil)
	require.NoError(t, m.StageDataset(src, dst, ""))

	assert.Equal(t, "A", readFile(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, "B", readFile(t, filepath.Join(dst, "sub", "b.txt")))
}

func TestStageDataset_SingleFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "A")
	writeFile(t, filepath.Join(src, "b.txt"), "B")

	m := NewManager(nil)
	require.NoError(t, m.StageDataset(src, dst, "a.txt"))

	assert.Equal(t, "A", readFile(t, filepath.Join(dst, "a.txt")))
	_, err := os.Stat(filepath.Join(dst, "b.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestStageDataset_OverwritesOnConflict(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old content that is longer")

	m := NewManager(nil)
	require.NoError(t, m.StageDataset(src, dst, ""))

	assert.Equal(t, "new", readFile(t, filepath.Join(dst, "a.txt")))
}

func TestStageDataset_MissingSource(t *testing.T) {
	m := NewManager(nil)

	err := m.StageDataset(filepath.Join(t.TempDir(), "missing"), t.TempDir(), "")
	require.Error(t, err)
	assert.True(t, IsStagingError(err))

	err = m.StageDataset(t.TempDir(), t.TempDir(), "missing.txt")
	require.Error(t, err)
	assert.True(t, IsStagingError(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStageDataset_SourceIsFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "file.txt")
	writeFile(t, src, "x")

	err := NewManager(nil).StageDataset(src, t.TempDir(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRemove_MissingIsNotAnError(t *testing.T) {
	m := NewManager(nil)
	assert.NoError(t, m.Remove(filepath.Join(t.TempDir(), "gone")))
}
