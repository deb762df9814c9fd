package harness

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultArtifactKeyword marks corridor output files.
const DefaultArtifactKeyword = "corridor"

// FindArtifact returns the path of the file in dir whose name contains both
// keyword and id. Names are compared in NFC form, since some filesystems
// return decomposed names. When several files match, the lexicographically
// smallest name wins. The input file never matches, even when its own name
// contains the keyword. A missing dir or no match returns "".
func FindArtifact(dir, keyword, id, input string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	keyword = norm.NFC.String(keyword)
	id = norm.NFC.String(id)
	input = absPath(input)

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if input != "" && absPath(filepath.Join(dir, entry.Name())) == input {
			continue
		}
		name := norm.NFC.String(entry.Name())
		if strings.Contains(name, keyword) && strings.Contains(name, id) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), nil
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// harvestArtifact reads and deletes the matching artifact. It returns the
// content and the artifact base name, or empty strings when none matched.
func harvestArtifact(dir, keyword, id, input string) (content, name string, err error) {
	path, err := FindArtifact(dir, keyword, id, input)
	if err != nil || path == "" {
		return "", "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	if err := os.Remove(path); err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(path), nil
}

// datasetStem strips the extension from a dataset file name.
func datasetStem(dataset string) string {
	return strings.TrimSuffix(dataset, filepath.Ext(dataset))
}
