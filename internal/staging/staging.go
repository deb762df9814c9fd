// Package staging prepares per-implementation working directories so that
// every implementation sees an identical, artifact-free copy of the input
// datasets before its batch of runs.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// StagingIOError reports a failed copy, removal or directory creation.
// It aborts the staging step it occurred in.
type StagingIOError struct {
	Op   string // "remove", "mkdir", "copy", "stat"
	Path string
	Err  error
}

func (e *StagingIOError) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StagingIOError) Unwrap() error {
	return e.Err
}

// IsStagingError reports whether err is (or wraps) a StagingIOError.
func IsStagingError(err error) bool {
	var se *StagingIOError
	return errors.As(err, &se)
}

// Manager stages datasets into working directories.
// Operations on disjoint destinations may run concurrently.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{logger: logger}
}

// ResetWorkingDirectory removes dst recursively, if present, and recreates
// it empty. A missing dst is not an error.
func (m *Manager) ResetWorkingDirectory(dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return &StagingIOError{Op: "remove", Path: dst, Err: err}
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return &StagingIOError{Op: "mkdir", Path: dst, Err: err}
	}
	m.logger.Debug("working directory reset", "dir", dst)
	return nil
}

// Remove deletes dst recursively. A missing dst is not an error.
func (m *Manager) Remove(dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return &StagingIOError{Op: "remove", Path: dst, Err: err}
	}
	m.logger.Debug("working directory removed", "dir", dst)
	return nil
}

// StageDataset copies src into dst, overwriting files that already exist.
// With a non-empty name only src/name is copied to dst/name; otherwise the
// whole content of src is copied, subdirectories included.
func (m *Manager) StageDataset(src, dst, name string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return &StagingIOError{Op: "mkdir", Path: dst, Err: err}
	}

	if name != "" {
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)
		if err := CopyFile(from, to); err != nil {
			return err
		}
		m.logger.Debug("dataset staged", "file", name, "dst", dst)
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return &StagingIOError{Op: "stat", Path: src, Err: err}
	}
	if !info.IsDir() {
		return &StagingIOError{Op: "stat", Path: src, Err: fmt.Errorf("not a directory")}
	}

	files := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &StagingIOError{Op: "copy", Path: path, Err: err}
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return &StagingIOError{Op: "copy", Path: path, Err: err}
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &StagingIOError{Op: "mkdir", Path: target, Err: err}
			}
			return nil
		}
		files++
		return CopyFile(path, target)
	})
	if err != nil {
		return err
	}

	m.logger.Debug("dataset directory staged", "src", src, "dst", dst, "files", files)
	return nil
}

// CopyFile copies one regular file, truncating dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &StagingIOError{Op: "copy", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &StagingIOError{Op: "stat", Path: src, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &StagingIOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return &StagingIOError{Op: "copy", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &StagingIOError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &StagingIOError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}
