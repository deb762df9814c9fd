package harness

import (
	"errors"
	"fmt"
	"strings"
)

// BuildError reports a failed build or warm-up step. It is fatal: the
// harness stops before any job runs and reports no partial results.
type BuildError struct {
	Implementation string
	ExitCode       int

	// Output is the captured diagnostic text (standard error, or standard
	// output when standard error is empty).
	Output string

	Err error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s build failed", e.Implementation)
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = msg + "\n" + out
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError reports whether err is (or wraps) a BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// ErrMissingArtifact is recorded on a JobResult when a strict
// implementation produced no matching artifact.
var ErrMissingArtifact = errors.New("no matching artifact")
