package harness

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tracbench/internal/sweep"
)

// Implementation is one build of the algorithm under test.
type Implementation interface {
	// Name identifies the implementation in results and reports.
	Name() string

	// Modes lists the named execution strategies the implementation
	// supports. An empty list means a single unnamed mode.
	Modes() []string

	// Build performs the one-time compile or warm-up step.
	// A failure is returned as *BuildError.
	Build(ctx context.Context) error

	// RunOnce executes one argument set in one mode ("" for the unnamed
	// mode). A failing process is not an error; its output is whatever it
	// produced. Errors are reserved for harness I/O failures and
	// cancellation.
	RunOnce(ctx context.Context, args sweep.ArgumentSet, mode string) (JobResult, error)
}

// Clock supplies wall-clock instants for timing jobs.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// IDGenerator produces session identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
