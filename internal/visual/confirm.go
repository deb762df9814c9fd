package visual

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Confirmer asks the operator whether to move on to the next argument set.
type Confirmer interface {
	// Confirm returns true to continue and false to stop.
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// PromptConfirmer asks through a huh confirm prompt. Without a terminal
// on the input it falls back to huh's accessible line mode.
type PromptConfirmer struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// NewPromptConfirmer creates a confirmer reading from in and drawing on out.
func NewPromptConfirmer(in *os.File, out io.Writer) *PromptConfirmer {
	tty := isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())
	return &PromptConfirmer{in: in, out: out, accessible: !tty}
}

// Confirm implements Confirmer. Aborting the prompt (ctrl+c) means stop.
func (p *PromptConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	next := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Next").
			Negative("Stop").
			Value(&next),
	)).
		WithInput(p.in).
		WithOutput(p.out).
		WithAccessible(p.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return next, nil
}

// AutoConfirmer always continues. It drives the visual cadence without
// an operator, e.g. in scripts.
type AutoConfirmer struct{}

// Confirm implements Confirmer.
func (AutoConfirmer) Confirm(context.Context, string, string) (bool, error) {
	return true, nil
}
