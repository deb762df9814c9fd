package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tracbench/internal/config"
	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/staging"
	"github.com/roach88/tracbench/internal/sweep"
)

// newLogger builds the process logger: text on w, Info level, Debug with
// --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM. The returned stop function releases the handler.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after the current job", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

// newFormatter builds the formatter for a command's output streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the session file named by --config.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := configPath(opts)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configPath returns the session file the command reads.
func configPath(opts *RootOptions) string {
	if opts.Config == "" {
		return DefaultConfigPath
	}
	return opts.Config
}

// configMissing reports whether err is a missing default session file,
// which commands that can run on built-in defaults tolerate.
func configMissing(opts *RootOptions, err error) bool {
	return errors.Is(err, os.ErrNotExist) && (opts.Config == "" || opts.Config == DefaultConfigPath)
}

// parseSetFlags turns repeated "key=v1,v2" flags into sweep overrides.
// A later flag for the same key replaces the earlier one.
func parseSetFlags(sets []string) (sweep.Overrides, error) {
	o := sweep.Overrides{}
	for _, s := range sets {
		name, list, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want key=value[,value...]", s)
		}
		key, err := sweep.ParseKey(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		var values []string
		for _, v := range strings.Split(list, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("--set %q: no values", s)
		}
		o[key] = values
	}
	return o, nil
}

// orderTargets moves the reference implementation to the front, keeping
// the relative order of everything else. It reports whether the reference
// was among the targets.
func orderTargets(targets []harness.Target, reference string) ([]harness.Target, bool) {
	out := make([]harness.Target, 0, len(targets))
	found := false
	for _, t := range targets {
		if t.Impl.Name() == reference {
			out = append(out, t)
			found = true
		}
	}
	for _, t := range targets {
		if t.Impl.Name() != reference {
			out = append(out, t)
		}
	}
	return out, found
}

// classify maps a session error to an exit code and error code.
func classify(err error) (int, string) {
	switch {
	case harness.IsBuildError(err):
		return ExitBuildFailure, ErrCodeBuildFailed
	case staging.IsStagingError(err):
		return ExitCommandError, ErrCodeStaging
	case sweep.IsUnknownKey(err), sweep.IsInvalidState(err):
		return ExitCommandError, ErrCodeSweep
	default:
		return ExitCommandError, ErrCodeGeneric
	}
}
