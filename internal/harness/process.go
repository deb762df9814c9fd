package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/roach88/tracbench/internal/sweep"
)

// OutputSource selects where a process reports its result.
type OutputSource string

const (
	// OutputStdout captures standard output, trimmed of surrounding whitespace.
	OutputStdout OutputSource = "stdout"
	// OutputArtifact harvests a generated artifact file.
	OutputArtifact OutputSource = "artifact"
)

// DefaultModeFlag is the flag used to pass a named execution mode.
const DefaultModeFlag = "--mode"

// ProcessConfig describes an implementation run as an external program.
type ProcessConfig struct {
	Name string

	// Command is the executable followed by fixed leading arguments.
	Command []string

	// Dir is the working directory of every run (default: current).
	Dir string

	// Build is the optional build or warm-up command, run in BuildDir.
	Build    []string
	BuildDir string

	// DatasetDir, when set, replaces the sweep's dataset root when building
	// --infile, so the process reads its own staged copy.
	DatasetDir string

	Output OutputSource

	// ArtifactDir is searched for artifacts (default: the directory of the
	// input file, where the process writes next to its input).
	ArtifactDir string

	// ArtifactKeyword is the role keyword of the artifact name.
	ArtifactKeyword string

	// ArtifactMatchStem matches artifacts on the dataset name without its
	// extension, for programs that name outputs after the input stem.
	ArtifactMatchStem bool

	// StrictArtifacts records a missing artifact as a job error instead of
	// silently returning empty output.
	StrictArtifacts bool

	// Flags overrides the flag name used for a key (e.g. Path: "--file").
	Flags map[sweep.Key]string

	ModeFlag string
	Modes    []string

	// Env is appended to the inherited environment.
	Env []string
}

// Process runs an implementation as an external program.
type Process struct {
	cfg    ProcessConfig
	clock  Clock
	logger *slog.Logger
}

// NewProcess creates a Process. A nil logger discards output.
func NewProcess(cfg ProcessConfig, logger *slog.Logger) *Process {
	if cfg.Output == "" {
		cfg.Output = OutputStdout
	}
	if cfg.ArtifactKeyword == "" {
		cfg.ArtifactKeyword = DefaultArtifactKeyword
	}
	if cfg.ModeFlag == "" {
		cfg.ModeFlag = DefaultModeFlag
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Process{
		cfg:    cfg,
		clock:  SystemClock{},
		logger: logger.With("implementation", cfg.Name),
	}
}

// WithClock replaces the timing clock (for tests).
func (p *Process) WithClock(c Clock) *Process {
	p.clock = c
	return p
}

// Name implements Implementation.
func (p *Process) Name() string { return p.cfg.Name }

// Modes implements Implementation.
func (p *Process) Modes() []string { return append([]string(nil), p.cfg.Modes...) }

// Config returns a copy of the configuration.
func (p *Process) Config() ProcessConfig { return p.cfg }

// Build implements Implementation. An empty build command is a no-op.
func (p *Process) Build(ctx context.Context) error {
	if len(p.cfg.Build) == 0 {
		p.logger.Debug("no build step")
		return nil
	}

	cmd := exec.CommandContext(ctx, p.cfg.Build[0], p.cfg.Build[1:]...)
	cmd.Dir = p.cfg.BuildDir
	cmd.Env = p.env()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := p.clock.Now()
	err := cmd.Run()
	elapsed := p.clock.Now().Sub(start)

	if err != nil {
		be := &BuildError{Implementation: p.cfg.Name, Output: stderr.String(), Err: err}
		if be.Output == "" {
			be.Output = stdout.String()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			be.ExitCode = exitErr.ExitCode()
			be.Err = nil
		}
		return be
	}

	p.logger.Info("build done", "elapsed", elapsed)
	return nil
}

// Argv translates an argument set into the full command line.
func (p *Process) Argv(args sweep.ArgumentSet, mode string) []string {
	argv := append([]string(nil), p.cfg.Command...)
	argv = append(argv, p.flag(sweep.Path), p.infile(args))
	for _, key := range sweep.ParameterKeys {
		v, _ := args.Value(key)
		argv = append(argv, p.flag(key), v)
	}
	if mode != "" {
		argv = append(argv, p.cfg.ModeFlag, mode)
	}
	return argv
}

func (p *Process) flag(key sweep.Key) string {
	if f, ok := p.cfg.Flags[key]; ok && f != "" {
		return f
	}
	return key.Flag()
}

func (p *Process) infile(args sweep.ArgumentSet) string {
	if p.cfg.DatasetDir != "" {
		return filepath.Join(p.cfg.DatasetDir, args.Dataset)
	}
	return args.DatasetPath
}

func (p *Process) env() []string {
	if len(p.cfg.Env) == 0 {
		return nil
	}
	return append(os.Environ(), p.cfg.Env...)
}

// RunOnce implements Implementation.
func (p *Process) RunOnce(ctx context.Context, args sweep.ArgumentSet, mode string) (JobResult, error) {
	result := JobResult{
		Args:           args,
		Implementation: p.cfg.Name,
		Mode:           mode,
	}
	if len(p.cfg.Command) == 0 {
		return result, fmt.Errorf("%s: empty command", p.cfg.Name)
	}

	argv := p.Argv(args, mode)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.cfg.Dir
	cmd.Env = p.env()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := p.clock.Now()
	runErr := cmd.Run()
	result.Duration = p.clock.Now().Sub(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		p.logger.Warn("run exited with non-zero status",
			"args", args.String(), "mode", mode, "exit_code", result.ExitCode,
			"stderr", strings.TrimSpace(stderr.String()))
	default:
		result.ExitCode = -1
		result.Error = runErr.Error()
		p.logger.Warn("run failed to start", "args", args.String(), "mode", mode, "error", runErr)
	}

	if p.cfg.Output == OutputStdout {
		result.Output = strings.TrimSpace(stdout.String())
		p.logJob(result)
		return result, nil
	}

	id := args.Dataset
	if p.cfg.ArtifactMatchStem {
		id = datasetStem(id)
	}
	content, name, err := harvestArtifact(p.artifactDir(args), p.cfg.ArtifactKeyword, id, p.infile(args))
	if err != nil {
		return result, fmt.Errorf("%s: harvest artifact: %w", p.cfg.Name, err)
	}
	result.Output = content
	result.Artifact = name
	if name == "" {
		p.logger.Debug("no matching artifact", "dir", p.artifactDir(args), "keyword", p.cfg.ArtifactKeyword, "dataset", id)
		if p.cfg.StrictArtifacts && result.Error == "" {
			result.Error = ErrMissingArtifact.Error()
		}
	}

	p.logJob(result)
	return result, nil
}

func (p *Process) artifactDir(args sweep.ArgumentSet) string {
	if p.cfg.ArtifactDir != "" {
		return p.cfg.ArtifactDir
	}
	return filepath.Dir(p.infile(args))
}

func (p *Process) logJob(r JobResult) {
	p.logger.Debug("job completed",
		"position", r.Args.Position,
		"args", r.Args.String(),
		"mode", r.Mode,
		"duration", r.Duration,
		"exit_code", r.ExitCode,
		"artifact", r.Artifact,
		"output_bytes", len(r.Output),
	)
}
