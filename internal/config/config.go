// Package config loads tracbench session files.
//
// A session file names the dataset root, the sweep axes and the
// implementations to compare. YAML and CUE are both accepted; CUE files are
// unified with an embedded schema before decoding.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/tracbench/internal/harness"
	"github.com/roach88/tracbench/internal/sweep"
)

// Defaults applied by Load.
const (
	DefaultResultsDir = "results"
	DefaultDBName     = "tracbench.db"
)

// Config is a complete session description.
type Config struct {
	// DatasetRoot is the directory the sweep's dataset names resolve against.
	DatasetRoot string `yaml:"dataset_root" json:"dataset_root" validate:"required"`

	// Policy reconciles parameter axes of different lengths: "pad" (default)
	// or "truncate".
	Policy string `yaml:"policy,omitempty" json:"policy,omitempty"`

	Sweep Sweep `yaml:"sweep" json:"sweep"`

	Implementations []Implementation `yaml:"implementations" json:"implementations" validate:"required,min=1,dive"`

	// Reference names the implementation every other one is compared
	// against. Defaults to the first implementation.
	Reference string `yaml:"reference,omitempty" json:"reference,omitempty"`

	// ResultsDir receives visual-mode outputs and plots.
	ResultsDir string `yaml:"results_dir,omitempty" json:"results_dir,omitempty"`

	// DB is the SQLite history database (default tracbench.db beside the
	// session file).
	DB string `yaml:"db,omitempty" json:"db,omitempty"`
}

// Sweep lists the values of every axis. Values may be "min:max:step" ranges.
// Path entries containing glob characters are expanded against DatasetRoot.
type Sweep struct {
	MaxDist     AxisValues `yaml:"max_dist,omitempty" json:"max_dist,omitempty"`
	MinDensity  AxisValues `yaml:"min_density,omitempty" json:"min_density,omitempty"`
	MaxAngle    AxisValues `yaml:"max_angle,omitempty" json:"max_angle,omitempty"`
	SegmentSize AxisValues `yaml:"segment_size,omitempty" json:"segment_size,omitempty"`
	Path        AxisValues `yaml:"path,omitempty" json:"path,omitempty"`
}

// Implementation configures one external program under test.
type Implementation struct {
	Name    string   `yaml:"name" json:"name" validate:"required"`
	Command []string `yaml:"command" json:"command" validate:"required,min=1,dive,required"`
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`

	Build    []string `yaml:"build,omitempty" json:"build,omitempty"`
	BuildDir string   `yaml:"build_dir,omitempty" json:"build_dir,omitempty"`

	DatasetDir string `yaml:"dataset_dir,omitempty" json:"dataset_dir,omitempty"`

	Output            string `yaml:"output,omitempty" json:"output,omitempty" validate:"omitempty,oneof=stdout artifact"`
	ArtifactDir       string `yaml:"artifact_dir,omitempty" json:"artifact_dir,omitempty"`
	ArtifactKeyword   string `yaml:"artifact_keyword,omitempty" json:"artifact_keyword,omitempty"`
	ArtifactMatchStem bool   `yaml:"artifact_match_stem,omitempty" json:"artifact_match_stem,omitempty"`
	StrictArtifacts   bool   `yaml:"strict_artifacts,omitempty" json:"strict_artifacts,omitempty"`

	// Flags renames the flag of a sweep key, e.g. {path: --file}.
	Flags map[string]string `yaml:"flags,omitempty" json:"flags,omitempty"`

	ModeFlag string   `yaml:"mode_flag,omitempty" json:"mode_flag,omitempty"`
	Modes    []string `yaml:"modes,omitempty" json:"modes,omitempty" validate:"dive,required"`
	Env      []string `yaml:"env,omitempty" json:"env,omitempty"`

	Stage *Stage `yaml:"stage,omitempty" json:"stage,omitempty"`
}

// Stage describes the directory refreshed before an implementation runs.
type Stage struct {
	Source      string `yaml:"source" json:"source" validate:"required"`
	Destination string `yaml:"destination" json:"destination" validate:"required"`
	File        string `yaml:"file,omitempty" json:"file,omitempty"`
	Keep        bool   `yaml:"keep,omitempty" json:"keep,omitempty"`
}

// applyDefaults fills optional fields.
func (c *Config) applyDefaults() {
	if c.Policy == "" {
		c.Policy = string(sweep.PolicyPad)
	}
	if c.Reference == "" && len(c.Implementations) > 0 {
		c.Reference = c.Implementations[0].Name
	}
	if c.ResultsDir == "" {
		c.ResultsDir = DefaultResultsDir
	}
	// The results directory is wiped by visual sessions, so the history
	// lives beside the session file.
	if c.DB == "" {
		c.DB = DefaultDBName
	}
}

// resolvePaths makes relative paths relative to base (the config file's
// directory). Commands are left alone: a relative executable resolves
// against Dir when the process starts.
func (c *Config) resolvePaths(base string) {
	if base == "" {
		return
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	c.DatasetRoot = abs(c.DatasetRoot)
	c.ResultsDir = abs(c.ResultsDir)
	c.DB = abs(c.DB)
	for i := range c.Implementations {
		impl := &c.Implementations[i]
		impl.Dir = abs(impl.Dir)
		impl.BuildDir = abs(impl.BuildDir)
		impl.DatasetDir = abs(impl.DatasetDir)
		impl.ArtifactDir = abs(impl.ArtifactDir)
		if impl.Stage != nil {
			impl.Stage.Source = abs(impl.Stage.Source)
			impl.Stage.Destination = abs(impl.Stage.Destination)
		}
	}
}

// PolicyValue returns the parsed reconciliation policy.
func (c *Config) PolicyValue() (sweep.Policy, error) {
	return sweep.ParsePolicy(c.Policy)
}

// Implementation returns the implementation called name.
func (c *Config) Implementation(name string) (Implementation, bool) {
	for _, impl := range c.Implementations {
		if impl.Name == name {
			return impl, true
		}
	}
	return Implementation{}, false
}

// Names returns the implementation names in configuration order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Implementations))
	for i, impl := range c.Implementations {
		names[i] = impl.Name
	}
	return names
}

// Overrides converts the sweep section into enumerator overrides, expanding
// path globs against DatasetRoot.
func (c *Config) Overrides() (sweep.Overrides, error) {
	o := sweep.Overrides{}
	set := func(key sweep.Key, vals AxisValues) {
		if len(vals) > 0 {
			o[key] = append([]string(nil), vals...)
		}
	}
	set(sweep.MaxDist, c.Sweep.MaxDist)
	set(sweep.MinDensity, c.Sweep.MinDensity)
	set(sweep.MaxAngle, c.Sweep.MaxAngle)
	set(sweep.SegmentSize, c.Sweep.SegmentSize)

	paths, err := expandPaths(c.DatasetRoot, c.Sweep.Path)
	if err != nil {
		return nil, err
	}
	set(sweep.Path, paths)
	return o, nil
}

// expandPaths replaces glob entries with the sorted names of the regular
// files they match under root. A glob that matches nothing is an error.
func expandPaths(root string, entries []string) ([]string, error) {
	var out []string
	for _, entry := range entries {
		if !strings.ContainsAny(entry, "*?[") {
			out = append(out, entry)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(root, entry))
		if err != nil {
			return nil, fmt.Errorf("sweep.path %q: %w", entry, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("sweep.path %q matches no dataset in %s", entry, root)
		}
		sort.Strings(matches)
		for _, m := range matches {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}
	return out, nil
}

// Enumerator builds the sweep enumerator, merging extra over the
// configured axes key by key.
func (c *Config) Enumerator(extra sweep.Overrides) (*sweep.Enumerator, error) {
	policy, err := c.PolicyValue()
	if err != nil {
		return nil, err
	}
	o, err := c.Overrides()
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		if !sweep.IsKnown(k) {
			return nil, &sweep.UnknownKeyError{Key: string(k)}
		}
		if len(v) > 0 {
			o[k] = append([]string(nil), v...)
		}
	}
	return sweep.New(c.DatasetRoot, o, sweep.WithPolicy(policy)), nil
}

// ProcessConfig translates an implementation entry for the harness.
func (impl Implementation) ProcessConfig() (harness.ProcessConfig, error) {
	flags := make(map[sweep.Key]string, len(impl.Flags))
	for name, flag := range impl.Flags {
		key, err := sweep.ParseKey(name)
		if err != nil {
			return harness.ProcessConfig{}, fmt.Errorf("%s: flags: %w", impl.Name, err)
		}
		flags[key] = flag
	}

	return harness.ProcessConfig{
		Name:              impl.Name,
		Command:           append([]string(nil), impl.Command...),
		Dir:               impl.Dir,
		Build:             append([]string(nil), impl.Build...),
		BuildDir:          impl.BuildDir,
		DatasetDir:        impl.DatasetDir,
		Output:            harness.OutputSource(impl.Output),
		ArtifactDir:       impl.ArtifactDir,
		ArtifactKeyword:   impl.ArtifactKeyword,
		ArtifactMatchStem: impl.ArtifactMatchStem,
		StrictArtifacts:   impl.StrictArtifacts,
		Flags:             flags,
		ModeFlag:          impl.ModeFlag,
		Modes:             append([]string(nil), impl.Modes...),
		Env:               append([]string(nil), impl.Env...),
	}, nil
}

// Targets builds the harness targets for the named implementations, in
// configuration order. An empty only list selects every implementation.
// modes, when non-nil, restricts every target to those modes that the
// implementation declares.
func (c *Config) Targets(only []string, modes []string, logger *slog.Logger) ([]harness.Target, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := c.Implementation(name); !ok {
			return nil, fmt.Errorf("unknown implementation %q (have %s)", name, strings.Join(c.Names(), ", "))
		}
		selected[name] = true
	}

	var targets []harness.Target
	for _, impl := range c.Implementations {
		if len(selected) > 0 && !selected[impl.Name] {
			continue
		}
		pc, err := impl.ProcessConfig()
		if err != nil {
			return nil, err
		}
		t := harness.Target{Impl: harness.NewProcess(pc, logger)}
		if impl.Stage != nil {
			t.Stage = &harness.StageSpec{
				Source:      impl.Stage.Source,
				Destination: impl.Stage.Destination,
				File:        impl.Stage.File,
				Keep:        impl.Stage.Keep,
			}
		}
		if modes != nil {
			t.Modes = intersectModes(impl.Modes, modes)
			if len(t.Modes) == 0 {
				return nil, fmt.Errorf("%s declares none of the modes %s", impl.Name, strings.Join(modes, ", "))
			}
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// intersectModes keeps the declared modes that appear in wanted. An
// implementation with no declared modes keeps its single unnamed mode.
func intersectModes(declared, wanted []string) []string {
	if len(declared) == 0 {
		return []string{""}
	}
	want := make(map[string]bool, len(wanted))
	for _, m := range wanted {
		want[m] = true
	}
	var out []string
	for _, m := range declared {
		if want[m] {
			out = append(out, m)
		}
	}
	return out
}
