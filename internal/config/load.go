package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tracbench/internal/sweep"
)

//go:embed schema.cue
var schemaSource string

// configValidate checks struct tags. Field names are reported with their
// YAML spelling.
var configValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads a session file, choosing the format by extension: ".cue"
// files go through the CUE schema, anything else is parsed as YAML.
// Relative paths in the file resolve against its directory.
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return LoadCUE(path)
	}
	return LoadYAML(path)
}

// LoadYAML reads and validates a YAML session file.
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes YAML with strict field checking. It does not apply
// defaults or validate; use LoadYAML for that.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// LoadCUE reads a CUE session file and validates it against the schema.
func LoadCUE(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseCUE(data, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseCUE unifies the source with the #Config definition, requires every
// field to be concrete and decodes the result.
func ParseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE config: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding CUE config: %w", err)
	}
	return &cfg, nil
}

// finish applies defaults, resolves paths and validates.
func (c *Config) finish(base string) error {
	c.applyDefaults()
	c.resolvePaths(base)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return validateConfig(c)
}

func fieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min":
		return fmt.Errorf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %q", field, fe.Tag())
	}
}

// validateConfig checks the rules struct tags cannot express.
func validateConfig(c *Config) error {
	if _, err := c.PolicyValue(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Implementations))
	for i, impl := range c.Implementations {
		if seen[impl.Name] {
			return fmt.Errorf("implementations[%d]: duplicate name %q", i, impl.Name)
		}
		seen[impl.Name] = true

		for name := range impl.Flags {
			if _, err := sweep.ParseKey(name); err != nil {
				return fmt.Errorf("implementations[%d].flags: %w", i, err)
			}
		}

		modes := make(map[string]bool, len(impl.Modes))
		for _, m := range impl.Modes {
			if modes[m] {
				return fmt.Errorf("implementations[%d]: duplicate mode %q", i, m)
			}
			modes[m] = true
		}
	}

	if c.Reference != "" && !seen[c.Reference] {
		return fmt.Errorf("reference %q is not a configured implementation", c.Reference)
	}

	return validateStages(c)
}

// validateStages rejects destinations that overlap each other, their own
// source or the dataset root. Staging wipes the destination, and
// implementations are staged concurrently.
func validateStages(c *Config) error {
	if err := c.CheckResultsDir(c.ResultsDir, c.DB); err != nil {
		return err
	}

	type dest struct {
		name, path string
	}
	var dests []dest
	for _, impl := range c.Implementations {
		if impl.Stage == nil {
			continue
		}
		d := impl.Stage.Destination
		if overlaps(d, impl.Stage.Source) {
			return fmt.Errorf("%s: stage destination %s overlaps its source %s", impl.Name, d, impl.Stage.Source)
		}
		if overlaps(d, c.DatasetRoot) {
			return fmt.Errorf("%s: stage destination %s overlaps dataset_root %s", impl.Name, d, c.DatasetRoot)
		}
		for _, other := range dests {
			if overlaps(d, other.path) {
				return fmt.Errorf("%s: stage destination %s overlaps the one of %s", impl.Name, d, other.name)
			}
		}
		dests = append(dests, dest{impl.Name, d})
	}
	return nil
}

// CheckResultsDir reports whether dir is safe to wipe at the start of a
// visual session. It may not overlap the dataset root or a stage
// directory, nor contain an implementation's directories or any of keep.
func (c *Config) CheckResultsDir(dir string, keep ...string) error {
	if overlaps(dir, c.DatasetRoot) {
		return fmt.Errorf("results_dir %s overlaps dataset_root %s", dir, c.DatasetRoot)
	}
	for _, k := range keep {
		if k != "" && within(dir, k) {
			return fmt.Errorf("%s is inside results_dir %s", k, dir)
		}
	}
	for _, impl := range c.Implementations {
		if impl.Stage != nil {
			if overlaps(dir, impl.Stage.Destination) {
				return fmt.Errorf("results_dir %s overlaps the stage destination of %s", dir, impl.Name)
			}
			if within(dir, impl.Stage.Source) {
				return fmt.Errorf("results_dir %s contains the stage source of %s", dir, impl.Name)
			}
		}
		for _, d := range []string{impl.Dir, impl.BuildDir, impl.DatasetDir} {
			if d != "" && within(dir, d) {
				return fmt.Errorf("results_dir %s contains %s of %s", dir, d, impl.Name)
			}
		}
	}
	return nil
}

// overlaps reports whether a and b are the same directory or one
// contains the other.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether child is parent or lies below it. Relative paths
// resolve against the working directory.
func within(parent, child string) bool {
	parent, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	child, err = filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
