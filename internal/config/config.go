// Package config loads gomacros configuration.
//
// Configuration is read once per run from .gomacros.yaml, .gomacros.yml or
// gomacros.toml, found by walking up from the working directory to the module
// root. It is immutable afterwards and shared by every expansion.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileNames lists recognized configuration file names in lookup order.
var FileNames = []string{".gomacros.yaml", ".gomacros.yml", "gomacros.toml"}

// DefaultHeader is the first line of every generated file.
const DefaultHeader = "Code generated by gomacros. DO NOT EDIT."

// Config is the complete gomacros configuration.
type Config struct {
	Output       Output                 `yaml:"output" toml:"output"`
	Equal        Equal                  `yaml:"equal" toml:"equal"`
	SerTest      SerTest                `yaml:"sertest" toml:"sertest"`
	GenericTests GenericTests           `yaml:"generictests" toml:"generictests"`
	Codecs       map[string]CodecConfig `yaml:"codecs" toml:"codecs"`
}

// Output configures generated files.
type Output struct {
	// Source is the companion file for non-test code.
	Source string `yaml:"source" toml:"source"`

	// Test is the companion file for in-package tests.
	Test string `yaml:"test" toml:"test"`

	// ExternalTest is the companion file for external (_test package) tests.
	ExternalTest string `yaml:"external_test" toml:"external_test"`

	// Header is the generated-code marker written as the first comment.
	Header string `yaml:"header" toml:"header"`

	// LineDirectives enables //line directives pointing generated
	// declarations at the annotated items.
	LineDirectives bool `yaml:"line_directives" toml:"line_directives"`
}

// Equal holds defaults of the equal macro.
type Equal struct {
	Method string `yaml:"method" toml:"method"`
	Mode   Mode   `yaml:"mode" toml:"mode"`
}

// SerTest holds defaults of the sertest macro.
type SerTest struct {
	// Codecs enabled when a directive does not toggle them explicitly.
	Codecs []string `yaml:"codecs" toml:"codecs"`

	// Seed of random and arbitrary constructors.
	Seed uint64 `yaml:"seed" toml:"seed"`
}

// GenericTests holds defaults of the generictests macro.
type GenericTests struct {
	Parallel bool `yaml:"parallel" toml:"parallel"`
}

// CodecConfig registers a custom serialization codec for sertest.
type CodecConfig struct {
	Marshal   Reference `yaml:"marshal" toml:"marshal"`
	Unmarshal Reference `yaml:"unmarshal" toml:"unmarshal"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Output: Output{
			Source:       "zz_gomacros.go",
			Test:         "zz_gomacros_test.go",
			ExternalTest: "zz_gomacros_ext_test.go",
			Header:       DefaultHeader,
		},
		Equal: Equal{
			Method: "Equal",
			Mode:   ModeStrict,
		},
		SerTest: SerTest{
			Codecs: []string{"json"},
			Seed:   42,
		},
	}
}

// reservedCodecNames cannot be used for custom codecs as they are sertest options.
var reservedCodecNames = []string{"arbitrary", "constr", "random", "types"}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Output.Header == "" {
		errs = append(errs, errors.New("output.header must not be empty"))
	}
	if !strings.HasSuffix(c.Output.Source, ".go") || strings.HasSuffix(c.Output.Source, "_test.go") {
		errs = append(errs, fmt.Errorf("output.source %q must be a non-test .go file", c.Output.Source))
	}
	if !strings.HasSuffix(c.Output.Test, "_test.go") {
		errs = append(errs, fmt.Errorf("output.test %q must end with _test.go", c.Output.Test))
	}
	if !strings.HasSuffix(c.Output.ExternalTest, "_test.go") {
		errs = append(errs, fmt.Errorf("output.external_test %q must end with _test.go", c.Output.ExternalTest))
	}
	if c.Output.Test == c.Output.ExternalTest {
		errs = append(errs, errors.New("output.test and output.external_test must differ"))
	}
	if filepath.Base(c.Output.Source) != c.Output.Source ||
		filepath.Base(c.Output.Test) != c.Output.Test ||
		filepath.Base(c.Output.ExternalTest) != c.Output.ExternalTest {
		errs = append(errs, errors.New("output file names must not contain directories"))
	}
	if !IsIdent(c.Equal.Method) {
		errs = append(errs, fmt.Errorf("equal.method %q is not an identifier", c.Equal.Method))
	}
	if c.Equal.Mode == ModeInvalid {
		errs = append(errs, errors.New("equal.mode must be set"))
	}

	for _, name := range c.CodecNames() {
		if !IsIdent(name) {
			errs = append(errs, fmt.Errorf("codec name %q is not an identifier", name))
		}
		if slices.Contains(reservedCodecNames, name) {
			errs = append(errs, fmt.Errorf("codec name %q is reserved", name))
		}
		codec := c.Codecs[name]
		if codec.Marshal.Name == "" || codec.Unmarshal.Name == "" {
			errs = append(errs, fmt.Errorf("codec %q needs both marshal and unmarshal references", name))
		}
	}

	return errors.Join(errs...)
}

// CodecNames returns custom codec names in sorted order.
func (c *Config) CodecNames() []string {
	names := make([]string, 0, len(c.Codecs))
	for name := range c.Codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads the configuration file at path on top of the defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("decode toml config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, fmt.Errorf("decode toml config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decode yaml config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Discover looks for a configuration file starting at dir and walking up to
// the directory holding go.mod. It returns an empty path when there is none.
func Discover(fs afero.Fs, dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			ok, err := afero.Exists(fs, p)
			if err != nil {
				return "", fmt.Errorf("check %s: %w", p, err)
			}
			if ok {
				return p, nil
			}
		}

		if ok, _ := afero.Exists(fs, filepath.Join(dir, "go.mod")); ok {
			return "", nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadOrDefault discovers the configuration from dir and loads it, or
// returns the defaults when there is no configuration file.
func LoadOrDefault(fs afero.Fs, dir string) (Config, string, error) {
	path, err := Discover(fs, dir)
	if err != nil {
		return Default(), "", err
	}
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(fs, path)
	return cfg, path, err
}
