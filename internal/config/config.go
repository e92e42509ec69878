// Package config loads archlens settings from defaults, archlens.toml, the
// environment and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the config file looked up in the working directory.
const FileName = "archlens.toml"

// EnvPrefix prefixes environment overrides, e.g. ARCHLENS_MAX_FILES=500.
const EnvPrefix = "ARCHLENS_"

// Config holds every setting. Keys match the long flag names.
type Config struct {
	Workers              int           `koanf:"workers"`
	MaxFiles             int           `koanf:"max-files"`
	MaxFileSize          int64         `koanf:"max-file-size"`
	Timeout              time.Duration `koanf:"timeout"`
	Langs                []string      `koanf:"langs"`
	Exclude              []string      `koanf:"exclude"`
	IncludeTests         bool          `koanf:"include-tests"`
	Patterns             []string      `koanf:"patterns"`
	Categories           []string      `koanf:"categories"`
	Styles               []string      `koanf:"styles"`
	TolerateSyntaxErrors bool          `koanf:"tolerate-syntax-errors"`

	HealthyThreshold       float64 `koanf:"healthy-threshold"`
	CouplingThreshold      int     `koanf:"coupling-threshold"`
	GodThreshold           int     `koanf:"god-threshold"`
	GodMinResponsibilities int     `koanf:"god-min-responsibilities"`
	MaxCycles              int     `koanf:"max-cycles"`
	ErosionTolerance       float64 `koanf:"erosion-tolerance"`

	Format       string        `koanf:"format"`
	Top          int           `koanf:"top"`
	Focus        string        `koanf:"focus"`
	Cache        string        `koanf:"cache"`
	Baseline     string        `koanf:"baseline"`
	SaveBaseline string        `koanf:"save-baseline"`
	Watch        bool          `koanf:"watch"`
	Debounce     time.Duration `koanf:"debounce"`
	LogLevel     string        `koanf:"log-level"`
	LogJSON      bool          `koanf:"log-json"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"workers":                  0,
		"max-files":                0,
		"max-file-size":            int64(1 << 20),
		"timeout":                  "0s",
		"langs":                    []string{},
		"exclude":                  []string{},
		"include-tests":            false,
		"patterns":                 []string{},
		"categories":               []string{},
		"styles":                   []string{},
		"tolerate-syntax-errors":   false,
		"healthy-threshold":        0.7,
		"coupling-threshold":       10,
		"god-threshold":            15,
		"god-min-responsibilities": 4,
		"max-cycles":               100,
		"erosion-tolerance":        0.0,
		"format":                   "toon",
		"top":                      0,
		"focus":                    "",
		"cache":                    "",
		"baseline":                 "",
		"save-baseline":            "",
		"watch":                    false,
		"debounce":                 "500ms",
		"log-level":                "info",
		"log-json":                 false,
	}
}

// Load layers defaults, the config file, ARCHLENS_ variables and flags. path
// names the config file; empty means FileName, which may be absent. An
// explicit path must exist.
func Load(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps ARCHLENS_MAX_FILES to max-files.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// normalize splits comma-joined list values, as environment variables carry
// lists as one string.
func (c *Config) normalize() {
	for _, list := range []*[]string{&c.Langs, &c.Exclude, &c.Patterns, &c.Categories, &c.Styles} {
		var out []string
		for _, v := range *list {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		*list = out
	}
	c.Format = strings.ToLower(c.Format)
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	case c.MaxFiles < 0:
		return fmt.Errorf("max-files must not be negative, got %d", c.MaxFiles)
	case c.MaxFileSize < 0:
		return fmt.Errorf("max-file-size must not be negative, got %d", c.MaxFileSize)
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	case c.HealthyThreshold < 0 || c.HealthyThreshold > 1:
		return fmt.Errorf("healthy-threshold must be within [0,1], got %v", c.HealthyThreshold)
	case c.CouplingThreshold < 1:
		return fmt.Errorf("coupling-threshold must be positive, got %d", c.CouplingThreshold)
	case c.GodThreshold < 1:
		return fmt.Errorf("god-threshold must be positive, got %d", c.GodThreshold)
	case c.GodMinResponsibilities < 1:
		return fmt.Errorf("god-min-responsibilities must be positive, got %d", c.GodMinResponsibilities)
	case c.MaxCycles < 1:
		return fmt.Errorf("max-cycles must be positive, got %d", c.MaxCycles)
	case c.ErosionTolerance < 0:
		return fmt.Errorf("erosion-tolerance must not be negative, got %v", c.ErosionTolerance)
	case c.Format != "toon" && c.Format != "json":
		return fmt.Errorf("format must be toon or json, got %q", c.Format)
	case c.Top < 0:
		return fmt.Errorf("top must not be negative, got %d", c.Top)
	case c.Debounce < 0:
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	return nil
}

// DefaultTOML renders the defaults as a commented archlens.toml body.
func DefaultTOML() string {
	d := Defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch v := d[k].(type) {
		case string:
			fmt.Fprintf(&b, "# %s = %q\n", k, v)
		case []string:
			fmt.Fprintf(&b, "# %s = []\n", k)
		default:
			fmt.Fprintf(&b, "# %s = %v\n", k, v)
		}
	}
	return b.String()
}

type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) { return p, nil }

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}
