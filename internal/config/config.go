// Package config loads the optional rendar config file and the surrounding
// environment. Values here are defaults for the command line; explicit flags
// always win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Names probed, in order, when no --config flag names a file.
var configNames = []string{"rendar.toml", "rendar.yaml", "rendar.yml"}

// Config is the full file schema. Every field is optional; the zero value is
// a valid configuration.
type Config struct {
	Input      string   `toml:"input" yaml:"input"`
	Output     string   `toml:"output" yaml:"output"`
	Template   string   `toml:"template" yaml:"template"`
	Exclude    []string `toml:"exclude" yaml:"exclude"`
	CSVMaxRows *int     `toml:"csv_max_rows" yaml:"csv_max_rows"`

	Preview PreviewConfig `toml:"preview" yaml:"preview"`
	Site    SiteConfig    `toml:"site" yaml:"site"`
	Notify  NotifyConfig  `toml:"notify" yaml:"notify"`

	// Dir is the directory the file was loaded from, "" for a zero config.
	Dir string `toml:"-" yaml:"-"`
}

// PreviewConfig configures the live preview server.
type PreviewConfig struct {
	Port            int    `toml:"port" yaml:"port"`
	Open            bool   `toml:"open" yaml:"open"`
	IdleTimeoutSecs int    `toml:"idle_timeout_secs" yaml:"idle_timeout_secs"`
	BuildLog        string `toml:"build_log" yaml:"build_log"`
	Metrics         bool   `toml:"metrics" yaml:"metrics"`
}

// SiteConfig configures per-page rendering extras.
type SiteConfig struct {
	EditLinks bool `toml:"edit_links" yaml:"edit_links"`
}

// NotifyConfig configures build event publishing.
type NotifyConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	NATSURL string `toml:"nats_url" yaml:"nats_url"`
	Subject string `toml:"subject" yaml:"subject"`
}

// Resolve locates and loads the effective configuration: env files first,
// then the config file, then RENDAR_* overrides. A missing config file
// yields the zero config and is not an error.
func Resolve(explicit, inputDir string) (*Config, error) {
	LoadEnvFiles()

	path, err := Find(explicit, inputDir)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if path != "" {
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find locates the config file. An explicit path must exist; otherwise the
// known names are probed in the input directory (when given) and then the
// working directory. An empty return means no config file.
func Find(explicit, inputDir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("configuration file not found: %s", explicit)
		}
		return explicit, nil
	}

	var dirs []string
	if inputDir != "" {
		dirs = append(dirs, inputDir)
	}
	dirs = append(dirs, ".")
	for _, dir := range dirs {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// Load reads and parses the config file at path. The format follows the
// extension: .yaml and .yml parse as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.Dir = filepath.Dir(path)
	cfg.resolvePaths()
	return cfg, nil
}

// resolvePaths anchors relative paths at the config file's directory, so a
// config works the same no matter where rendar is invoked from.
func (c *Config) resolvePaths() {
	c.Input = resolveAgainst(c.Dir, c.Input)
	c.Output = resolveAgainst(c.Dir, c.Output)
	c.Template = resolveAgainst(c.Dir, c.Template)
	if c.Preview.BuildLog != ":memory:" {
		c.Preview.BuildLog = resolveAgainst(c.Dir, c.Preview.BuildLog)
	}
}

func resolveAgainst(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// IdleTimeout returns the configured auto-exit timeout, zero when disabled.
func (c *Config) IdleTimeout() time.Duration {
	if c.Preview.IdleTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.Preview.IdleTimeoutSecs) * time.Second
}

// CSVRowCap resolves csv_max_rows for the build pipeline: unset keeps the
// built-in default (zero), an explicit zero lifts the cap (negative).
func (c *Config) CSVRowCap() int {
	switch {
	case c.CSVMaxRows == nil:
		return 0
	case *c.CSVMaxRows == 0:
		return -1
	default:
		return *c.CSVMaxRows
	}
}
